package service

import (
	"errors"
	"testing"
	"time"

	"coaching_backend/internal/model"
	"coaching_backend/internal/util"
)

func tp(t time.Time) *time.Time { return &t }

func TestAvailabilityError(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		assessment model.Assessment
		want       error
	}{
		{
			name:       "draft not available",
			assessment: model.Assessment{Status: model.AssessmentDraft},
			want:       util.ErrAssessmentNotAvailable,
		},
		{
			name:       "closed not available",
			assessment: model.Assessment{Status: model.AssessmentClosed},
			want:       util.ErrAssessmentNotAvailable,
		},
		{
			name:       "published without window",
			assessment: model.Assessment{Status: model.AssessmentPublished},
			want:       nil,
		},
		{
			name: "before start",
			assessment: model.Assessment{
				Status:    model.AssessmentPublished,
				StartTime: tp(now.Add(time.Hour)),
			},
			want: util.ErrOutOfWindow,
		},
		{
			name: "after end",
			assessment: model.Assessment{
				Status:  model.AssessmentPublished,
				EndTime: tp(now.Add(-time.Minute)),
			},
			want: util.ErrOutOfWindow,
		},
		{
			name: "inside window",
			assessment: model.Assessment{
				Status:    model.AssessmentPublished,
				StartTime: tp(now.Add(-time.Hour)),
				EndTime:   tp(now.Add(time.Hour)),
			},
			want: nil,
		},
		{
			name: "exactly at start",
			assessment: model.Assessment{
				Status:    model.AssessmentPublished,
				StartTime: tp(now),
			},
			want: nil,
		},
		{
			name: "exactly at end",
			assessment: model.Assessment{
				Status:  model.AssessmentPublished,
				EndTime: tp(now),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := availabilityError(&tt.assessment, now)
			if !errors.Is(got, tt.want) {
				t.Errorf("availabilityError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttemptDeadline(t *testing.T) {
	startedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no limit", func(t *testing.T) {
		a := model.Assessment{}
		if got := attemptDeadline(&a, startedAt); got != nil {
			t.Errorf("expected nil deadline, got %v", got)
		}
	})

	t.Run("duration only", func(t *testing.T) {
		a := model.Assessment{DurationMinutes: 30}
		got := attemptDeadline(&a, startedAt)
		want := startedAt.Add(30 * time.Minute)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("window end only", func(t *testing.T) {
		end := startedAt.Add(10 * time.Minute)
		a := model.Assessment{EndTime: &end}
		got := attemptDeadline(&a, startedAt)
		if got == nil || !got.Equal(end) {
			t.Errorf("expected %v, got %v", end, got)
		}
	})

	t.Run("window end before duration", func(t *testing.T) {
		end := startedAt.Add(10 * time.Minute)
		a := model.Assessment{DurationMinutes: 60, EndTime: &end}
		got := attemptDeadline(&a, startedAt)
		if got == nil || !got.Equal(end) {
			t.Errorf("expected window end %v, got %v", end, got)
		}
	})

	t.Run("duration before window end", func(t *testing.T) {
		end := startedAt.Add(2 * time.Hour)
		a := model.Assessment{DurationMinutes: 45, EndTime: &end}
		got := attemptDeadline(&a, startedAt)
		want := startedAt.Add(45 * time.Minute)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestAttemptExpired(t *testing.T) {
	startedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	attempt := model.AssessmentAttempt{StartedAt: startedAt}

	a := model.Assessment{DurationMinutes: 30}
	if attemptExpired(&a, &attempt, startedAt.Add(29*time.Minute)) {
		t.Error("attempt should not be expired before deadline")
	}
	if attemptExpired(&a, &attempt, startedAt.Add(30*time.Minute)) {
		t.Error("attempt should not be expired exactly at deadline")
	}
	if !attemptExpired(&a, &attempt, startedAt.Add(31*time.Minute)) {
		t.Error("attempt should be expired after deadline")
	}

	unlimited := model.Assessment{}
	if attemptExpired(&unlimited, &attempt, startedAt.Add(1000*time.Hour)) {
		t.Error("unlimited attempt never expires")
	}
}
