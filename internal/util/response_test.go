package util

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"coaching_backend/internal/grading"

	"github.com/gin-gonic/gin"
)

func TestFromErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"assessment not found", ErrAssessmentNotFound, http.StatusNotFound},
		{"attempt not found", ErrAttemptNotFound, http.StatusNotFound},
		{"question not found", ErrQuestionNotFound, http.StatusNotFound},
		{"not available", ErrAssessmentNotAvailable, http.StatusConflict},
		{"out of window", ErrOutOfWindow, http.StatusConflict},
		{"attempts exhausted", ErrAttemptsExhausted, http.StatusConflict},
		{"already submitted", ErrAlreadySubmitted, http.StatusConflict},
		{"not finalized", ErrAttemptNotFinalized, http.StatusConflict},
		{"permission denied", ErrPermissionDenied, http.StatusForbidden},
		{"email registered", ErrEmailRegistered, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"invalid payload", grading.ErrInvalidPayload, http.StatusBadRequest},
		{"wrapped sentinel", fmt.Errorf("question 3: %w", grading.ErrInvalidPayload), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tt.err)

			if w.Code != tt.want {
				t.Errorf("FromError(%v) status = %d, want %d", tt.err, w.Code, tt.want)
			}
		})
	}
}
