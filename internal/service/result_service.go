package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coaching_backend/internal/model"
	"coaching_backend/internal/repository"
	"coaching_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardCacheTTL = 30 * time.Second

type ResultService struct {
	AttemptRepo    *repository.AttemptRepository
	AssessmentRepo *repository.AssessmentRepository
	UserRepo       *repository.UserRepository
	Redis          *redis.Client
	Logger         *zap.Logger
}

func NewResultService(attemptRepo *repository.AttemptRepository, assessmentRepo *repository.AssessmentRepository, userRepo *repository.UserRepository, rdb *redis.Client, logger *zap.Logger) *ResultService {
	return &ResultService{
		AttemptRepo:    attemptRepo,
		AssessmentRepo: assessmentRepo,
		UserRepo:       userRepo,
		Redis:          rdb,
		Logger:         logger,
	}
}

type AnswerReview struct {
	QuestionID    uint            `json:"questionId"`
	QuestionType  string          `json:"questionType"`
	Content       string          `json:"content"`
	Options       json.RawMessage `json:"options,omitempty"`
	Marks         float64         `json:"marks"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation,omitempty"`
	Submitted     json.RawMessage `json:"submitted,omitempty"`
	Answered      bool            `json:"answered"`
	IsCorrect     *bool           `json:"isCorrect,omitempty"`
	MarksAwarded  *float64        `json:"marksAwarded,omitempty"`
}

type AttemptResult struct {
	Attempt *model.AssessmentAttempt `json:"attempt"`
	Review  []AnswerReview           `json:"review"`
}

// GetAttemptResult 逐题回看成绩。仅已提交的作答可见，
// 学生只能看自己的，教师可看本人创建测评下的任意作答。
func (s *ResultService) GetAttemptResult(attemptID string, user *model.User) (*AttemptResult, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	if attempt.UserID != user.ID {
		assessment, err := s.AssessmentRepo.FindByID(attempt.AssessmentID)
		if err != nil {
			return nil, err
		}
		if assessment.CreatorID != user.ID && user.Role != model.Admin {
			return nil, util.ErrPermissionDenied
		}
	}

	if attempt.Status != model.AttemptSubmitted {
		return nil, util.ErrAttemptNotFinalized
	}

	questions, err := s.AssessmentRepo.ListQuestions(attempt.AssessmentID)
	if err != nil {
		return nil, err
	}
	answers, err := s.AttemptRepo.ListAnswers(attemptID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uint]model.AttemptAnswer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	review := make([]AnswerReview, 0, len(questions))
	for _, q := range questions {
		item := AnswerReview{
			QuestionID:    q.ID,
			QuestionType:  q.QuestionType,
			Content:       q.Content,
			Options:       q.Options,
			Marks:         q.Marks,
			CorrectAnswer: json.RawMessage(q.CorrectAnswer),
			Explanation:   q.Explanation,
		}
		if ans, ok := byQuestion[q.ID]; ok {
			item.Submitted = json.RawMessage(ans.RawAnswer)
			item.Answered = true
			item.IsCorrect = ans.IsCorrect
			item.MarksAwarded = ans.MarksAwarded
		}
		review = append(review, item)
	}

	return &AttemptResult{Attempt: attempt, Review: review}, nil
}

type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	AttemptID   string     `json:"attemptId"`
	UserID      uint       `json:"userId"`
	UserName    string     `json:"userName"`
	TotalScore  float64    `json:"totalScore"`
	MaxScore    float64    `json:"maxScore"`
	Percentage  float64    `json:"percentage"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

func leaderboardCacheKey(assessmentID uint) string {
	return fmt.Sprintf("leaderboard:%d", assessmentID)
}

// Leaderboard 测评榜单：百分比降序，同分先交卷者在前。
// 结果短暂缓存，交卷后由 InvalidateLeaderboard 清除。
func (s *ResultService) Leaderboard(ctx context.Context, assessmentID uint, user *model.User) ([]LeaderboardEntry, error) {
	assessment, err := s.AssessmentRepo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.CreatorID != user.ID && user.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}

	key := leaderboardCacheKey(assessmentID)
	if cached, err := s.Redis.Get(ctx, key).Result(); err == nil {
		var entries []LeaderboardEntry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
	}

	attempts, err := s.AttemptRepo.ListSubmittedRanked(assessmentID)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(attempts))
	for i, a := range attempts {
		entry := LeaderboardEntry{
			Rank:        i + 1,
			AttemptID:   a.ID,
			UserID:      a.UserID,
			TotalScore:  a.TotalScore,
			MaxScore:    a.MaxScore,
			Percentage:  a.Percentage,
			SubmittedAt: a.SubmittedAt,
		}
		if u, err := s.UserRepo.FindByID(a.UserID); err == nil {
			entry.UserName = u.Name
		}
		entries = append(entries, entry)
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := s.Redis.Set(ctx, key, data, leaderboardCacheTTL).Err(); err != nil {
			s.Logger.Warn("failed to cache leaderboard", zap.Uint("assessmentId", assessmentID), zap.Error(err))
		}
	}
	return entries, nil
}

func (s *ResultService) InvalidateLeaderboard(ctx context.Context, assessmentID uint) {
	if err := s.Redis.Del(ctx, leaderboardCacheKey(assessmentID)).Err(); err != nil {
		s.Logger.Warn("failed to invalidate leaderboard cache", zap.Uint("assessmentId", assessmentID), zap.Error(err))
	}
}
