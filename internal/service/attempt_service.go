package service

import (
	"encoding/json"
	"errors"
	"time"

	"coaching_backend/internal/grading"
	"coaching_backend/internal/model"
	"coaching_backend/internal/repository"
	"coaching_backend/internal/util"
	"coaching_backend/pkg/events"
	"coaching_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptService struct {
	AttemptRepo    *repository.AttemptRepository
	AssessmentRepo *repository.AssessmentRepository
	BatchRepo      *repository.BatchRepository
	DB             *gorm.DB
	Bus            *events.Bus
	Logger         *zap.Logger
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, assessmentRepo *repository.AssessmentRepository, batchRepo *repository.BatchRepository, db *gorm.DB, bus *events.Bus, logger *zap.Logger) *AttemptService {
	return &AttemptService{
		AttemptRepo:    attemptRepo,
		AssessmentRepo: assessmentRepo,
		BatchRepo:      batchRepo,
		DB:             db,
		Bus:            bus,
		Logger:         logger,
	}
}

// availabilityError 判定某时刻能否开始作答。
// 已发布且在窗口内返回 nil；窗口未配置的一端不限制。
func availabilityError(a *model.Assessment, now time.Time) error {
	if a.Status != model.AssessmentPublished {
		return util.ErrAssessmentNotAvailable
	}
	if a.StartTime != nil && now.Before(*a.StartTime) {
		return util.ErrOutOfWindow
	}
	if a.EndTime != nil && now.After(*a.EndTime) {
		return util.ErrOutOfWindow
	}
	return nil
}

// attemptDeadline 单次作答的截止时刻：开始时间加时长与窗口结束两者取早。
// 返回 nil 表示不限时。
func attemptDeadline(a *model.Assessment, startedAt time.Time) *time.Time {
	var deadline *time.Time
	if a.DurationMinutes > 0 {
		d := startedAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
		deadline = &d
	}
	if a.EndTime != nil && (deadline == nil || a.EndTime.Before(*deadline)) {
		deadline = a.EndTime
	}
	return deadline
}

func attemptExpired(a *model.Assessment, attempt *model.AssessmentAttempt, now time.Time) bool {
	deadline := attemptDeadline(a, attempt.StartedAt)
	return deadline != nil && now.After(*deadline)
}

type StartAttemptResult struct {
	Attempt   *model.AssessmentAttempt   `json:"attempt"`
	Questions []model.AssessmentQuestion `json:"questions"`
	Answers   []model.AttemptAnswer      `json:"answers"`
	Resumed   bool                       `json:"resumed"`
}

// StartOrResume 开始作答。已有未提交记录时直接续答（幂等），
// 否则校验可用性与剩余次数后新建。过期的未提交记录先自动交卷。
func (s *AttemptService) StartOrResume(assessmentID uint, user *model.User) (*StartAttemptResult, error) {
	assessment, err := s.AssessmentRepo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}

	if user.Role == model.Student {
		ok, err := s.BatchRepo.IsMember(assessment.BatchID, user.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrPermissionDenied
		}
	}

	var (
		attempt *model.AssessmentAttempt
		resumed bool
	)
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		open, err := s.AttemptRepo.FindOpenForUpdate(tx, assessmentID, user.ID)
		if err == nil {
			// 超时的未提交记录就地结算，之后按新建流程走门槛校验
			if attemptExpired(assessment, open, now) {
				if err := s.finalizeLocked(tx, assessment, open, now); err != nil {
					return err
				}
				open = nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := availabilityError(assessment, now); err != nil {
			return err
		}

		if open != nil {
			attempt = open
			resumed = true
			return nil
		}

		used, err := s.AttemptRepo.CountSubmitted(tx, assessmentID, user.ID)
		if err != nil {
			return err
		}
		if used >= int64(assessment.MaxAttempts) {
			return util.ErrAttemptsExhausted
		}

		attempt = &model.AssessmentAttempt{
			AssessmentID: assessmentID,
			UserID:       user.ID,
			Status:       model.AttemptInProgress,
			StartedAt:    now,
			MaxScore:     assessment.TotalMarks,
		}
		return tx.Create(attempt).Error
	})
	if err != nil {
		return nil, err
	}

	questions, err := s.AssessmentRepo.ListQuestions(assessmentID)
	if err != nil {
		return nil, err
	}
	// 作答阶段不下发答案与解析
	for i := range questions {
		questions[i].CorrectAnswer = ""
		questions[i].Explanation = ""
	}

	var answers []model.AttemptAnswer
	if resumed {
		answers, err = s.AttemptRepo.ListAnswers(attempt.ID)
		if err != nil {
			return nil, err
		}
	}

	return &StartAttemptResult{
		Attempt:   attempt,
		Questions: questions,
		Answers:   answers,
		Resumed:   resumed,
	}, nil
}

type SaveAnswerRequest struct {
	Answer json.RawMessage `json:"answer" binding:"required"`
}

// SaveAnswer 按 (attempt, question) 覆盖保存，后写覆盖先写。
// 状态校验与写入在同一事务内持有 attempt 行锁，
// 与 Submit 的行锁互斥，交卷后的保存必然落在状态流转之后而被拒绝。
func (s *AttemptService) SaveAnswer(attemptID string, questionID uint, user *model.User, req *SaveAnswerRequest) (*model.AttemptAnswer, error) {
	var answer *model.AttemptAnswer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		attempt, err := s.AttemptRepo.FindByIDForUpdate(tx, attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if attempt.UserID != user.ID {
			return util.ErrPermissionDenied
		}
		if attempt.Status != model.AttemptInProgress {
			return util.ErrAlreadySubmitted
		}

		question, err := s.AssessmentRepo.FindQuestionByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}
		if question.AssessmentID != attempt.AssessmentID {
			return util.ErrQuestionNotFound
		}

		payload, err := grading.ParsePayload(req.Answer)
		if err != nil {
			return err
		}
		if err := payload.Validate(question.QuestionType); err != nil {
			return err
		}

		answer = &model.AttemptAnswer{
			AttemptID:  attemptID,
			QuestionID: questionID,
			RawAnswer:  string(req.Answer),
			AnsweredAt: time.Now(),
		}
		return s.AttemptRepo.UpsertAnswer(tx, answer)
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// Submit 交卷并判分。行锁防止并发重复提交，判分结果
// 按 (是否正确, 得分) 分组批量回填，与状态流转同一事务。
func (s *AttemptService) Submit(attemptID string, user *model.User) (*model.AssessmentAttempt, error) {
	var (
		attempt    *model.AssessmentAttempt
		assessment *model.Assessment
	)
	start := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		a, err := s.AttemptRepo.FindByIDForUpdate(tx, attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if a.UserID != user.ID {
			return util.ErrPermissionDenied
		}
		if a.Status != model.AttemptInProgress {
			return util.ErrAlreadySubmitted
		}

		assessment, err = s.AssessmentRepo.FindByID(a.AssessmentID)
		if err != nil {
			return err
		}

		attempt = a
		return s.finalizeLocked(tx, assessment, a, time.Now())
	})
	monitoring.ObserveSubmission(err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.Bus.Publish(events.AttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:    attempt.ID,
		AssessmentID: attempt.AssessmentID,
		UserID:       attempt.UserID,
		Percentage:   attempt.Percentage,
	})
	return attempt, nil
}

// finalizeLocked 在持有 attempt 行锁的事务内判分并落库
func (s *AttemptService) finalizeLocked(tx *gorm.DB, assessment *model.Assessment, attempt *model.AssessmentAttempt, now time.Time) error {
	var questions []model.AssessmentQuestion
	if err := tx.Where("assessment_id = ?", assessment.ID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error; err != nil {
		return err
	}

	var answers []model.AttemptAnswer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("attempt_id = ?", attempt.ID).
		Find(&answers).Error; err != nil {
		return err
	}

	keyed := make([]grading.Question, 0, len(questions))
	for _, q := range questions {
		key, err := grading.ParsePayload([]byte(q.CorrectAnswer))
		if err != nil {
			// 标准答案损坏属于数据问题，该题按错误处理前先记录
			s.Logger.Error("corrupt correct answer payload",
				zap.Uint("questionId", q.ID),
				zap.Uint("assessmentId", assessment.ID),
				zap.Error(err))
		}
		keyed = append(keyed, grading.Question{
			ID:            q.ID,
			Type:          q.QuestionType,
			Marks:         q.Marks,
			CorrectAnswer: key,
		})
	}

	submitted := make(map[uint]grading.Payload, len(answers))
	for _, ans := range answers {
		payload, err := grading.ParsePayload([]byte(ans.RawAnswer))
		if err != nil {
			// 无法解析的历史作答按未作答处理
			s.Logger.Warn("skipping unparseable answer payload",
				zap.String("attemptId", attempt.ID),
				zap.Uint("questionId", ans.QuestionID),
				zap.Error(err))
			continue
		}
		submitted[ans.QuestionID] = payload
	}

	result := grading.Grade(keyed, submitted, assessment.NegativeMarkingRatio)

	for _, group := range grading.GroupOutcomes(result.Outcomes) {
		if err := s.AttemptRepo.BulkMarkAnswers(tx, attempt.ID, group.QuestionIDs, group.IsCorrect, group.MarksAwarded); err != nil {
			return err
		}
	}

	attempt.Status = model.AttemptSubmitted
	attempt.SubmittedAt = &now
	attempt.TotalScore = result.TotalScore
	attempt.MaxScore = result.MaxScore
	attempt.Percentage = result.Percentage
	attempt.CorrectCount = result.CorrectCount
	attempt.WrongCount = result.WrongCount
	attempt.SkippedCount = result.SkippedCount

	return tx.Model(&model.AssessmentAttempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]interface{}{
			"status":        model.AttemptSubmitted,
			"submitted_at":  now,
			"total_score":   result.TotalScore,
			"max_score":     result.MaxScore,
			"percentage":    result.Percentage,
			"correct_count": result.CorrectCount,
			"wrong_count":   result.WrongCount,
			"skipped_count": result.SkippedCount,
		}).Error
}
