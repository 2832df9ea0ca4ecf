package service

import (
	"encoding/json"
	"fmt"
	"time"

	"coaching_backend/internal/grading"
	"coaching_backend/internal/model"
	"coaching_backend/internal/repository"
	"coaching_backend/internal/util"
	"coaching_backend/pkg/events"

	"gorm.io/gorm"
)

type AssessmentService struct {
	AssessmentRepo *repository.AssessmentRepository
	BatchRepo      *repository.BatchRepository
	DB             *gorm.DB
	Bus            *events.Bus
}

func NewAssessmentService(assessmentRepo *repository.AssessmentRepository, batchRepo *repository.BatchRepository, db *gorm.DB, bus *events.Bus) *AssessmentService {
	return &AssessmentService{
		AssessmentRepo: assessmentRepo,
		BatchRepo:      batchRepo,
		DB:             db,
		Bus:            bus,
	}
}

type QuestionInput struct {
	QuestionType  string          `json:"questionType" binding:"required,oneof=mcq msq nat"`
	Content       string          `json:"content" binding:"required"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer" binding:"required"`
	Marks         float64         `json:"marks" binding:"required,gt=0"`
	Explanation   string          `json:"explanation"`
}

type CreateAssessmentRequest struct {
	BatchID              uint            `json:"batchId" binding:"required"`
	Title                string          `json:"title" binding:"required,max=255"`
	Description          string          `json:"description"`
	StartTime            *time.Time      `json:"startTime"`
	EndTime              *time.Time      `json:"endTime"`
	DurationMinutes      int             `json:"durationMinutes" binding:"omitempty,gte=0"`
	MaxAttempts          int             `json:"maxAttempts" binding:"omitempty,gte=1"`
	NegativeMarkingRatio float64         `json:"negativeMarkingRatio" binding:"omitempty,gte=0,lte=1"`
	Questions            []QuestionInput `json:"questions"`
}

// buildQuestion 解析并校验标准答案载荷，录入阶段就拒绝掉不合法的题目
func buildQuestion(assessmentID uint, orderIndex int, in QuestionInput) (*model.AssessmentQuestion, error) {
	payload, err := grading.ParsePayload(in.CorrectAnswer)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", orderIndex+1, err)
	}
	if err := payload.Validate(in.QuestionType); err != nil {
		return nil, fmt.Errorf("question %d: %w", orderIndex+1, err)
	}

	return &model.AssessmentQuestion{
		AssessmentID:  assessmentID,
		QuestionType:  in.QuestionType,
		Content:       in.Content,
		Options:       in.Options,
		CorrectAnswer: string(in.CorrectAnswer),
		Marks:         in.Marks,
		OrderIndex:    orderIndex,
		Explanation:   in.Explanation,
	}, nil
}

func (s *AssessmentService) CreateAssessment(creator *model.User, req *CreateAssessmentRequest) (*model.Assessment, error) {
	batch, err := s.BatchRepo.FindByID(req.BatchID)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", util.ErrInvalidInput)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	assessment := &model.Assessment{
		CoachingID:           batch.CoachingID,
		BatchID:              batch.ID,
		CreatorID:            creator.ID,
		Title:                req.Title,
		Description:          req.Description,
		Status:               model.AssessmentDraft,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		DurationMinutes:      req.DurationMinutes,
		MaxAttempts:          maxAttempts,
		NegativeMarkingRatio: req.NegativeMarkingRatio,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assessment).Error; err != nil {
			return err
		}

		if len(req.Questions) > 0 {
			questions := make([]model.AssessmentQuestion, 0, len(req.Questions))
			var total float64
			for i, in := range req.Questions {
				q, err := buildQuestion(assessment.ID, i, in)
				if err != nil {
					return err
				}
				questions = append(questions, *q)
				total += q.Marks
			}
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
			assessment.TotalMarks = total
			if err := tx.Model(assessment).Update("total_marks", total).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *AssessmentService) GetAssessment(id uint) (*model.Assessment, []model.AssessmentQuestion, error) {
	assessment, err := s.AssessmentRepo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, util.ErrAssessmentNotFound
		}
		return nil, nil, err
	}
	questions, err := s.AssessmentRepo.ListQuestions(id)
	if err != nil {
		return nil, nil, err
	}
	return assessment, questions, nil
}

func (s *AssessmentService) ListForTeacher(creatorID uint, page, limit int) ([]model.Assessment, int64, error) {
	return s.AssessmentRepo.ListByCreator(creatorID, page, limit)
}

func (s *AssessmentService) ListForStudent(batchID uint, page, limit int) ([]model.Assessment, int64, error) {
	return s.AssessmentRepo.ListPublishedForBatch(batchID, page, limit)
}

// requireOwnedDraft 题目增删与发布只允许创建者在草稿态操作。
// 行锁读取，持锁期间并发的题目写入与 total_marks 重算被串行化。
func (s *AssessmentService) requireOwnedDraft(tx *gorm.DB, id uint, user *model.User) (*model.Assessment, error) {
	assessment, err := s.AssessmentRepo.FindByIDForUpdate(tx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.CreatorID != user.ID && user.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}
	if assessment.Status != model.AssessmentDraft {
		return nil, util.ErrAssessmentNotAvailable
	}
	return assessment, nil
}

func (s *AssessmentService) AddQuestions(assessmentID uint, user *model.User, inputs []QuestionInput) ([]model.AssessmentQuestion, error) {
	var questions []model.AssessmentQuestion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireOwnedDraft(tx, assessmentID, user); err != nil {
			return err
		}

		var base int64
		if err := tx.Model(&model.AssessmentQuestion{}).
			Where("assessment_id = ?", assessmentID).
			Count(&base).Error; err != nil {
			return err
		}

		questions = make([]model.AssessmentQuestion, 0, len(inputs))
		for i, in := range inputs {
			q, err := buildQuestion(assessmentID, int(base)+i, in)
			if err != nil {
				return err
			}
			questions = append(questions, *q)
		}

		if err := tx.Create(&questions).Error; err != nil {
			return err
		}
		total, err := repository.SumQuestionMarks(tx, assessmentID)
		if err != nil {
			return err
		}
		return tx.Model(&model.Assessment{}).
			Where("id = ?", assessmentID).
			Update("total_marks", total).Error
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *AssessmentService) DeleteQuestion(assessmentID, questionID uint, user *model.User) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.requireOwnedDraft(tx, assessmentID, user); err != nil {
			return err
		}

		var question model.AssessmentQuestion
		if err := tx.First(&question, questionID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return util.ErrQuestionNotFound
			}
			return err
		}
		if question.AssessmentID != assessmentID {
			return util.ErrQuestionNotFound
		}

		if err := tx.Delete(&model.AssessmentQuestion{}, questionID).Error; err != nil {
			return err
		}
		total, err := repository.SumQuestionMarks(tx, assessmentID)
		if err != nil {
			return err
		}
		return tx.Model(&model.Assessment{}).
			Where("id = ?", assessmentID).
			Update("total_marks", total).Error
	})
}

// Publish 将草稿置为已发布，随后异步通知班级成员。
// 通知失败不回滚发布。
func (s *AssessmentService) Publish(assessmentID uint, user *model.User) (*model.Assessment, error) {
	var assessment *model.Assessment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		a, err := s.requireOwnedDraft(tx, assessmentID, user)
		if err != nil {
			return err
		}

		var questionCount int64
		if err := tx.Model(&model.AssessmentQuestion{}).
			Where("assessment_id = ?", assessmentID).
			Count(&questionCount).Error; err != nil {
			return err
		}
		if questionCount == 0 {
			return fmt.Errorf("%w: cannot publish assessment without questions", util.ErrInvalidInput)
		}

		now := time.Now()
		a.Status = model.AssessmentPublished
		a.PublishedAt = &now
		if err := tx.Model(a).Updates(map[string]interface{}{
			"status":       model.AssessmentPublished,
			"published_at": now,
		}).Error; err != nil {
			return err
		}
		assessment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Bus.Publish(events.AssessmentPublished, events.AssessmentPublishedEvent{
		AssessmentID: assessment.ID,
		BatchID:      assessment.BatchID,
		Title:        assessment.Title,
	})
	return assessment, nil
}

func (s *AssessmentService) Close(assessmentID uint, user *model.User) (*model.Assessment, error) {
	assessment, err := s.AssessmentRepo.FindByID(assessmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if assessment.CreatorID != user.ID && user.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}
	if assessment.Status != model.AssessmentPublished {
		return nil, util.ErrAssessmentNotAvailable
	}

	assessment.Status = model.AssessmentClosed
	if err := s.AssessmentRepo.Update(assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}
