package repository

import (
	"time"

	"coaching_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.AssessmentAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.AssessmentAttempt, error) {
	var a model.AssessmentAttempt
	if err := r.DB.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDForUpdate 行锁读取，提交与开始流程的读改写都走这里
func (r *AttemptRepository) FindByIDForUpdate(tx *gorm.DB, id string) (*model.AssessmentAttempt, error) {
	var a model.AssessmentAttempt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindOpenForUpdate 锁定某学生在某测评下未提交的作答记录（至多一条）
func (r *AttemptRepository) FindOpenForUpdate(tx *gorm.DB, assessmentID, userID uint) (*model.AssessmentAttempt, error) {
	var a model.AssessmentAttempt
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("assessment_id = ? AND user_id = ? AND status = ?",
			assessmentID, userID, model.AttemptInProgress).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) CountSubmitted(tx *gorm.DB, assessmentID, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.AssessmentAttempt{}).
		Where("assessment_id = ? AND user_id = ? AND status = ?",
			assessmentID, userID, model.AttemptSubmitted).
		Count(&count).Error
	return count, err
}

// ListSubmittedRanked 教师榜单：已提交作答按百分比降序，
// 同分按提交时间先后（早者在前），最后按 id 保证全序。
func (r *AttemptRepository) ListSubmittedRanked(assessmentID uint) ([]model.AssessmentAttempt, error) {
	var attempts []model.AssessmentAttempt
	err := r.DB.
		Where("assessment_id = ? AND status = ?", assessmentID, model.AttemptSubmitted).
		Order("percentage DESC, submitted_at ASC, id ASC").
		Find(&attempts).Error
	return attempts, err
}

// UpsertAnswer 以 (attempt_id, question_id) 为键覆盖写，后到的写覆盖先到的。
// 必须在持有 attempt 行锁的事务内调用，保证已提交的作答不再接受写入。
func (r *AttemptRepository) UpsertAnswer(tx *gorm.DB, answer *model.AttemptAnswer) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"raw_answer", "answered_at", "updated_at",
		}),
	}).Create(answer).Error
}

func (r *AttemptRepository) ListAnswers(attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// BulkMarkAnswers 对同一判分结果的一组题目发一条批量更新
func (r *AttemptRepository) BulkMarkAnswers(tx *gorm.DB, attemptID string, questionIDs []uint, isCorrect bool, marksAwarded float64) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return tx.Model(&model.AttemptAnswer{}).
		Where("attempt_id = ? AND question_id IN ?", attemptID, questionIDs).
		Updates(map[string]interface{}{
			"is_correct":    isCorrect,
			"marks_awarded": marksAwarded,
			"updated_at":    time.Now(),
		}).Error
}
