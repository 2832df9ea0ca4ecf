package repository

import (
	"coaching_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDForUpdate 行锁读取，题目增删与发布的读改写都走这里，
// 串行化并发的 total_marks 重算
func (r *AssessmentRepository) FindByIDForUpdate(tx *gorm.DB, id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssessmentRepository) Update(a *model.Assessment) error {
	return r.DB.Save(a).Error
}

func (r *AssessmentRepository) ListByCreator(creatorID uint, page, limit int) ([]model.Assessment, int64, error) {
	var items []model.Assessment
	var total int64

	q := r.DB.Model(&model.Assessment{}).Where("creator_id = ?", creatorID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

// ListPublishedForBatch 学生端列表：只含已发布的测评
func (r *AssessmentRepository) ListPublishedForBatch(batchID uint, page, limit int) ([]model.Assessment, int64, error) {
	var items []model.Assessment
	var total int64

	q := r.DB.Model(&model.Assessment{}).
		Where("batch_id = ? AND status = ?", batchID, model.AssessmentPublished)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("published_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *AssessmentRepository) CreateQuestions(questions []model.AssessmentQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Create(&questions).Error
}

func (r *AssessmentRepository) FindQuestionByID(id uint) (*model.AssessmentQuestion, error) {
	var q model.AssessmentQuestion
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *AssessmentRepository) ListQuestions(assessmentID uint) ([]model.AssessmentQuestion, error) {
	var questions []model.AssessmentQuestion
	err := r.DB.Where("assessment_id = ?", assessmentID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// SumQuestionMarks 在当前事务内汇总题目分值，用于重算 total_marks
func SumQuestionMarks(tx *gorm.DB, assessmentID uint) (float64, error) {
	var sum float64
	err := tx.Model(&model.AssessmentQuestion{}).
		Where("assessment_id = ?", assessmentID).
		Select("COALESCE(SUM(marks), 0)").
		Scan(&sum).Error
	return sum, err
}
