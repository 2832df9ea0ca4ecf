package repository

import (
	"coaching_backend/internal/model"

	"gorm.io/gorm"
)

type BatchRepository struct {
	DB *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{DB: db}
}

func (r *BatchRepository) FindByID(id uint) (*model.Batch, error) {
	var b model.Batch
	if err := r.DB.First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListMemberUserIDs 取班级全部成员 id，发布通知时做扇出
func (r *BatchRepository) ListMemberUserIDs(batchID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.BatchMember{}).
		Where("batch_id = ?", batchID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *BatchRepository) IsMember(batchID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.BatchMember{}).
		Where("batch_id = ? AND user_id = ?", batchID, userID).
		Count(&count).Error
	return count > 0, err
}
