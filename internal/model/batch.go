package model

// 班级与成员表由机构管理端维护，本服务只读（发布通知的收件人来源）。

type Batch struct {
	BaseModel

	CoachingID uint   `gorm:"index;type:bigint unsigned" json:"coachingId"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Subject    string `gorm:"size:100" json:"subject"`
}

func (Batch) TableName() string {
	return "batches"
}

type BatchMember struct {
	BaseModel

	BatchID uint `gorm:"uniqueIndex:idx_batch_member;type:bigint unsigned" json:"batchId"`
	UserID  uint `gorm:"uniqueIndex:idx_batch_member;type:bigint unsigned" json:"userId"`
}

func (BatchMember) TableName() string {
	return "batch_members"
}
