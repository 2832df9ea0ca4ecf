package model

const (
	NotificationAssessmentPublished = "assessment_published"
	NotificationAttemptSubmitted    = "attempt_submitted"
)

// swagger:model Notification
type Notification struct {
	UUIDBase

	UserID  uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	Kind    string `gorm:"size:50;not null" json:"kind"`
	Title   string `gorm:"size:255" json:"title"`
	Body    string `gorm:"type:text" json:"body"`
	RefID   string `gorm:"size:36" json:"refId"` // 关联对象 ID（测评或作答记录）
	IsRead  bool   `gorm:"default:false" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}
