package model

import (
	"encoding/json"
	"time"
)

type AssessmentStatus string

const (
	AssessmentDraft     AssessmentStatus = "draft"
	AssessmentPublished AssessmentStatus = "published"
	AssessmentClosed    AssessmentStatus = "closed"
)

const (
	QuestionMCQ = "mcq" // 单选题
	QuestionMSQ = "msq" // 多选题
	QuestionNAT = "nat" // 数值题（含容差）
)

// swagger:model Assessment
type Assessment struct {
	BaseModel

	CoachingID uint `gorm:"index;type:bigint unsigned" json:"coachingId"`
	BatchID    uint `gorm:"index;type:bigint unsigned" json:"batchId"`
	CreatorID  uint `gorm:"index;type:bigint unsigned" json:"creatorId"`

	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Status      AssessmentStatus `gorm:"type:enum('draft','published','closed');default:'draft'" json:"status"`

	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes int        `gorm:"default:0" json:"durationMinutes"` // 单次作答时长（分钟），0 表示不限

	MaxAttempts          int     `gorm:"default:1" json:"maxAttempts"`
	NegativeMarkingRatio float64 `gorm:"default:0" json:"negativeMarkingRatio"`
	// 始终等于当前题目分值之和，随题目增删在同一事务内重算
	TotalMarks float64 `gorm:"default:0" json:"totalMarks"`

	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// swagger:model AssessmentQuestion
type AssessmentQuestion struct {
	BaseModel

	AssessmentID uint            `gorm:"index;type:bigint unsigned" json:"assessmentId"`
	QuestionType string          `gorm:"size:20;not null" json:"questionType"` // mcq, msq, nat
	Content      string          `gorm:"type:text;not null" json:"content"`
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"` // 选择题选项（JSON array）
	// 类型标记的标准答案载荷，与 QuestionType 匹配
	CorrectAnswer string  `gorm:"type:json" json:"correctAnswer"`
	Marks         float64 `gorm:"not null" json:"marks"`
	OrderIndex    int     `gorm:"default:0" json:"orderIndex"`
	Explanation   string  `gorm:"type:text" json:"explanation"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}
