package model

import "time"

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

// swagger:model AssessmentAttempt
type AssessmentAttempt struct {
	UUIDBase

	AssessmentID uint   `gorm:"index:idx_attempt_assessment_user;type:bigint unsigned" json:"assessmentId"`
	UserID       uint   `gorm:"index:idx_attempt_assessment_user;type:bigint unsigned" json:"userId"`
	Status       string `gorm:"size:20;default:'in_progress'" json:"status"`

	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	TotalScore   float64 `gorm:"default:0" json:"totalScore"`
	MaxScore     float64 `gorm:"default:0" json:"maxScore"`
	Percentage   float64 `gorm:"default:0" json:"percentage"`
	CorrectCount int     `gorm:"default:0" json:"correctCount"`
	WrongCount   int     `gorm:"default:0" json:"wrongCount"`
	SkippedCount int     `gorm:"default:0" json:"skippedCount"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// swagger:model AttemptAnswer
type AttemptAnswer struct {
	UUIDBase

	AttemptID  string `gorm:"uniqueIndex:idx_answer_attempt_question;type:varchar(36)" json:"attemptId"`
	QuestionID uint   `gorm:"uniqueIndex:idx_answer_attempt_question;type:bigint unsigned" json:"questionId"`
	// 类型标记的作答载荷，自动保存时整条覆盖
	RawAnswer  string    `gorm:"type:json" json:"rawAnswer"`
	AnsweredAt time.Time `json:"answeredAt"`

	// 判分前为 null，提交判分后批量回填
	IsCorrect    *bool    `json:"isCorrect,omitempty"`
	MarksAwarded *float64 `json:"marksAwarded,omitempty"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
