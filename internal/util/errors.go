package util

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAssessmentNotFound = errors.New("assessment not found")
	// 测评未发布（draft 或 closed）
	ErrAssessmentNotAvailable = errors.New("assessment not available")
	ErrOutOfWindow            = errors.New("assessment outside its time window")
	ErrAttemptsExhausted      = errors.New("attempt limit reached")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrAlreadySubmitted       = errors.New("attempt already submitted")
	ErrAttemptNotFinalized    = errors.New("attempt not submitted yet")
)
