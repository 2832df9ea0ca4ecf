package service

import (
	"context"
	"fmt"

	"coaching_backend/internal/model"
	"coaching_backend/internal/repository"
	"coaching_backend/pkg/events"

	"go.uber.org/zap"
)

type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
	BatchRepo        *repository.BatchRepository
	ResultSvc        *ResultService
	Logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, batchRepo *repository.BatchRepository, resultSvc *ResultService, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		NotificationRepo: notificationRepo,
		BatchRepo:        batchRepo,
		ResultSvc:        resultSvc,
		Logger:           logger,
	}
}

// SubscribeTo 挂接事件总线。处理方失败只记日志，不影响发布方。
func (s *NotificationService) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(events.AssessmentPublished, func(data interface{}) {
		ev, ok := data.(events.AssessmentPublishedEvent)
		if !ok {
			return
		}
		s.onAssessmentPublished(ev)
	})
	bus.Subscribe(events.AttemptSubmitted, func(data interface{}) {
		ev, ok := data.(events.AttemptSubmittedEvent)
		if !ok {
			return
		}
		s.onAttemptSubmitted(ev)
	})
}

// onAssessmentPublished 给班级全体成员各落一条站内通知
func (s *NotificationService) onAssessmentPublished(ev events.AssessmentPublishedEvent) {
	userIDs, err := s.BatchRepo.ListMemberUserIDs(ev.BatchID)
	if err != nil {
		s.Logger.Error("failed to list batch members for publish notification",
			zap.Uint("batchId", ev.BatchID),
			zap.Uint("assessmentId", ev.AssessmentID),
			zap.Error(err))
		return
	}

	notifications := make([]model.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, model.Notification{
			UserID: userID,
			Kind:   model.NotificationAssessmentPublished,
			Title:  "新测评已发布",
			Body:   fmt.Sprintf("测评「%s」已发布，请及时作答", ev.Title),
			RefID:  fmt.Sprintf("%d", ev.AssessmentID),
		})
	}
	if err := s.NotificationRepo.CreateBatch(notifications); err != nil {
		s.Logger.Error("failed to create publish notifications",
			zap.Uint("assessmentId", ev.AssessmentID),
			zap.Int("count", len(notifications)),
			zap.Error(err))
	}
}

// onAttemptSubmitted 给学生发成绩通知并失效榜单缓存
func (s *NotificationService) onAttemptSubmitted(ev events.AttemptSubmittedEvent) {
	s.ResultSvc.InvalidateLeaderboard(context.Background(), ev.AssessmentID)

	notification := model.Notification{
		UserID: ev.UserID,
		Kind:   model.NotificationAttemptSubmitted,
		Title:  "作答已提交",
		Body:   fmt.Sprintf("你的作答已判分，得分率 %.2f%%", ev.Percentage),
		RefID:  ev.AttemptID,
	}
	if err := s.NotificationRepo.CreateBatch([]model.Notification{notification}); err != nil {
		s.Logger.Error("failed to create submit notification",
			zap.String("attemptId", ev.AttemptID),
			zap.Error(err))
	}
}

func (s *NotificationService) List(userID uint, page, pageSize int) ([]model.Notification, int64, error) {
	return s.NotificationRepo.ListByUser(userID, page, pageSize)
}

func (s *NotificationService) MarkRead(userID uint, id string) error {
	return s.NotificationRepo.MarkRead(userID, id)
}
