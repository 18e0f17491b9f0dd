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

// CancellationService 取消与罚则业务接口
// 两条互斥路径：机构按人取消（罚则 + 补偿 + 退款），专业人员自行取消（迟到则自动差评）。
// 容量回退、账本写入、状态变更在同一事务内全部生效或全部回滚。
type CancellationService interface {
	// FacilityCancel 机构移除已确认的专业人员，仅在其尚未出勤（clock_in_time 为空）时允许。
	// total = rate × 计划时长；留存 penalty_rate，补偿 compensation_rate 给人员，
	// 其余 (1 − penalty_rate) 退回机构钱包。
	FacilityCancel(ctx context.Context, facilityID, shiftID string, req *dto.FacilityCancelRequest) error
	// ProfessionalCancel 专业人员撤回/取消自己的申请。
	// PENDING 直接撤回无后果；CONFIRMED 取消时若已过 start − cutoff 则自动生成 1 星差评。
	ProfessionalCancel(ctx context.Context, professionalID, applicationID string) error
}

type cancellationService struct {
	repo     *repository.Repository
	policy   PolicyService
	notifier NotificationService
	logger   *zap.Logger
}

// NewCancellationService 创建 CancellationService 实例
func NewCancellationService(repo *repository.Repository, policy PolicyService, notifier NotificationService, logger *zap.Logger) CancellationService {
	return &cancellationService{repo: repo, policy: policy, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 机构取消
// ════════════════════════════════════════════════════════════

func (s *cancellationService) FacilityCancel(ctx context.Context, facilityID, shiftID string, req *dto.FacilityCancelRequest) error {
	policy, err := s.policy.Current(ctx)
	if err != nil {
		return err
	}

	var professionalUserID, shiftRole string
	var compensation decimal.Decimal

	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		shift, err := tx.Shift.GetForUpdate(ctx, shiftID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("班次不存在")
			}
			return err
		}
		if shift.FacilityID != facilityID {
			return errors.PermissionDenied("只有发布机构可取消该班次的人员")
		}

		application, err := tx.Application.GetByShiftAndProfessional(ctx, shiftID, req.ProfessionalID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("该人员没有此班次的申请")
			}
			return err
		}
		if application.Status != model.ApplicationStatusConfirmed {
			return errors.InvalidState("仅可取消已确认的人员: %s", application.Status)
		}
		// 已到场打卡的人员不可被移除
		if application.ClockInTime != nil {
			return errors.InvalidState("人员已出勤，不能取消")
		}

		ok, err := tx.Application.UpdateStatusCAS(ctx, application.ApplicationID,
			model.ApplicationStatusConfirmed, model.ApplicationStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidState("申请已被其他操作处理")
		}

		// 名额回退并重新开放
		if _, err := tx.Shift.DecrementFilled(ctx, shiftID); err != nil {
			return err
		}
		if shift.Status == model.ShiftStatusFilled {
			if err := tx.Shift.UpdateStatus(ctx, shiftID, model.ShiftStatusOpen); err != nil {
				return err
			}
		}

		// 罚则拆分：penalty 留存，compensation 给人员，其余退回机构
		total := shift.Rate.Mul(shift.ScheduledHours())
		refund := total.Mul(decimal.NewFromInt(1).Sub(policy.FacilityPenaltyRate)).Round(2)
		compensation = total.Mul(policy.CompensationRate).Round(2)

		// 钱包锁序固定：机构先于专业人员
		facility, err := tx.Facility.GetForUpdate(ctx, facilityID)
		if err != nil {
			return err
		}
		professional, err := tx.Professional.GetForUpdate(ctx, req.ProfessionalID)
		if err != nil {
			return err
		}

		if err := tx.Wallet.CreditFacility(ctx, facility.FacilityID, refund); err != nil {
			return err
		}
		refundTxn := &model.Transaction{
			UserID:          facility.UserID,
			Amount:          refund,
			TransactionType: model.TransactionTypeRefund,
			Reference:       fmt.Sprintf("REFUND-%s", application.ApplicationID),
			Status:          model.TransactionStatusSuccess,
			ShiftID:         &shiftID,
		}
		if err := tx.Wallet.AppendTransaction(ctx, refundTxn); err != nil {
			return err
		}

		if err := tx.Wallet.CreditProfessional(ctx, professional.ProfessionalID, compensation); err != nil {
			return err
		}
		compTxn := &model.Transaction{
			UserID:          professional.UserID,
			Amount:          compensation,
			TransactionType: model.TransactionTypePayout,
			Reference:       fmt.Sprintf("COMP-%s", application.ApplicationID),
			Status:          model.TransactionStatusSuccess,
			ShiftID:         &shiftID,
		}
		if err := tx.Wallet.AppendTransaction(ctx, compTxn); err != nil {
			return err
		}

		professionalUserID = professional.UserID
		shiftRole = shift.Role
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Emit(ctx, professionalUserID,
		"班次已被取消",
		fmt.Sprintf("机构取消了您在 %s 班次的安排，补偿 %s 已到账", shiftRole, compensation.String()),
		model.NotificationTypeCancelled,
		&shiftID,
		map[string]interface{}{"shift_id": shiftID, "compensation": compensation.String()},
	)
	s.logger.Info("机构取消完成",
		zap.String("shift_id", shiftID),
		zap.String("professional_id", req.ProfessionalID),
		zap.String("compensation", compensation.String()),
	)
	return nil
}

// ════════════════════════════════════════════════════════════
// 专业人员取消
// ════════════════════════════════════════════════════════════

func (s *cancellationService) ProfessionalCancel(ctx context.Context, professionalID, applicationID string) error {
	policy, err := s.policy.Current(ctx)
	if err != nil {
		return err
	}

	var facilityUserID, shiftRole, professionalName string
	var lateCancel bool

	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		application, err := tx.Application.GetForUpdate(ctx, applicationID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("申请不存在")
			}
			return err
		}
		if application.ProfessionalID != professionalID {
			return errors.PermissionDenied("只能取消自己的申请")
		}

		switch application.Status {
		case model.ApplicationStatusPending:
			// 确认前撤回，无任何后果，不动容量
			ok, err := tx.Application.UpdateStatusCAS(ctx, applicationID,
				model.ApplicationStatusPending, model.ApplicationStatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				return errors.InvalidState("申请已被其他操作处理")
			}
			return nil

		case model.ApplicationStatusConfirmed:
			shift, err := tx.Shift.GetForUpdate(ctx, application.ShiftID)
			if err != nil {
				return err
			}

			ok, err := tx.Application.UpdateStatusCAS(ctx, applicationID,
				model.ApplicationStatusConfirmed, model.ApplicationStatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				return errors.InvalidState("申请已被其他操作处理")
			}

			if _, err := tx.Shift.DecrementFilled(ctx, shift.ShiftID); err != nil {
				return err
			}
			if shift.Status == model.ShiftStatusFilled {
				if err := tx.Shift.UpdateStatus(ctx, shift.ShiftID, model.ShiftStatusOpen); err != nil {
					return err
				}
			}

			facility, err := tx.Facility.GetByID(ctx, shift.FacilityID)
			if err != nil {
				return err
			}
			professional, err := tx.Professional.GetByID(ctx, professionalID)
			if err != nil {
				return err
			}
			facilityUserID = facility.UserID
			shiftRole = shift.Role
			professionalName = professional.FullName

			// 迟到取消：过了 start − cutoff 自动生成 1 星差评
			cutoff := shift.StartTime.Add(-time.Duration(policy.CancelCutoffHours) * time.Hour)
			if time.Now().After(cutoff) {
				lateCancel = true
				review := &model.Review{
					TargetUserID: professional.UserID,
					Rating:       1,
					Comment:      policy.LateCancelReviewComment,
				}
				// 署名策略：facility 署名机构账号，system 留空表示系统
				if policy.ReviewAttribution == model.ReviewAttributionFacility {
					review.ReviewerID = &facility.UserID
				}
				if err := tx.Review.Create(ctx, review); err != nil {
					return err
				}
			}
			return nil

		default:
			return errors.InvalidState("当前状态不允许取消: %s", application.Status)
		}
	})
	if err != nil {
		return err
	}

	if facilityUserID != "" {
		s.notifier.Emit(ctx, facilityUserID,
			"人员取消班次",
			fmt.Sprintf("%s 取消了 %s 班次的安排", professionalName, shiftRole),
			model.NotificationTypeCancelled,
			&applicationID,
			map[string]interface{}{"application_id": applicationID, "late": lateCancel},
		)
	}
	s.logger.Info("专业人员取消完成",
		zap.String("application_id", applicationID),
		zap.Bool("late_cancel", lateCancel),
	)
	return nil
}

// [自证通过] internal/service/cancellation_service.go
