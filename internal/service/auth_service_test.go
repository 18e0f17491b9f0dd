package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
	"github.com/horlamiedea/shifta-backend/pkg/jwt"
)

func setupTestAuthService() (*testEnv, AuthService) {
	env := newTestEnv()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, env.repo, jwtMgr, zap.NewNop())
	return env, svc
}

func TestRegisterFacility(t *testing.T) {
	env, svc := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:        "hr@renxin.example.com",
		Password:     "s3cret-pass",
		UserType:     model.RoleFacility,
		FacilityName: "仁心医院",
	})
	if err != nil {
		t.Fatalf("机构注册应成功: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("注册应签发 Token")
	}
	if resp.User.Role != model.RoleFacility {
		t.Errorf("期望角色=facility，实际=%s", resp.User.Role)
	}
	// 新机构默认未核验，需管理员审核
	for _, f := range env.facilities.facilities {
		if f.IsVerified {
			t.Error("新注册机构不应自动核验")
		}
	}
}

func TestRegisterProfessional(t *testing.T) {
	env, svc := setupTestAuthService()

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:       "nurse@example.com",
		Password:    "s3cret-pass",
		UserType:    model.RoleProfessional,
		FullName:    "张护士",
		Specialties: []string{"ICU", "ER"},
	})
	if err != nil {
		t.Fatalf("人员注册应成功: %v", err)
	}
	if len(env.professionals.professionals) != 1 {
		t.Fatalf("应创建 1 条人员档案，实际=%d", len(env.professionals.professionals))
	}
	for _, p := range env.professionals.professionals {
		if p.IsVerified {
			t.Error("新注册人员在证书核验前不应为已核验")
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, svc := setupTestAuthService()

	req := &dto.RegisterRequest{
		Email:        "dup@example.com",
		Password:     "s3cret-pass",
		UserType:     model.RoleFacility,
		FacilityName: "仁心医院",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("首次注册应成功: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("重复邮箱应返回 VALIDATION_ERROR，实际=%v", err)
	}
}

func TestRegisterMissingProfileName(t *testing.T) {
	_, svc := setupTestAuthService()

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "noname@example.com",
		Password: "s3cret-pass",
		UserType: model.RoleFacility,
	})
	if !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("机构注册缺少名称应返回 VALIDATION_ERROR，实际=%v", err)
	}
}

func TestLogin(t *testing.T) {
	_, svc := setupTestAuthService()

	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "nurse@example.com",
		Password: "s3cret-pass",
		UserType: model.RoleProfessional,
		FullName: "张护士",
	}); err != nil {
		t.Fatalf("注册应成功: %v", err)
	}

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nurse@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("登录应成功: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("登录应签发 Token")
	}

	// 错误口令与不存在的邮箱返回同一错误，不泄露账号是否存在
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nurse@example.com", Password: "wrong"}); !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("错误口令应返回 VALIDATION_ERROR，实际=%v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"}); !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("不存在的邮箱应返回 VALIDATION_ERROR，实际=%v", err)
	}
}

func TestVerifyFacility(t *testing.T) {
	env, svc := setupTestAuthService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	facility.IsVerified = false

	if err := svc.VerifyFacility(context.Background(), facility.FacilityID, &dto.VerifyFacilityRequest{
		Tier:        "PREMIUM",
		CreditLimit: "100000",
	}); err != nil {
		t.Fatalf("审核机构应成功: %v", err)
	}

	stored := env.facilities.facilities[facility.FacilityID]
	if !stored.IsVerified || stored.Tier != "PREMIUM" {
		t.Errorf("审核后应为已核验 PREMIUM，实际 verified=%v tier=%s", stored.IsVerified, stored.Tier)
	}
}

func TestUpdateProfessionalCertificateResetsVerification(t *testing.T) {
	env, svc := setupTestAuthService()
	professional := env.seedProfessional("张护士")
	professional.CertificateURL = "https://example.com/old.png"

	newCert := "https://example.com/new.png"
	if err := svc.UpdateProfessional(context.Background(), professional.ProfessionalID, &dto.UpdateProfessionalRequest{
		CertificateURL: &newCert,
	}); err != nil {
		t.Fatalf("更新资料应成功: %v", err)
	}

	stored := env.professionals.professionals[professional.ProfessionalID]
	if stored.IsVerified {
		t.Error("更换证书后核验标记应被重置")
	}
	if stored.CertificateURL != newCert {
		t.Errorf("证书地址应更新，实际=%s", stored.CertificateURL)
	}
}
