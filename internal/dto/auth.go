package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
// 机构注册需提供 FacilityName，专业人员注册需提供 FullName。
type RegisterRequest struct {
	Email        string   `json:"email"         binding:"required,email"`
	Password     string   `json:"password"      binding:"required,min=8"`
	UserType     string   `json:"user_type"     binding:"required,oneof=facility professional"`
	FacilityName string   `json:"facility_name" binding:"omitempty,min=2,max=255"`
	FullName     string   `json:"full_name"     binding:"omitempty,min=2,max=255"`
	Address      string   `json:"address"       binding:"omitempty,max=1000"`
	Specialties  []string `json:"specialties"   binding:"omitempty,dive,min=1"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyFacilityRequest 管理员审核机构请求
type VerifyFacilityRequest struct {
	Tier        string `json:"tier"         binding:"required,oneof=STANDARD PREMIUM"`
	CreditLimit string `json:"credit_limit" binding:"required"`
}

// UpdateProfessionalRequest 专业人员资料更新请求
// CertificateURL 变化会触发外部证书核验回调。
type UpdateProfessionalRequest struct {
	Specialties    []string `json:"specialties"     binding:"omitempty,dive,min=1"`
	CurrentLat     *float64 `json:"current_lat"     binding:"omitempty,min=-90,max=90"`
	CurrentLng     *float64 `json:"current_lng"     binding:"omitempty,min=-180,max=180"`
	CVURL          *string  `json:"cv_url"`
	CertificateURL *string  `json:"certificate_url"`
}

// AdminVerifyProfessionalRequest 管理员人工核验请求
type AdminVerifyProfessionalRequest struct {
	Approved          bool    `json:"approved"`
	LicenseExpiryDate *string `json:"license_expiry_date" binding:"omitempty,datetime=2006-01-02"`
}

// [自证通过] internal/dto/auth.go
