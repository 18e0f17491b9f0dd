package model

import "github.com/shopspring/decimal"

// ── 差评署名策略 ──

const (
	ReviewAttributionFacility = "facility"
	ReviewAttributionSystem   = "system"
)

// SettlementPolicy 结算策略单行配置表 — 对应 settlement_policies
// 管理员可改；取消/出勤/结算操作在各自事务内读取当前策略。
type SettlementPolicy struct {
	PolicyID                string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"policy_id"`
	AttendanceRadiusM       float64         `gorm:"not null;default:200"                           json:"attendance_radius_m"`
	CancelCutoffHours       int             `gorm:"not null;default:4"                             json:"cancel_cutoff_hours"`
	FacilityPenaltyRate     decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0.10"        json:"facility_penalty_rate"`
	CompensationRate        decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0.03"        json:"compensation_rate"`
	ExtraTimeInPayout       bool            `gorm:"not null;default:false"                         json:"extra_time_in_payout"`
	ReviewAttribution       string          `gorm:"type:varchar(20);not null;default:'facility'"   json:"review_attribution"` // facility | system
	LateCancelReviewComment string          `gorm:"type:text;not null"                             json:"late_cancel_review_comment"`
	BaseModel
}

// TableName 指定表名
func (SettlementPolicy) TableName() string { return "settlement_policies" }

// [自证通过] internal/model/policy.go
