package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 班次状态 ──

const (
	ShiftStatusOpen      = "OPEN"
	ShiftStatusFilled    = "FILLED"
	ShiftStatusCompleted = "COMPLETED"
	ShiftStatusCancelled = "CANCELLED"
)

// ── 申请状态 ──

const (
	ApplicationStatusPending           = "PENDING"
	ApplicationStatusConfirmed         = "CONFIRMED"
	ApplicationStatusRejected          = "REJECTED"
	ApplicationStatusAttendancePending = "ATTENDANCE_PENDING" // 已打卡，待机构确认
	ApplicationStatusInProgress        = "IN_PROGRESS"        // 打卡已确认
	ApplicationStatusCompleted         = "COMPLETED"          // 已签退
	ApplicationStatusCancelled         = "CANCELLED"
)

// IsTerminalApplicationStatus 申请是否处于终态
func IsTerminalApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusRejected, ApplicationStatusCompleted, ApplicationStatusCancelled:
		return true
	}
	return false
}

// Shift 班次表 — 对应 shifts
// QuantityFilled 只能在确认/取消转换内由仓储的容量操作变更，
// 不变量 0 <= quantity_filled <= quantity_needed 由数据库 CHECK 兜底。
type Shift struct {
	ShiftID        string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	FacilityID     string           `gorm:"type:uuid;not null"                             json:"facility_id"`
	Role           string           `gorm:"type:varchar(100);not null"                     json:"role"`      // 如 "Nurse"
	Specialty      string           `gorm:"type:varchar(100);not null"                     json:"specialty"` // 如 "ICU"
	QuantityNeeded int              `gorm:"not null;default:1"                             json:"quantity_needed"`
	QuantityFilled int              `gorm:"not null;default:0"                             json:"quantity_filled"`
	StartTime      time.Time        `gorm:"not null"                                       json:"start_time"`
	EndTime        time.Time        `gorm:"not null"                                       json:"end_time"`
	Rate           decimal.Decimal  `gorm:"type:numeric(10,2);not null"                    json:"rate"` // 每人每小时
	IsNegotiable   bool             `gorm:"not null;default:false"                         json:"is_negotiable"`
	MinRate        *decimal.Decimal `gorm:"type:numeric(10,2)"                             json:"min_rate,omitempty"`
	Address        string           `gorm:"type:text"                                      json:"address,omitempty"`
	Latitude       *float64         `json:"latitude,omitempty"`
	Longitude      *float64         `json:"longitude,omitempty"`
	Status         string           `gorm:"type:varchar(20);not null;default:'OPEN'"       json:"status"`
	BaseModel

	// 关联
	Facility *Facility `gorm:"foreignKey:FacilityID;references:FacilityID" json:"facility,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// ScheduledHours 计划时长（小时），结算的合同基准
func (s *Shift) ScheduledHours() decimal.Decimal {
	return decimal.NewFromFloat(s.EndTime.Sub(s.StartTime).Hours())
}

// ShiftApplication 班次申请表 — 对应 shift_applications
// (shift_id, professional_id) 唯一约束保证同一对至多一条申请记录。
// ClockInTime 仅在机构确认出勤（ATTENDANCE_PENDING → IN_PROGRESS）时写入。
type ShiftApplication struct {
	ApplicationID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"            json:"application_id"`
	ShiftID        string     `gorm:"type:uuid;not null;uniqueIndex:uq_application_shift_professional" json:"shift_id"`
	ProfessionalID string     `gorm:"type:uuid;not null;uniqueIndex:uq_application_shift_professional" json:"professional_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING'"               json:"status"`
	ClockInTime    *time.Time `json:"clock_in_time,omitempty"`
	ClockOutTime   *time.Time `json:"clock_out_time,omitempty"`
	BaseModel

	// 关联
	Shift        *Shift        `gorm:"foreignKey:ShiftID;references:ShiftID"                   json:"shift,omitempty"`
	Professional *Professional `gorm:"foreignKey:ProfessionalID;references:ProfessionalID"     json:"professional,omitempty"`
}

// TableName 指定表名
func (ShiftApplication) TableName() string { return "shift_applications" }

// SavedAddress 机构常用地址表 — 对应 saved_addresses
type SavedAddress struct {
	SavedAddressID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"saved_address_id"`
	FacilityID     string  `gorm:"type:uuid;not null"                             json:"facility_id"`
	Name           string  `gorm:"type:varchar(255);not null"                     json:"name"` // 如 "Main Branch"
	Address        string  `gorm:"type:text;not null"                             json:"address"`
	Latitude       float64 `gorm:"not null"                                       json:"latitude"`
	Longitude      float64 `gorm:"not null"                                       json:"longitude"`
	BaseModel
}

// TableName 指定表名
func (SavedAddress) TableName() string { return "saved_addresses" }

// ── 加时申请状态 ──

const (
	ExtraTimeStatusPending  = "PENDING"
	ExtraTimeStatusApproved = "APPROVED"
	ExtraTimeStatusRejected = "REJECTED"
)

// ExtraTimeRequest 加时申请表 — 对应 extra_time_requests
// 批准为终态且不可逆；已批准的加时按策略决定是否计入结算时长。
type ExtraTimeRequest struct {
	ExtraTimeRequestID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"extra_time_request_id"`
	ApplicationID      string          `gorm:"type:uuid;not null"                             json:"application_id"`
	Hours              decimal.Decimal `gorm:"type:numeric(4,2);not null"                     json:"hours"` // 如 1.5
	Reason             string          `gorm:"type:text;not null"                             json:"reason"`
	Status             string          `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	RequestedBy        string          `gorm:"type:uuid;not null"                             json:"requested_by"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy         *string         `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	BaseModel

	// 关联
	Application *ShiftApplication `gorm:"foreignKey:ApplicationID;references:ApplicationID" json:"application,omitempty"`
}

// TableName 指定表名
func (ExtraTimeRequest) TableName() string { return "extra_time_requests" }

// [自证通过] internal/model/shift.go
