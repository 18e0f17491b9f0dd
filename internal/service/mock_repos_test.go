package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/horlamiedea/shifta-backend/config"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/internal/repository"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock FacilityRepository ──

type mockFacilityRepo struct {
	facilities map[string]*model.Facility
	addresses  map[string]*model.SavedAddress
	seq        int
}

func newMockFacilityRepo() *mockFacilityRepo {
	return &mockFacilityRepo{
		facilities: make(map[string]*model.Facility),
		addresses:  make(map[string]*model.SavedAddress),
	}
}

func (m *mockFacilityRepo) Create(_ context.Context, facility *model.Facility) error {
	if facility.FacilityID == "" {
		m.seq++
		facility.FacilityID = fmt.Sprintf("fac-%03d", m.seq)
	}
	m.facilities[facility.FacilityID] = facility
	return nil
}

func (m *mockFacilityRepo) GetByID(_ context.Context, id string) (*model.Facility, error) {
	if f, ok := m.facilities[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacilityRepo) GetByUserID(_ context.Context, userID string) (*model.Facility, error) {
	for _, f := range m.facilities {
		if f.UserID == userID {
			copied := *f
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacilityRepo) GetForUpdate(ctx context.Context, id string) (*model.Facility, error) {
	return m.GetByID(ctx, id)
}

func (m *mockFacilityRepo) Update(_ context.Context, facility *model.Facility) error {
	m.facilities[facility.FacilityID] = facility
	return nil
}

func (m *mockFacilityRepo) List(_ context.Context) ([]model.Facility, error) {
	ids := make([]string, 0, len(m.facilities))
	for id := range m.facilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]model.Facility, 0, len(ids))
	for _, id := range ids {
		result = append(result, *m.facilities[id])
	}
	return result, nil
}

func (m *mockFacilityRepo) CreateSavedAddress(_ context.Context, address *model.SavedAddress) error {
	if address.SavedAddressID == "" {
		address.SavedAddressID = fmt.Sprintf("addr-%s", address.Name)
	}
	m.addresses[address.SavedAddressID] = address
	return nil
}

func (m *mockFacilityRepo) ListSavedAddresses(_ context.Context, facilityID string) ([]model.SavedAddress, error) {
	var result []model.SavedAddress
	for _, a := range m.addresses {
		if a.FacilityID == facilityID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockFacilityRepo) DeleteSavedAddress(_ context.Context, id, facilityID string) (bool, error) {
	if a, ok := m.addresses[id]; ok && a.FacilityID == facilityID {
		delete(m.addresses, id)
		return true, nil
	}
	return false, nil
}

// ── Mock ProfessionalRepository ──

type mockProfessionalRepo struct {
	professionals map[string]*model.Professional
	seq           int
}

func newMockProfessionalRepo() *mockProfessionalRepo {
	return &mockProfessionalRepo{professionals: make(map[string]*model.Professional)}
}

func (m *mockProfessionalRepo) Create(_ context.Context, professional *model.Professional) error {
	if professional.ProfessionalID == "" {
		m.seq++
		professional.ProfessionalID = fmt.Sprintf("pro-%03d", m.seq)
	}
	m.professionals[professional.ProfessionalID] = professional
	return nil
}

func (m *mockProfessionalRepo) GetByID(_ context.Context, id string) (*model.Professional, error) {
	if p, ok := m.professionals[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessionalRepo) GetByUserID(_ context.Context, userID string) (*model.Professional, error) {
	for _, p := range m.professionals {
		if p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessionalRepo) GetForUpdate(ctx context.Context, id string) (*model.Professional, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProfessionalRepo) Update(_ context.Context, professional *model.Professional) error {
	m.professionals[professional.ProfessionalID] = professional
	return nil
}

func (m *mockProfessionalRepo) ListVerifiedWithExpiredLicense(_ context.Context, asOf time.Time) ([]model.Professional, error) {
	var result []model.Professional
	for _, p := range m.professionals {
		if p.IsVerified && p.LicenseExpiryDate != nil && p.LicenseExpiryDate.Before(asOf) {
			result = append(result, *p)
		}
	}
	return result, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts     map[string]*model.Shift
	facilities *mockFacilityRepo
	seq        int
}

func newMockShiftRepo(facilities *mockFacilityRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), facilities: facilities}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		m.seq++
		shift.ShiftID = fmt.Sprintf("shift-%03d", m.seq)
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 返回快照，调用方看到的是取数时刻的行，与数据库语义一致
	copied := *s
	// 模拟 Preload("Facility")
	if m.facilities != nil {
		if f, ok := m.facilities.facilities[s.FacilityID]; ok {
			copied.Facility = f
		}
	}
	return &copied, nil
}

func (m *mockShiftRepo) GetForUpdate(ctx context.Context, id string) (*model.Shift, error) {
	return m.GetByID(ctx, id)
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) UpdateStatus(_ context.Context, id, status string) error {
	if s, ok := m.shifts[id]; ok {
		s.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) IncrementFilled(_ context.Context, id string) (bool, error) {
	s, ok := m.shifts[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if s.QuantityFilled >= s.QuantityNeeded {
		return false, nil
	}
	s.QuantityFilled++
	return true, nil
}

func (m *mockShiftRepo) DecrementFilled(_ context.Context, id string) (bool, error) {
	s, ok := m.shifts[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if s.QuantityFilled <= 0 {
		return false, nil
	}
	s.QuantityFilled--
	return true, nil
}

func (m *mockShiftRepo) ListOpen(_ context.Context, specialty string, _, _ int) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.Status != model.ShiftStatusOpen {
			continue
		}
		if specialty != "" && s.Specialty != specialty {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockShiftRepo) ListByFacility(_ context.Context, facilityID string, _, _ int) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.FacilityID == facilityID {
			result = append(result, *s)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockShiftRepo) ListCalendar(_ context.Context, facilityID string, dateStart, dateEnd time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.FacilityID == facilityID && !s.StartTime.Before(dateStart) && s.StartTime.Before(dateEnd) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListConfirmedForProfessional(_ context.Context, _ string, _, _ time.Time) ([]model.Shift, error) {
	return nil, nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	applications  map[string]*model.ShiftApplication
	shifts        *mockShiftRepo
	professionals *mockProfessionalRepo
	wallet        *mockWalletRepo
	seq           int
}

func newMockApplicationRepo(shifts *mockShiftRepo, professionals *mockProfessionalRepo) *mockApplicationRepo {
	return &mockApplicationRepo{
		applications:  make(map[string]*model.ShiftApplication),
		shifts:        shifts,
		professionals: professionals,
	}
}

func (m *mockApplicationRepo) Create(_ context.Context, application *model.ShiftApplication) error {
	// 模拟 (shift_id, professional_id) 唯一约束
	for _, a := range m.applications {
		if a.ShiftID == application.ShiftID && a.ProfessionalID == application.ProfessionalID {
			return gorm.ErrDuplicatedKey
		}
	}
	if application.ApplicationID == "" {
		m.seq++
		application.ApplicationID = fmt.Sprintf("app-%03d", m.seq)
	}
	m.applications[application.ApplicationID] = application
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.ShiftApplication, error) {
	a, ok := m.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	// 模拟 Preload("Shift") / Preload("Professional")
	if m.shifts != nil {
		if s, ok := m.shifts.shifts[a.ShiftID]; ok {
			copied.Shift = s
		}
	}
	if m.professionals != nil {
		if p, ok := m.professionals.professionals[a.ProfessionalID]; ok {
			copied.Professional = p
		}
	}
	return &copied, nil
}

func (m *mockApplicationRepo) GetForUpdate(_ context.Context, id string) (*model.ShiftApplication, error) {
	if a, ok := m.applications[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) GetByShiftAndProfessional(_ context.Context, shiftID, professionalID string) (*model.ShiftApplication, error) {
	for _, a := range m.applications {
		if a.ShiftID == shiftID && a.ProfessionalID == professionalID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) Update(_ context.Context, application *model.ShiftApplication) error {
	m.applications[application.ApplicationID] = application
	return nil
}

func (m *mockApplicationRepo) UpdateStatusCAS(_ context.Context, id, fromStatus, toStatus string) (bool, error) {
	a, ok := m.applications[id]
	if !ok || a.Status != fromStatus {
		return false, nil
	}
	a.Status = toStatus
	return true, nil
}

func (m *mockApplicationRepo) SetClockIn(_ context.Context, id string, at time.Time) error {
	if a, ok := m.applications[id]; ok {
		a.ClockInTime = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) SetClockOut(_ context.Context, id string, at time.Time) error {
	if a, ok := m.applications[id]; ok {
		a.ClockOutTime = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByShift(_ context.Context, shiftID string, statuses []string) ([]model.ShiftApplication, error) {
	var result []model.ShiftApplication
	for _, a := range m.applications {
		if a.ShiftID != shiftID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if a.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		copied := *a
		if m.professionals != nil {
			if p, ok := m.professionals.professionals[a.ProfessionalID]; ok {
				copied.Professional = p
			}
		}
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockApplicationRepo) ListByProfessional(_ context.Context, professionalID string, _, _ int) ([]model.ShiftApplication, int64, error) {
	var result []model.ShiftApplication
	for _, a := range m.applications {
		if a.ProfessionalID == professionalID {
			result = append(result, *a)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockApplicationRepo) ListUnsettledCompleted(_ context.Context, limit int) ([]model.ShiftApplication, error) {
	ids := make([]string, 0, len(m.applications))
	for id, a := range m.applications {
		if a.Status == model.ApplicationStatusCompleted {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var result []model.ShiftApplication
	for _, id := range ids {
		settled := false
		if m.wallet != nil {
			for _, txn := range m.wallet.transactions {
				if txn.Reference == "PAYOUT-"+id && txn.Status == model.TransactionStatusSuccess {
					settled = true
					break
				}
			}
		}
		if settled {
			continue
		}
		result = append(result, *m.applications[id])
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// ── Mock WalletRepository ──

type mockWalletRepo struct {
	facilities    *mockFacilityRepo
	professionals *mockProfessionalRepo
	shifts        *mockShiftRepo
	transactions  []*model.Transaction
	adminLogs     []*model.AdminWalletLog
	invoices      map[string]*model.Invoice
}

func newMockWalletRepo(facilities *mockFacilityRepo, professionals *mockProfessionalRepo) *mockWalletRepo {
	return &mockWalletRepo{
		facilities:    facilities,
		professionals: professionals,
		invoices:      make(map[string]*model.Invoice),
	}
}

func (m *mockWalletRepo) CreditFacility(_ context.Context, facilityID string, amount decimal.Decimal) error {
	f, ok := m.facilities.facilities[facilityID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.WalletBalance = f.WalletBalance.Add(amount)
	return nil
}

func (m *mockWalletRepo) DebitFacility(_ context.Context, facilityID string, amount decimal.Decimal) (bool, error) {
	f, ok := m.facilities.facilities[facilityID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if f.WalletBalance.LessThan(amount) {
		return false, nil
	}
	f.WalletBalance = f.WalletBalance.Sub(amount)
	return true, nil
}

func (m *mockWalletRepo) CreditProfessional(_ context.Context, professionalID string, amount decimal.Decimal) error {
	p, ok := m.professionals.professionals[professionalID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.WalletBalance = p.WalletBalance.Add(amount)
	return nil
}

func (m *mockWalletRepo) DebitProfessional(_ context.Context, professionalID string, amount decimal.Decimal) (bool, error) {
	p, ok := m.professionals.professionals[professionalID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if p.WalletBalance.LessThan(amount) {
		return false, nil
	}
	p.WalletBalance = p.WalletBalance.Sub(amount)
	return true, nil
}

func (m *mockWalletRepo) AppendTransaction(_ context.Context, txn *model.Transaction) error {
	for _, t := range m.transactions {
		if t.Reference == txn.Reference {
			return errors.DuplicateReference("流水引用已存在: %s", txn.Reference)
		}
	}
	if txn.TransactionID == "" {
		txn.TransactionID = fmt.Sprintf("txn-%03d", len(m.transactions)+1)
	}
	txn.CreatedAt = time.Now()
	m.transactions = append(m.transactions, txn)
	return nil
}

func (m *mockWalletRepo) HasSuccessfulPayout(_ context.Context, userID, shiftID string) (bool, error) {
	for _, t := range m.transactions {
		if t.UserID == userID && t.ShiftID != nil && *t.ShiftID == shiftID &&
			t.TransactionType == model.TransactionTypePayout && t.Status == model.TransactionStatusSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWalletRepo) ListTransactionsByUser(_ context.Context, userID string, _, _ int) ([]model.Transaction, int64, error) {
	var result []model.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			result = append(result, *t)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockWalletRepo) ListAllTransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	result, _, err := m.ListTransactionsByUser(ctx, userID, 0, 0)
	return result, err
}

func (m *mockWalletRepo) SumFacilityPayouts(_ context.Context, facilityID string, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.transactions {
		if t.TransactionType != model.TransactionTypePayout || t.Status != model.TransactionStatusSuccess {
			continue
		}
		if t.ShiftID == nil || m.shifts == nil {
			continue
		}
		shift, ok := m.shifts.shifts[*t.ShiftID]
		if !ok || shift.FacilityID != facilityID {
			continue
		}
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (m *mockWalletRepo) CreateAdminLog(_ context.Context, log *model.AdminWalletLog) error {
	m.adminLogs = append(m.adminLogs, log)
	return nil
}

func (m *mockWalletRepo) CreateInvoice(_ context.Context, invoice *model.Invoice) error {
	if invoice.InvoiceID == "" {
		invoice.InvoiceID = fmt.Sprintf("inv-%03d", len(m.invoices)+1)
	}
	m.invoices[invoice.InvoiceID] = invoice
	return nil
}

func (m *mockWalletRepo) GetInvoiceByFacilityAndMonth(_ context.Context, facilityID string, month time.Time) (*model.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.FacilityID == facilityID && inv.Month.Equal(month) {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWalletRepo) ListInvoicesByFacility(_ context.Context, facilityID string) ([]model.Invoice, error) {
	var result []model.Invoice
	for _, inv := range m.invoices {
		if inv.FacilityID == facilityID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

// ── Mock ExtraTimeRepository ──

type mockExtraTimeRepo struct {
	requests map[string]*model.ExtraTimeRequest
	seq      int
}

func newMockExtraTimeRepo() *mockExtraTimeRepo {
	return &mockExtraTimeRepo{requests: make(map[string]*model.ExtraTimeRequest)}
}

func (m *mockExtraTimeRepo) Create(_ context.Context, request *model.ExtraTimeRequest) error {
	if request.ExtraTimeRequestID == "" {
		m.seq++
		request.ExtraTimeRequestID = fmt.Sprintf("et-%03d", m.seq)
	}
	m.requests[request.ExtraTimeRequestID] = request
	return nil
}

func (m *mockExtraTimeRepo) GetByID(_ context.Context, id string) (*model.ExtraTimeRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExtraTimeRepo) GetForUpdate(ctx context.Context, id string) (*model.ExtraTimeRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockExtraTimeRepo) Update(_ context.Context, request *model.ExtraTimeRequest) error {
	m.requests[request.ExtraTimeRequestID] = request
	return nil
}

func (m *mockExtraTimeRepo) ListByApplication(_ context.Context, applicationID string) ([]model.ExtraTimeRequest, error) {
	var result []model.ExtraTimeRequest
	for _, r := range m.requests {
		if r.ApplicationID == applicationID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockExtraTimeRepo) SumApprovedHours(_ context.Context, applicationID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range m.requests {
		if r.ApplicationID == applicationID && r.Status == model.ExtraTimeStatusApproved {
			sum = sum.Add(r.Hours)
		}
	}
	return sum, nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	reviews []*model.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	if review.ReviewID == "" {
		review.ReviewID = fmt.Sprintf("rev-%03d", len(m.reviews)+1)
	}
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockReviewRepo) ListByTarget(_ context.Context, targetUserID string, _, _ int) ([]model.Review, int64, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.TargetUserID == targetUserID {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockReviewRepo) AverageRating(_ context.Context, targetUserID string) (float64, error) {
	total, count := 0, 0
	for _, r := range m.reviews {
		if r.TargetUserID == targetUserID {
			total += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(total) / float64(count), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	failCreate    bool // 置 true 模拟通知写入失败
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if m.failCreate {
		return fmt.Errorf("通知存储不可用")
	}
	if notification.NotificationID == "" {
		notification.NotificationID = fmt.Sprintf("ntf-%03d", len(m.notifications)+1)
	}
	m.notifications = append(m.notifications, notification)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, *n)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for _, n := range m.notifications {
		if n.NotificationID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ── Mock PolicyRepository ──

type mockPolicyRepo struct {
	policy *model.SettlementPolicy
}

func newMockPolicyRepo() *mockPolicyRepo {
	return &mockPolicyRepo{
		policy: &model.SettlementPolicy{
			PolicyID:                "policy-001",
			AttendanceRadiusM:       200,
			CancelCutoffHours:       4,
			FacilityPenaltyRate:     decimal.NewFromFloat(0.10),
			CompensationRate:        decimal.NewFromFloat(0.03),
			ExtraTimeInPayout:       false,
			ReviewAttribution:       model.ReviewAttributionFacility,
			LateCancelReviewComment: "Automatic review: Late cancellation.",
		},
	}
}

func (m *mockPolicyRepo) Get(_ context.Context) (*model.SettlementPolicy, error) {
	if m.policy == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.policy, nil
}

func (m *mockPolicyRepo) Update(_ context.Context, policy *model.SettlementPolicy) error {
	m.policy = policy
	return nil
}

// ── 测试夹具 ──

// testEnv 聚合全部内存仓储与一个 db 为 nil 的仓储入口（Atomic 退化为直接执行）。
type testEnv struct {
	users         *mockUserRepo
	facilities    *mockFacilityRepo
	professionals *mockProfessionalRepo
	shifts        *mockShiftRepo
	applications  *mockApplicationRepo
	wallet        *mockWalletRepo
	extraTime     *mockExtraTimeRepo
	reviews       *mockReviewRepo
	notifications *mockNotificationRepo
	policies      *mockPolicyRepo
	repo          *repository.Repository
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	facilities := newMockFacilityRepo()
	professionals := newMockProfessionalRepo()
	shifts := newMockShiftRepo(facilities)
	applications := newMockApplicationRepo(shifts, professionals)
	wallet := newMockWalletRepo(facilities, professionals)
	wallet.shifts = shifts
	applications.wallet = wallet
	extraTime := newMockExtraTimeRepo()
	reviews := newMockReviewRepo()
	notifications := newMockNotificationRepo()
	policies := newMockPolicyRepo()

	return &testEnv{
		users:         users,
		facilities:    facilities,
		professionals: professionals,
		shifts:        shifts,
		applications:  applications,
		wallet:        wallet,
		extraTime:     extraTime,
		reviews:       reviews,
		notifications: notifications,
		policies:      policies,
		repo: &repository.Repository{
			User:         users,
			Facility:     facilities,
			Professional: professionals,
			Shift:        shifts,
			Application:  applications,
			Wallet:       wallet,
			ExtraTime:    extraTime,
			Review:       reviews,
			Notification: notifications,
			Policy:       policies,
		},
	}
}

func (e *testEnv) notifier() NotificationService {
	return NewNotificationService(e.repo, zap.NewNop())
}

func (e *testEnv) policyService() PolicyService {
	return NewPolicyService(&config.ShiftConfig{}, e.repo, zap.NewNop())
}

func (e *testEnv) billingService() BillingService {
	return NewBillingService(e.repo, e.policyService(), e.notifier(), zap.NewNop())
}

// seedFacility 注入已核验机构及其账号
func (e *testEnv) seedFacility(name string, balance decimal.Decimal) *model.Facility {
	user := &model.User{Email: name + "@example.com", Password: "hash", Role: model.RoleFacility}
	_ = e.users.Create(context.Background(), user)
	facility := &model.Facility{
		UserID:        user.UserID,
		Name:          name,
		IsVerified:    true,
		WalletBalance: balance,
	}
	_ = e.facilities.Create(context.Background(), facility)
	return facility
}

// seedProfessional 注入已核验专业人员及其账号
func (e *testEnv) seedProfessional(name string) *model.Professional {
	user := &model.User{Email: name + "@example.com", Password: "hash", Role: model.RoleProfessional}
	_ = e.users.Create(context.Background(), user)
	professional := &model.Professional{
		UserID:        user.UserID,
		FullName:      name,
		IsVerified:    true,
		WalletBalance: decimal.Zero,
	}
	_ = e.professionals.Create(context.Background(), professional)
	return professional
}

// seedShift 注入 OPEN 班次，时薪与计划时段由调用方给定
func (e *testEnv) seedShift(facilityID string, needed int, rate decimal.Decimal, start time.Time, hours int) *model.Shift {
	shift := &model.Shift{
		FacilityID:     facilityID,
		Role:           "Nurse",
		Specialty:      "ICU",
		QuantityNeeded: needed,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(hours) * time.Hour),
		Rate:           rate,
		Status:         model.ShiftStatusOpen,
	}
	_ = e.shifts.Create(context.Background(), shift)
	return shift
}

// seedApplication 注入指定状态的班次申请
func (e *testEnv) seedApplication(shiftID, professionalID, status string) *model.ShiftApplication {
	application := &model.ShiftApplication{
		ShiftID:        shiftID,
		ProfessionalID: professionalID,
		Status:         status,
	}
	_ = e.applications.Create(context.Background(), application)
	return application
}

