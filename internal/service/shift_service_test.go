package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/horlamiedea/shifta-backend/internal/dto"
	"github.com/horlamiedea/shifta-backend/internal/model"
	"github.com/horlamiedea/shifta-backend/pkg/errors"
)

func setupTestShiftService() (*testEnv, ShiftService) {
	env := newTestEnv()
	svc := NewShiftService(env.repo, nil, env.notifier(), zap.NewNop())
	return env, svc
}

func TestShiftCreate(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)

	start := time.Now().Add(48 * time.Hour)
	resp, err := svc.Create(context.Background(), facility.FacilityID, &dto.CreateShiftRequest{
		Role:           "Nurse",
		Specialty:      "ICU",
		QuantityNeeded: 2,
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		Rate:           "1000",
	})
	if err != nil {
		t.Fatalf("创建班次应成功: %v", err)
	}
	if resp.Status != model.ShiftStatusOpen {
		t.Errorf("期望新班次状态=OPEN，实际=%s", resp.Status)
	}
	if resp.QuantityFilled != 0 {
		t.Errorf("期望 quantity_filled=0，实际=%d", resp.QuantityFilled)
	}
}

func TestShiftCreateUnverifiedFacility(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("待审核诊所", decimal.Zero)
	facility.IsVerified = false

	start := time.Now().Add(48 * time.Hour)
	_, err := svc.Create(context.Background(), facility.FacilityID, &dto.CreateShiftRequest{
		Role:           "Nurse",
		Specialty:      "ICU",
		QuantityNeeded: 1,
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		Rate:           "1000",
	})
	if !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("未审核机构发布班次应返回 PERMISSION_DENIED，实际=%v", err)
	}
}

func TestShiftCreateInvalidTimes(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)

	start := time.Now().Add(48 * time.Hour)
	_, err := svc.Create(context.Background(), facility.FacilityID, &dto.CreateShiftRequest{
		Role:           "Nurse",
		Specialty:      "ICU",
		QuantityNeeded: 1,
		StartTime:      start,
		EndTime:        start.Add(-time.Hour),
		Rate:           "1000",
	})
	if !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("结束早于开始应返回 VALIDATION_ERROR，实际=%v", err)
	}

	_, err = svc.Create(context.Background(), facility.FacilityID, &dto.CreateShiftRequest{
		Role:           "Nurse",
		Specialty:      "ICU",
		QuantityNeeded: 1,
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		Rate:           "-5",
	})
	if !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("负时薪应返回 VALIDATION_ERROR，实际=%v", err)
	}
}

func TestShiftApply(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 2, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)

	resp, err := svc.Apply(context.Background(), professional.ProfessionalID, shift.ShiftID)
	if err != nil {
		t.Fatalf("申请班次应成功: %v", err)
	}
	if resp.Status != model.ApplicationStatusPending {
		t.Errorf("期望新申请状态=PENDING，实际=%s", resp.Status)
	}

	// 同一人员重复申请同一班次被唯一约束拦截
	_, err = svc.Apply(context.Background(), professional.ProfessionalID, shift.ShiftID)
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("重复申请应返回 INVALID_STATE，实际=%v", err)
	}
}

func TestShiftApplyUnverifiedProfessional(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("王护士")
	professional.IsVerified = false
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)

	_, err := svc.Apply(context.Background(), professional.ProfessionalID, shift.ShiftID)
	if !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("未核验人员申请应返回 PERMISSION_DENIED，实际=%v", err)
	}
}

func TestShiftApplyNotOpen(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	shift.Status = model.ShiftStatusFilled

	_, err := svc.Apply(context.Background(), professional.ProfessionalID, shift.ShiftID)
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("非 OPEN 班次申请应返回 INVALID_STATE，实际=%v", err)
	}
}

func TestShiftManageConfirm(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	pro1 := env.seedProfessional("张护士")
	pro2 := env.seedProfessional("李护士")
	shift := env.seedShift(facility.FacilityID, 2, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app1 := env.seedApplication(shift.ShiftID, pro1.ProfessionalID, model.ApplicationStatusPending)
	app2 := env.seedApplication(shift.ShiftID, pro2.ProfessionalID, model.ApplicationStatusPending)

	if _, err := svc.Manage(context.Background(), facility.FacilityID, app1.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"}); err != nil {
		t.Fatalf("第一次确认应成功: %v", err)
	}
	if shift.QuantityFilled != 1 {
		t.Errorf("期望 quantity_filled=1，实际=%d", shift.QuantityFilled)
	}
	if shift.Status != model.ShiftStatusOpen {
		t.Errorf("未满员班次应保持 OPEN，实际=%s", shift.Status)
	}

	if _, err := svc.Manage(context.Background(), facility.FacilityID, app2.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"}); err != nil {
		t.Fatalf("第二次确认应成功: %v", err)
	}
	if shift.QuantityFilled != 2 {
		t.Errorf("期望 quantity_filled=2，实际=%d", shift.QuantityFilled)
	}
	if shift.Status != model.ShiftStatusFilled {
		t.Errorf("满员班次应转为 FILLED，实际=%s", shift.Status)
	}
}

func TestShiftManageConfirmOverCapacity(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	pro1 := env.seedProfessional("张护士")
	pro2 := env.seedProfessional("李护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app1 := env.seedApplication(shift.ShiftID, pro1.ProfessionalID, model.ApplicationStatusPending)
	app2 := env.seedApplication(shift.ShiftID, pro2.ProfessionalID, model.ApplicationStatusPending)

	if _, err := svc.Manage(context.Background(), facility.FacilityID, app1.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"}); err != nil {
		t.Fatalf("首个确认应成功: %v", err)
	}

	_, err := svc.Manage(context.Background(), facility.FacilityID, app2.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"})
	if !errors.IsKind(err, errors.KindCapacityExceeded) {
		t.Errorf("超出名额应返回 CAPACITY_EXCEEDED，实际=%v", err)
	}
	if shift.QuantityFilled != 1 {
		t.Errorf("名额不应越过上限，期望 quantity_filled=1，实际=%d", shift.QuantityFilled)
	}
}

func TestShiftManageUnknownAction(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusPending)

	_, err := svc.Manage(context.Background(), facility.FacilityID, app.ApplicationID,
		&dto.ManageApplicationRequest{Action: "APPROVE"})
	if !errors.IsKind(err, errors.KindValidationError) {
		t.Errorf("未知操作应返回 VALIDATION_ERROR，实际=%v", err)
	}
	if app.Status != model.ApplicationStatusPending {
		t.Errorf("未知操作不应改变申请状态，实际=%s", app.Status)
	}
	if shift.QuantityFilled != 0 {
		t.Errorf("未知操作不应占用名额，实际=%d", shift.QuantityFilled)
	}
}

func TestShiftManageReject(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusPending)

	resp, err := svc.Manage(context.Background(), facility.FacilityID, app.ApplicationID, &dto.ManageApplicationRequest{Action: "REJECT"})
	if err != nil {
		t.Fatalf("拒绝应成功: %v", err)
	}
	if resp.Status != model.ApplicationStatusRejected {
		t.Errorf("期望状态=REJECTED，实际=%s", resp.Status)
	}
	if shift.QuantityFilled != 0 {
		t.Errorf("拒绝不应占用名额，期望 quantity_filled=0，实际=%d", shift.QuantityFilled)
	}

	// REJECTED 为终态，再次处理失败
	_, err = svc.Manage(context.Background(), facility.FacilityID, app.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"})
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("终态申请再处理应返回 INVALID_STATE，实际=%v", err)
	}
}

func TestShiftManageNotOwner(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	other := env.seedFacility("康宁医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusPending)

	_, err := svc.Manage(context.Background(), other.FacilityID, app.ApplicationID, &dto.ManageApplicationRequest{Action: "CONFIRM"})
	if !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("非归属机构处理申请应返回 PERMISSION_DENIED，实际=%v", err)
	}
}

func TestShiftQRCode(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	other := env.seedFacility("康宁医院", decimal.Zero)
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)

	resp, err := svc.QRCode(context.Background(), facility.FacilityID, shift.ShiftID)
	if err != nil {
		t.Fatalf("获取二维码内容应成功: %v", err)
	}
	if resp.QRCodeData != facility.FacilityID {
		t.Errorf("二维码内容应为机构 ID，期望=%s，实际=%s", facility.FacilityID, resp.QRCodeData)
	}

	if _, err := svc.QRCode(context.Background(), other.FacilityID, shift.ShiftID); !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("非归属机构取二维码应返回 PERMISSION_DENIED，实际=%v", err)
	}
}

func TestShiftSavedAddresses(t *testing.T) {
	env, svc := setupTestShiftService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	other := env.seedFacility("康宁医院", decimal.Zero)

	created, err := svc.CreateSavedAddress(context.Background(), facility.FacilityID, &dto.SavedAddressRequest{
		Name:      "Main Branch",
		Address:   "1 Hospital Road",
		Latitude:  6.5244,
		Longitude: 3.3792,
	})
	if err != nil {
		t.Fatalf("创建常用地址应成功: %v", err)
	}

	list, err := svc.ListSavedAddresses(context.Background(), facility.FacilityID)
	if err != nil || len(list) != 1 {
		t.Fatalf("期望 1 条常用地址，实际=%d err=%v", len(list), err)
	}

	// 跨机构删除拿不到记录
	if err := svc.DeleteSavedAddress(context.Background(), other.FacilityID, created.ID); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("跨机构删除应返回 NOT_FOUND，实际=%v", err)
	}
	if err := svc.DeleteSavedAddress(context.Background(), facility.FacilityID, created.ID); err != nil {
		t.Errorf("归属机构删除应成功: %v", err)
	}
}
