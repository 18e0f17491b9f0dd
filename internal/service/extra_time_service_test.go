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

func setupTestExtraTimeService() (*testEnv, ExtraTimeService) {
	env := newTestEnv()
	svc := NewExtraTimeService(env.repo, env.notifier(), zap.NewNop())
	return env, svc
}

func TestExtraTimeRequest(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusInProgress)

	resp, err := svc.Request(context.Background(), professional.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "1.5",
		Reason:        "交接延迟，多值守一个半小时",
	})
	if err != nil {
		t.Fatalf("提出加时应成功: %v", err)
	}
	if resp.Status != model.ExtraTimeStatusPending {
		t.Errorf("期望新加时申请=PENDING，实际=%s", resp.Status)
	}
}

func TestExtraTimeRequestByFacility(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusInProgress)

	resp, err := svc.Request(context.Background(), facility.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "2",
		Reason:        "下一班人手未到，请人员留守",
	})
	if err != nil {
		t.Fatalf("机构方提出加时应成功: %v", err)
	}
	if resp.RequestedBy != facility.UserID {
		t.Errorf("期望 RequestedBy=%s，实际=%s", facility.UserID, resp.RequestedBy)
	}
}

func TestExtraTimeRequestNotParty(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusInProgress)

	// 与该申请无关的用户（其他机构的账号）不能提出加时
	intruder := env.seedFacility("协和诊所", decimal.Zero)
	_, err := svc.Request(context.Background(), intruder.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "1",
		Reason:        "替别人的班次加时",
	})
	if !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("非申请双方提出加时应返回 PERMISSION_DENIED，实际=%v", err)
	}
	if len(env.extraTime.requests) != 0 {
		t.Errorf("越权请求不应落库，实际=%d 条", len(env.extraTime.requests))
	}
}

func TestExtraTimeRequestWrongState(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(48*time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusConfirmed)

	_, err := svc.Request(context.Background(), professional.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "1",
		Reason:        "还没开始就想加时",
	})
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("未开始的班次不能申请加时，应返回 INVALID_STATE，实际=%v", err)
	}
}

func TestExtraTimeRequestInvalidHours(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusInProgress)

	for _, hours := range []string{"-1", "0", "abc"} {
		_, err := svc.Request(context.Background(), professional.UserID, &dto.ExtraTimeRequestData{
			ApplicationID: app.ApplicationID,
			Hours:         hours,
			Reason:        "时长非法",
		})
		if !errors.IsKind(err, errors.KindValidationError) {
			t.Errorf("时长 %q 应返回 VALIDATION_ERROR，实际=%v", hours, err)
		}
	}
}

func TestExtraTimeApprove(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusInProgress)

	created, err := svc.Request(context.Background(), professional.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "1.5",
		Reason:        "交接延迟",
	})
	if err != nil {
		t.Fatalf("提出加时应成功: %v", err)
	}

	resp, err := svc.Approve(context.Background(), facility.FacilityID, facility.UserID, created.ID)
	if err != nil {
		t.Fatalf("批准加时应成功: %v", err)
	}
	if resp.Status != model.ExtraTimeStatusApproved {
		t.Errorf("期望状态=APPROVED，实际=%s", resp.Status)
	}

	stored := env.extraTime.requests[created.ID]
	if stored.ApprovedAt == nil || stored.ApprovedBy == nil || *stored.ApprovedBy != facility.UserID {
		t.Error("批准应记录审批人与时间")
	}

	// APPROVED 为终态，二次处理失败
	if _, err := svc.Approve(context.Background(), facility.FacilityID, facility.UserID, created.ID); !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("终态加时申请再批准应返回 INVALID_STATE，实际=%v", err)
	}
	if _, err := svc.Reject(context.Background(), facility.FacilityID, created.ID); !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("终态加时申请再拒绝应返回 INVALID_STATE，实际=%v", err)
	}
}

func TestExtraTimeApproveNotOwner(t *testing.T) {
	env, svc := setupTestExtraTimeService()
	facility := env.seedFacility("仁心医院", decimal.Zero)
	other := env.seedFacility("康宁医院", decimal.Zero)
	professional := env.seedProfessional("张护士")
	shift := env.seedShift(facility.FacilityID, 1, decimal.NewFromInt(1000), time.Now().Add(-time.Hour), 8)
	app := env.seedApplication(shift.ShiftID, professional.ProfessionalID, model.ApplicationStatusCompleted)

	created, err := svc.Request(context.Background(), professional.UserID, &dto.ExtraTimeRequestData{
		ApplicationID: app.ApplicationID,
		Hours:         "2",
		Reason:        "病人交接",
	})
	if err != nil {
		t.Fatalf("提出加时应成功: %v", err)
	}

	if _, err := svc.Approve(context.Background(), other.FacilityID, other.UserID, created.ID); !errors.IsKind(err, errors.KindPermissionDenied) {
		t.Errorf("非关联机构批准应返回 PERMISSION_DENIED，实际=%v", err)
	}
	if env.extraTime.requests[created.ID].Status != model.ExtraTimeStatusPending {
		t.Error("越权批准后状态应保持 PENDING")
	}
}
