package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func closedRecord(store *mockStore, identity domain.Identity, plantID int64, day time.Time) *domain.AttendanceRecord {
	out := day.Add(9 * time.Hour)
	rec := &domain.AttendanceRecord{
		Identity:       identity,
		PlantID:        plantID,
		InTime:         day,
		OutTime:        &out,
		ApprovalStatus: domain.StatusPending,
		Source:         domain.SourceMobile,
		Version:        1,
	}
	rec.ID = store.id()
	store.records[rec.ID] = rec
	return rec
}

func TestDecideApprovesPendingRecord(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}
	rec := closedRecord(store, domain.DriverIdentity(1), 10, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))

	result, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusApproved, "正常")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if result.AlreadyUpdated {
		t.Error("首次审批不应标记为重试")
	}
	if result.Record.ApprovalStatus != domain.StatusApproved {
		t.Errorf("期望状态为 approved，实际 %s", result.Record.ApprovalStatus)
	}
	if result.Record.ClosedByUserID == nil || *result.Record.ClosedByUserID != admin.ID {
		t.Error("期望记录审批人")
	}
	if result.Record.ClosedAt == nil {
		t.Error("期望记录审批时间")
	}
	if store.records[rec.ID].ApprovalStatus != domain.StatusApproved {
		t.Error("期望状态已落库")
	}
}

func TestDecideIdempotentRepeat(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}
	rec := closedRecord(store, domain.DriverIdentity(1), 10, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))

	first, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusApproved, "")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}

	// 相同结论的重试幂等返回，审批时间不变
	second, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusApproved, "")
	if err != nil {
		t.Fatalf("重试审批失败: %v", err)
	}
	if !second.AlreadyUpdated {
		t.Error("期望标记为重试")
	}
	if !second.Record.ClosedAt.Equal(*first.Record.ClosedAt) {
		t.Error("重试不应改变审批时间")
	}
}

func TestDecideIllegalStatusFlip(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}
	rec := closedRecord(store, domain.DriverIdentity(1), 10, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))

	if _, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusApproved, ""); err != nil {
		t.Fatalf("审批失败: %v", err)
	}

	_, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusRejected, "")
	var engErr *Error
	if !errors.As(err, &engErr) {
		t.Fatalf("期望业务错误，实际 %v", err)
	}
	if engErr.Kind != KindConflict || engErr.Code != CodeIllegalStatusFlip {
		t.Errorf("期望 Conflict(IllegalStatusFlip)，实际 %s(%s)", engErr.Kind, engErr.Code)
	}
	if store.records[rec.ID].ApprovalStatus != domain.StatusApproved {
		t.Error("终态不应被翻转")
	}
}

func TestDecideForbiddenForUnauthorized(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	supervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 10, IsActive: true}
	store.plantSets[supervisor.ID] = []int64{1, 2} // 不含厂区 10
	rec := closedRecord(store, domain.DriverIdentity(1), 10, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))

	_, err := svc.Decide(context.Background(), supervisor, rec.ID, domain.StatusApproved, "")
	var engErr *Error
	if !errors.As(err, &engErr) || engErr.Kind != KindForbidden {
		t.Errorf("期望 Forbidden 错误，实际 %v", err)
	}
	if store.records[rec.ID].ApprovalStatus != domain.StatusPending {
		t.Error("无权审批时状态不应变化")
	}
}

func TestDecideResolvesLinkedAdjustRequest(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 10, IsActive: true}

	result, err := svc.SubmitAdjustment(context.Background(), AdjustmentParams{
		DriverID:    1,
		RequestedBy: domain.DriverIdentity(1),
		ProposedIn:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		ProposedOut: time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC),
		Reason:      "忘记打卡",
	})
	if err != nil {
		t.Fatalf("提交补卡申请失败: %v", err)
	}

	decided, err := svc.Decide(context.Background(), admin, result.Record.ID, domain.StatusApproved, "核实无误")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if decided.AdjustRequest == nil {
		t.Fatal("期望返回配对的补卡申请")
	}
	if decided.AdjustRequest.Status != domain.StatusApproved {
		t.Errorf("期望申请与记录同结论，实际 %s", decided.AdjustRequest.Status)
	}
	if decided.AdjustRequest.ResolvedByUserID == nil || *decided.AdjustRequest.ResolvedByUserID != admin.ID {
		t.Error("期望申请记录处理人")
	}
	if decided.AdjustRequest.ResolutionNote != "核实无误" {
		t.Errorf("期望处理备注传递到申请，实际 %q", decided.AdjustRequest.ResolutionNote)
	}
}

func TestDecideConcurrentModificationRetry(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}
	rec := closedRecord(store, domain.DriverIdentity(1), 10, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))
	store.decideErr = sql.ErrNoRows // 模拟乐观锁版本不匹配

	_, err := svc.Decide(context.Background(), admin, rec.ID, domain.StatusApproved, "")
	var engErr *Error
	if !errors.As(err, &engErr) {
		t.Fatalf("期望业务错误，实际 %v", err)
	}
	if engErr.Kind != KindConflict || engErr.Code != CodeDecisionRetry {
		t.Errorf("期望 Conflict(DecisionRetry)，实际 %s(%s)", engErr.Kind, engErr.Code)
	}
}

func TestDecideValidatesConclusion(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)
	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}

	_, err := svc.Decide(context.Background(), admin, 1, domain.StatusPending, "")
	var engErr *Error
	if !errors.As(err, &engErr) || engErr.Kind != KindValidation {
		t.Errorf("期望 Validation 错误，实际 %v", err)
	}
}
