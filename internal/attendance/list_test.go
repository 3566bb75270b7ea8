package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func TestListApprovalsForActor(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	supervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	admin := &domain.User{ID: 101, Role: domain.RoleAdmin}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 1, IsActive: true}
	store.drivers[2] = &domain.Driver{ID: 2, PlantID: 2, IsActive: true}
	store.plantSets[supervisor.ID] = []int64{1}

	day := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	inRange := closedRecord(store, domain.DriverIdentity(1), 1, day)
	outOfRange := closedRecord(store, domain.DriverIdentity(2), 2, day)
	approved := closedRecord(store, domain.DriverIdentity(1), 1, day.Add(-24*time.Hour))
	approved.ApprovalStatus = domain.StatusApproved

	records, err := svc.ListApprovalsForActor(context.Background(), supervisor, domain.AttendanceFilter{})
	if err != nil {
		t.Fatalf("获取待审批记录失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望 1 条待审批记录，实际 %d 条", len(records))
	}
	if records[0].ID != inRange.ID {
		t.Errorf("期望只看到授权厂区内的记录，实际 %d", records[0].ID)
	}

	// 管理员不受厂区限制
	records, err = svc.ListApprovalsForActor(context.Background(), admin, domain.AttendanceFilter{})
	if err != nil {
		t.Fatalf("获取待审批记录失败: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("期望管理员看到 2 条待审批记录，实际 %d 条", len(records))
	}

	// 已有终态结论的记录不出现在任何人的列表中
	for _, r := range records {
		if r.ID == approved.ID {
			t.Error("已审批的记录不应出现在待审批列表")
		}
	}
	_ = outOfRange
}

func TestListApprovalsForActorIdentityFilter(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	admin := &domain.User{ID: 101, Role: domain.RoleAdmin}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 1, IsActive: true}
	store.drivers[2] = &domain.Driver{ID: 2, PlantID: 1, IsActive: true}

	day := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	wanted := closedRecord(store, domain.DriverIdentity(1), 1, day)
	closedRecord(store, domain.DriverIdentity(2), 1, day)

	identity := domain.DriverIdentity(1)
	records, err := svc.ListApprovalsForActor(context.Background(), admin, domain.AttendanceFilter{Identity: &identity})
	if err != nil {
		t.Fatalf("获取待审批记录失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望按主体过滤后剩 1 条记录，实际 %d 条", len(records))
	}
	if records[0].ID != wanted.ID {
		t.Errorf("期望只看到主体 %s 的记录，实际 %d", identity, records[0].ID)
	}
}

func TestListGroupedAttendanceAppliesFilter(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	day := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	closedRecord(store, domain.DriverIdentity(1), 1, day)
	closedRecord(store, domain.DriverIdentity(2), 2, day)

	plantID := int64(1)
	groups, err := svc.ListGroupedAttendance(context.Background(), domain.AttendanceFilter{PlantID: &plantID})
	if err != nil {
		t.Fatalf("获取看板失败: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("期望 1 个分组，实际 %d 个", len(groups))
	}
	if groups[0].Identity != domain.DriverIdentity(1) {
		t.Errorf("期望只包含厂区 1 的记录，实际主体 %s", groups[0].Identity)
	}
}

func TestListGroupedAttendanceDateBounds(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	in := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	closedRecord(store, domain.DriverIdentity(1), 1, in)

	// 起始边界包含在内
	groups, err := svc.ListGroupedAttendance(context.Background(), domain.AttendanceFilter{From: &in})
	if err != nil {
		t.Fatalf("获取看板失败: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("期望 From 等于上班时间的记录被包含，实际 %d 个分组", len(groups))
	}

	// 结束边界不包含在内
	groups, err = svc.ListGroupedAttendance(context.Background(), domain.AttendanceFilter{To: &in})
	if err != nil {
		t.Fatalf("获取看板失败: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("期望 To 等于上班时间的记录被排除，实际 %d 个分组", len(groups))
	}
}
