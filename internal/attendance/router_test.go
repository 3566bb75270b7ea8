package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func TestCanApproveAdminGlobal(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)
	admin := &domain.User{ID: 100, Role: domain.RoleAdmin}

	rec := &domain.AttendanceRecord{Identity: domain.DriverIdentity(1), PlantID: 99}
	ok, err := svc.CanApprove(context.Background(), admin, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if !ok {
		t.Error("管理员应可以审批任何记录")
	}
}

func TestCanApproveDriverByPlantAuthorization(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	supervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 1, IsActive: true}
	store.drivers[2] = &domain.Driver{ID: 2, PlantID: 3, IsActive: true}
	store.plantSets[supervisor.ID] = []int64{1, 2}

	inRange := &domain.AttendanceRecord{Identity: domain.DriverIdentity(1), PlantID: 1}
	ok, err := svc.CanApprove(context.Background(), supervisor, inRange)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if !ok {
		t.Error("授权厂区内的司机记录应可审批")
	}

	outOfRange := &domain.AttendanceRecord{Identity: domain.DriverIdentity(2), PlantID: 3}
	ok, err = svc.CanApprove(context.Background(), supervisor, outOfRange)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if ok {
		t.Error("授权厂区外的司机记录不应可审批")
	}
}

func TestCanApproveSupervisorSubjectRouted(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	hr := &domain.User{ID: 200, Role: domain.RoleHR}
	other := &domain.User{ID: 201, Role: domain.RoleHR}
	store.mappings[mappingKey{kind: domain.SubjectSupervisorWithoutDriver, subjectUserID: 50}] = &domain.ApprovalWorkflowMapping{
		SubjectKind:    domain.SubjectSupervisorWithoutDriver,
		SubjectUserID:  50,
		ApproverUserID: hr.ID,
		ApproverRole:   domain.RoleHR,
	}

	rec := &domain.AttendanceRecord{Identity: domain.SupervisorIdentity(50), PlantID: 1}

	ok, err := svc.CanApprove(context.Background(), hr, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if !ok {
		t.Error("路由表指向的审批人应可审批")
	}

	ok, err = svc.CanApprove(context.Background(), other, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if ok {
		t.Error("路由表未指向的审批人不应可审批")
	}

	// 未配置路由的主管记录只有管理员能处理
	unrouted := &domain.AttendanceRecord{Identity: domain.SupervisorIdentity(51), PlantID: 1}
	ok, err = svc.CanApprove(context.Background(), hr, unrouted)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if ok {
		t.Error("未配置路由的主管记录不应由普通审批人处理")
	}
}

func TestCanApproveDriverWithUserMappingExclusive(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	userID := int64(60)
	store.drivers[1] = &domain.Driver{ID: 1, UserID: &userID, PlantID: 1, IsActive: true}
	store.mappings[mappingKey{kind: domain.SubjectSupervisorWithDriver, subjectUserID: userID}] = &domain.ApprovalWorkflowMapping{
		SubjectKind:    domain.SubjectSupervisorWithDriver,
		SubjectUserID:  userID,
		ApproverUserID: 300,
	}

	// 厂区授权覆盖该记录，但存在路由配置时配置独占
	plantSupervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	store.plantSets[plantSupervisor.ID] = []int64{1}

	rec := &domain.AttendanceRecord{Identity: domain.DriverIdentity(1), PlantID: 1}
	ok, err := svc.CanApprove(context.Background(), plantSupervisor, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if ok {
		t.Error("配置了路由的记录不应退回厂区路由")
	}

	mapped := &domain.User{ID: 300, Role: domain.RoleHR}
	ok, err = svc.CanApprove(context.Background(), mapped, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if !ok {
		t.Error("路由表指向的审批人应可审批")
	}
}

func TestCanApproveDriverWithUserFallsBackToPlantRouting(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	userID := int64(60)
	store.drivers[1] = &domain.Driver{ID: 1, UserID: &userID, PlantID: 1, IsActive: true}

	plantSupervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	store.plantSets[plantSupervisor.ID] = []int64{1}

	rec := &domain.AttendanceRecord{Identity: domain.DriverIdentity(1), PlantID: 1}
	ok, err := svc.CanApprove(context.Background(), plantSupervisor, rec)
	if err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if !ok {
		t.Error("没有路由配置时应退回厂区路由")
	}
}

func TestAuthorizedPlantsUsesCache(t *testing.T) {
	store := newMockStore()
	cache := newMockPlantCache()
	svc := NewService(store, &mockEvidence{}, cache, func() time.Time {
		return time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	})

	supervisor := &domain.User{ID: 100, Role: domain.RoleSupervisor}
	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 1, IsActive: true}
	store.plantSets[supervisor.ID] = []int64{1}

	rec := &domain.AttendanceRecord{Identity: domain.DriverIdentity(1), PlantID: 1}

	if _, err := svc.CanApprove(context.Background(), supervisor, rec); err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if store.plantSetCalls != 1 {
		t.Fatalf("首次应访问数据库一次，实际 %d 次", store.plantSetCalls)
	}

	if _, err := svc.CanApprove(context.Background(), supervisor, rec); err != nil {
		t.Fatalf("路由决策失败: %v", err)
	}
	if store.plantSetCalls != 1 {
		t.Errorf("命中缓存时不应访问数据库，实际共 %d 次", store.plantSetCalls)
	}
	if cache.hits != 1 {
		t.Errorf("期望缓存命中 1 次，实际 %d 次", cache.hits)
	}
}
