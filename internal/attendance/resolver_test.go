package attendance

import (
	"errors"
	"testing"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func TestResolveIdentity(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	store.drivers[1] = &domain.Driver{ID: 1, PlantID: 10, IsActive: true}
	store.drivers[2] = &domain.Driver{ID: 2, PlantID: 10, IsActive: false}
	store.users[2] = &domain.User{ID: 2, Role: domain.RoleSupervisor, IsActive: true}
	store.users[3] = &domain.User{ID: 3, Role: domain.RoleSupervisor, IsActive: true}
	store.users[4] = &domain.User{ID: 4, Role: domain.RoleHR, IsActive: true}

	t.Run("在职司机优先", func(t *testing.T) {
		identity, err := svc.ResolveIdentity(1)
		if err != nil {
			t.Fatalf("解析失败: %v", err)
		}
		if identity != domain.DriverIdentity(1) {
			t.Errorf("期望司机主体，实际 %s", identity)
		}
	})

	t.Run("离职司机退回用户解析", func(t *testing.T) {
		identity, err := svc.ResolveIdentity(2)
		if err != nil {
			t.Fatalf("解析失败: %v", err)
		}
		if identity != domain.SupervisorIdentity(2) {
			t.Errorf("期望主管主体，实际 %s", identity)
		}
	})

	t.Run("主管用户", func(t *testing.T) {
		identity, err := svc.ResolveIdentity(3)
		if err != nil {
			t.Fatalf("解析失败: %v", err)
		}
		if identity != domain.SupervisorIdentity(3) {
			t.Errorf("期望主管主体，实际 %s", identity)
		}
	})

	t.Run("非主管用户不是打卡主体", func(t *testing.T) {
		_, err := svc.ResolveIdentity(4)
		var engErr *Error
		if !errors.As(err, &engErr) || engErr.Kind != KindNotFound {
			t.Errorf("期望 NotFound 错误，实际 %v", err)
		}
	})

	t.Run("未知 id", func(t *testing.T) {
		_, err := svc.ResolveIdentity(99)
		var engErr *Error
		if !errors.As(err, &engErr) || engErr.Kind != KindNotFound {
			t.Errorf("期望 NotFound 错误，实际 %v", err)
		}
	})
}
