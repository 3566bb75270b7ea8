package attendance

import (
	"context"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// ListApprovalsForActor 列出审批人当前可以决定的待审批记录。
// 管理员不受厂区限制；其他审批人能看到路由表指向自己的记录
// 和授权厂区内未配置路由的普通司机记录。
func (s *Service) ListApprovalsForActor(ctx context.Context, actor *domain.User, filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error) {
	plantIDs, err := s.authorizedPlants(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	isGlobal := actor.Role == domain.RoleAdmin
	return s.store.ListPendingForApprover(actor.ID, plantIDs, isGlobal, filter)
}

// ListGroupedAttendance 看板读模型：按条件查询原始记录并聚合分组。
func (s *Service) ListGroupedAttendance(ctx context.Context, filter domain.AttendanceFilter) ([]*Group, error) {
	records, err := s.store.ListAttendanceRecords(filter)
	if err != nil {
		return nil, err
	}

	return GroupRecords(records), nil
}
