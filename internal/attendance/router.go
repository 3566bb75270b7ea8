package attendance

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// CanApprove 统一的审批路由决策函数，按主体类别选择路由，不按角色分别实现：
//   - 管理员是全局审批人，任何记录都可以决定；
//   - 没有司机档案的主管：查路由表，没有配置时记录只能由管理员处理；
//   - 同时是主管用户的司机：查路由表，没有配置时退回厂区路由；
//   - 普通司机：审批人的授权厂区集合包含记录所在厂区即可。
func (s *Service) CanApprove(ctx context.Context, actor *domain.User, rec *domain.AttendanceRecord) (bool, error) {
	if actor.Role == domain.RoleAdmin {
		return true, nil
	}

	switch rec.Identity.Kind {
	case domain.IdentitySupervisor:
		mapping, err := s.store.GetWorkflowMapping(domain.SubjectSupervisorWithoutDriver, rec.Identity.ID)
		switch {
		case err == nil:
			return actor.ID == mapping.ApproverUserID, nil
		case errors.Is(err, sql.ErrNoRows):
			// 未配置路由，记录停留在待审批，只有管理员能处理
			return false, nil
		default:
			return false, err
		}

	case domain.IdentityDriver:
		driver, err := s.store.GetDriverByID(rec.Identity.ID)
		if err != nil {
			return false, err
		}

		if driver.UserID != nil {
			mapping, err := s.store.GetWorkflowMapping(domain.SubjectSupervisorWithDriver, *driver.UserID)
			switch {
			case err == nil:
				return actor.ID == mapping.ApproverUserID, nil
			case errors.Is(err, sql.ErrNoRows):
				// 没有配置时退回厂区路由
			default:
				return false, err
			}
		}

		plantIDs, err := s.authorizedPlants(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		return slices.Contains(plantIDs, rec.PlantID), nil
	}

	return false, nil
}

// authorizedPlants 计算审批人的授权厂区集合（授权边 ∪ 厂区主要主管列），
// 每次请求内只算一遍，命中缓存时不访问数据库。
func (s *Service) authorizedPlants(ctx context.Context, userID int64) ([]int64, error) {
	if s.cache != nil {
		if plantIDs, ok := s.cache.GetPlantSet(ctx, userID); ok {
			return plantIDs, nil
		}
	}

	plantIDs, err := s.store.AuthorizedPlantIDs(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetPlantSet(ctx, userID, plantIDs)
	}

	return plantIDs, nil
}
