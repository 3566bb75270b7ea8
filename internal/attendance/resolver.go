package attendance

import (
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// ResolveIdentity 把原始 id 解析为打卡主体：
// 先找在职司机，找不到再找主管角色的用户，都没有则 NotFound。
// 纯查询，没有副作用。
func (s *Service) ResolveIdentity(rawID int64) (domain.Identity, error) {
	driver, err := s.store.GetDriverByID(rawID)
	switch {
	case err == nil:
		if driver.IsActive {
			return domain.DriverIdentity(driver.ID), nil
		}
		// 离职司机不再作为打卡主体，继续尝试按用户解析
	case errors.Is(err, sql.ErrNoRows):
		// 不是司机，继续尝试按用户解析
	default:
		return domain.Identity{}, err
	}

	user, err := s.store.GetUserByID(rawID)
	switch {
	case err == nil:
		if user.Role == domain.RoleSupervisor {
			return domain.SupervisorIdentity(user.ID), nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return domain.Identity{}, err
	}

	return domain.Identity{}, notFoundError("", "无法解析打卡主体")
}
