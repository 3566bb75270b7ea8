package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

type ProxyParams struct {
	TargetDriverID int64
	Evidence       []byte
	EvidenceHint   string
	Timestamp      time.Time
}

// ProxyCheckIn 主管替司机打卡上班。要求主管开启了代打卡、
// 目标司机在职且开启了代打卡、司机厂区在主管的授权集合内，
// 并且司机当前派车记录必须带有车辆，否则 Conflict(NoVehicleAssignment)。
// 委托给 CheckIn，来源标记为 proxy 并在备注中注明操作主管。
func (s *Service) ProxyCheckIn(ctx context.Context, supervisor *domain.User, p ProxyParams) (*domain.AttendanceRecord, error) {
	driver, err := s.proxyTarget(ctx, supervisor, p.TargetDriverID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.store.GetLatestAssignment(driver.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conflictError(CodeNoVehicleAssignment, "司机当前没有派车记录")
		}
		return nil, err
	}
	if assignment.VehicleID == nil {
		return nil, conflictError(CodeNoVehicleAssignment, "司机当前的派车记录没有车辆")
	}

	return s.CheckIn(ctx, CheckInParams{
		Identity:     domain.DriverIdentity(driver.ID),
		PlantID:      driver.PlantID,
		VehicleID:    assignment.VehicleID,
		AssignmentID: &assignment.ID,
		Evidence:     p.Evidence,
		EvidenceHint: p.EvidenceHint,
		Timestamp:    p.Timestamp,
		Source:       domain.SourceProxy,
		Notes:        proxyAnnotation(supervisor),
	})
}

// ProxyCheckOut 主管替司机打卡下班。与 ProxyCheckIn 对称但不检查车辆，
// 代打卡批注追加到既有备注之后而不是覆盖。
func (s *Service) ProxyCheckOut(ctx context.Context, supervisor *domain.User, p ProxyParams) (*CheckOutResult, error) {
	driver, err := s.proxyTarget(ctx, supervisor, p.TargetDriverID)
	if err != nil {
		return nil, err
	}

	return s.CheckOut(ctx, CheckOutParams{
		Identity:     domain.DriverIdentity(driver.ID),
		Evidence:     p.Evidence,
		EvidenceHint: p.EvidenceHint,
		Timestamp:    p.Timestamp,
		NotesAppend:  proxyAnnotation(supervisor),
	})
}

func (s *Service) proxyTarget(ctx context.Context, supervisor *domain.User, driverID int64) (*domain.Driver, error) {
	if supervisor.Role != domain.RoleSupervisor {
		return nil, forbiddenError("只有主管可以代打卡")
	}
	if !supervisor.ProxyEnabled {
		return nil, forbiddenError("该主管未开启代打卡")
	}

	driver, err := s.store.GetDriverByID(driverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("", "司机不存在")
		}
		return nil, err
	}
	if !driver.IsActive {
		return nil, forbiddenError("司机已离职")
	}
	if !driver.ProxyEnabled {
		return nil, forbiddenError("该司机未开启代打卡")
	}

	plantIDs, err := s.authorizedPlants(ctx, supervisor.ID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(plantIDs, driver.PlantID) {
		return nil, forbiddenError("司机所在厂区不在您的授权范围内")
	}

	return driver, nil
}

func proxyAnnotation(supervisor *domain.User) string {
	return fmt.Sprintf("由主管 %s(%d) 代打卡", supervisor.FullName, supervisor.ID)
}
