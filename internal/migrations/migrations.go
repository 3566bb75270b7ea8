package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner 按顺序执行迁移，服务启动时调用。
type Runner struct {
	dbpool *sql.DB
}

func NewRunner(dbpool *sql.DB) *Runner {
	return &Runner{dbpool: dbpool}
}

type migration struct {
	Name string
	Up   func(ctx context.Context, db *sql.DB) error
}

// 迁移列表，顺序不可调整
var migrations = []migration{
	{Name: "create_users", Up: upUsers},
	{Name: "create_plants", Up: upPlants},
	{Name: "create_drivers", Up: upDrivers},
	{Name: "create_vehicles_assignments", Up: upVehiclesAssignments},
	{Name: "create_supervisor_plant_grants", Up: upSupervisorPlantGrants},
	{Name: "create_approval_workflow_mappings", Up: upApprovalWorkflowMappings},
	{Name: "create_attendance_records", Up: upAttendanceRecords},
	{Name: "create_adjust_requests", Up: upAdjustRequests},
}

func (r *Runner) Up(ctx context.Context) error {
	for i, m := range migrations {
		if err := m.Up(ctx, r.dbpool); err != nil {
			return fmt.Errorf("迁移 %d (%s) 失败: %w", i, m.Name, err)
		}
	}
	return nil
}
