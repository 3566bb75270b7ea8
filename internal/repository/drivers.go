package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func (r *Repository) GetDriverByID(id int64) (*domain.Driver, error) {
	query := `
		SELECT user_id, full_name, phone, plant_id, is_active, proxy_enabled, created_at, version
		FROM drivers WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	driver := &domain.Driver{
		ID: id,
	}

	dst := []any{&driver.UserID, &driver.FullName, &driver.Phone, &driver.PlantID, &driver.IsActive, &driver.ProxyEnabled, &driver.CreatedAt, &driver.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return driver, nil
}

func (r *Repository) CreateDriver(driver *domain.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO drivers (user_id, full_name, phone, plant_id, is_active, proxy_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{driver.UserID, driver.FullName, driver.Phone, driver.PlantID, driver.IsActive, driver.ProxyEnabled}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&driver.ID, &driver.CreatedAt, &driver.Version); err != nil {
		return err
	}

	return nil
}

// GetLatestAssignment 获取司机最近一次派车记录，没有派车记录时返回 sql.ErrNoRows。
func (r *Repository) GetLatestAssignment(driverID int64) (*domain.Assignment, error) {
	query := `
		SELECT id, vehicle_id, started_at
		FROM assignments
		WHERE driver_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	assignment := &domain.Assignment{
		DriverID: driverID,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, driverID).Scan(&assignment.ID, &assignment.VehicleID, &assignment.StartedAt); err != nil {
		return nil, err
	}

	return assignment, nil
}

func (r *Repository) CreateAssignment(assignment *domain.Assignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO assignments (driver_id, vehicle_id, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.dbpool.QueryRowContext(ctx, query, assignment.DriverID, assignment.VehicleID, assignment.StartedAt).Scan(&assignment.ID); err != nil {
		return err
	}

	return nil
}
