package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func (r *Repository) GetPlantByID(id int64) (*domain.Plant, error) {
	query := `
		SELECT name, primary_supervisor_id, created_at, version
		FROM plants WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	plant := &domain.Plant{
		ID: id,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&plant.Name, &plant.PrimarySupervisorID, &plant.CreatedAt, &plant.Version); err != nil {
		return nil, err
	}

	return plant, nil
}

func (r *Repository) CreatePlant(plant *domain.Plant) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO plants (name, primary_supervisor_id)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, plant.Name, plant.PrimarySupervisorID).Scan(&plant.ID, &plant.CreatedAt, &plant.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateVehicle(vehicle *domain.Vehicle) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO vehicles (plant_id, plate_number)
		VALUES ($1, $2)
		RETURNING id
	`

	if err := r.dbpool.QueryRowContext(ctx, query, vehicle.PlantID, vehicle.PlateNumber).Scan(&vehicle.ID); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateSupervisorPlantGrant(grant *domain.SupervisorPlantGrant) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO supervisor_plant_grants (user_id, plant_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.dbpool.ExecContext(ctx, query, grant.UserID, grant.PlantID); err != nil {
		return err
	}

	return nil
}

// AuthorizedPlantIDs 计算某用户的授权厂区集合：
// 授权边表与厂区的主要主管列取并集，审批路由只认这一个来源。
func (r *Repository) AuthorizedPlantIDs(userID int64) ([]int64, error) {
	query := `
		SELECT plant_id FROM supervisor_plant_grants WHERE user_id = $1
		UNION
		SELECT id FROM plants WHERE primary_supervisor_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plantIDs := make([]int64, 0)
	for rows.Next() {
		var plantID int64
		if err := rows.Scan(&plantID); err != nil {
			return nil, err
		}
		plantIDs = append(plantIDs, plantID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plantIDs, nil
}
