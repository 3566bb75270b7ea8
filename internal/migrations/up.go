package migrations

import (
	"context"
	"database/sql"
)

func upUsers(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			proxy_enabled BOOLEAN NOT NULL DEFAULT true,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			version INT NOT NULL DEFAULT 1
		)
	`)
	return err
}

func upPlants(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS plants (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			primary_supervisor_id BIGINT REFERENCES users (id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			version INT NOT NULL DEFAULT 1
		)
	`)
	return err
}

func upDrivers(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS drivers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users (id),
			full_name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			plant_id BIGINT NOT NULL REFERENCES plants (id),
			is_active BOOLEAN NOT NULL DEFAULT true,
			proxy_enabled BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			version INT NOT NULL DEFAULT 1
		)
	`)
	return err
}

func upVehiclesAssignments(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id BIGSERIAL PRIMARY KEY,
			plant_id BIGINT NOT NULL REFERENCES plants (id),
			plate_number TEXT NOT NULL UNIQUE
		)
	`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assignments (
			id BIGSERIAL PRIMARY KEY,
			driver_id BIGINT NOT NULL REFERENCES drivers (id),
			vehicle_id BIGINT REFERENCES vehicles (id),
			started_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func upSupervisorPlantGrants(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS supervisor_plant_grants (
			user_id BIGINT NOT NULL REFERENCES users (id),
			plant_id BIGINT NOT NULL REFERENCES plants (id),
			PRIMARY KEY (user_id, plant_id)
		)
	`)
	return err
}

func upApprovalWorkflowMappings(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS approval_workflow_mappings (
			id BIGSERIAL PRIMARY KEY,
			subject_kind TEXT NOT NULL,
			subject_user_id BIGINT NOT NULL REFERENCES users (id),
			approver_user_id BIGINT NOT NULL REFERENCES users (id),
			approver_role TEXT NOT NULL,
			CONSTRAINT approval_workflow_mappings_subject_key UNIQUE (subject_kind, subject_user_id)
		)
	`)
	return err
}

func upAttendanceRecords(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance_records (
			id BIGSERIAL PRIMARY KEY,
			identity_kind TEXT NOT NULL,
			identity_id BIGINT NOT NULL,
			plant_id BIGINT NOT NULL REFERENCES plants (id),
			vehicle_id BIGINT REFERENCES vehicles (id),
			assignment_id BIGINT REFERENCES assignments (id),
			in_time TIMESTAMPTZ NOT NULL,
			out_time TIMESTAMPTZ,
			in_evidence_ref TEXT NOT NULL DEFAULT '',
			out_evidence_ref TEXT,
			approval_status TEXT NOT NULL DEFAULT 'pending',
			source TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			closed_by_user_id BIGINT REFERENCES users (id),
			closed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			version INT NOT NULL DEFAULT 1
		)
	`); err != nil {
		return err
	}
	// 核心不变量：每个主体至多一条未关闭的班次。
	// 插入本身即为检查，不存在先查后插的竞态窗口。
	_, err := db.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS attendance_records_one_open_per_identity
		ON attendance_records (identity_kind, identity_id)
		WHERE out_time IS NULL
	`)
	return err
}

func upAdjustRequests(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS adjust_requests (
			id BIGSERIAL PRIMARY KEY,
			identity_kind TEXT NOT NULL,
			identity_id BIGINT NOT NULL,
			requested_by_kind TEXT NOT NULL,
			requested_by_id BIGINT NOT NULL,
			request_date DATE NOT NULL,
			proposed_in TIMESTAMPTZ NOT NULL,
			proposed_out TIMESTAMPTZ NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			resolved_by_user_id BIGINT REFERENCES users (id),
			resolved_at TIMESTAMPTZ,
			resolution_note TEXT NOT NULL DEFAULT '',
			linked_attendance_id BIGINT NOT NULL UNIQUE REFERENCES attendance_records (id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			version INT NOT NULL DEFAULT 1
		)
	`); err != nil {
		return err
	}
	// 同一主体同一天至多一条未被驳回的补卡申请
	_, err := db.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS adjust_requests_one_active_per_identity_date
		ON adjust_requests (identity_kind, identity_id, request_date)
		WHERE status <> 'rejected'
	`)
	return err
}
