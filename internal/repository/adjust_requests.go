package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// CreateAdjustmentPair 在单个事务内创建预填的考勤记录和与之配对的补卡申请。
// 当天已有考勤记录时返回 domain.ErrAlreadyRecorded；
// 当天已有未被驳回的补卡申请时由 adjust_requests_one_active_per_identity_date
// 唯一索引报冲突。任何一步失败整个事务回滚，不会留下缺少配对的半成品。
func (r *Repository) CreateAdjustmentPair(rec *domain.AttendanceRecord, req *domain.AdjustRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 当天是否已有考勤记录
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE identity_kind = $1 AND identity_id = $2
				AND in_time >= $3 AND in_time < $3 + INTERVAL '1 day'
		)
	`

	var exists bool
	day := time.Date(req.RequestDate.Year(), req.RequestDate.Month(), req.RequestDate.Day(), 0, 0, 0, 0, req.RequestDate.Location())
	if err := tx.QueryRowContext(ctx, query, req.Identity.Kind, req.Identity.ID, day).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyRecorded
	}

	query = `
		INSERT INTO attendance_records
			(identity_kind, identity_id, plant_id, vehicle_id, assignment_id, in_time, out_time, in_evidence_ref, approval_status, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, version
	`

	args := []any{
		rec.Identity.Kind, rec.Identity.ID, rec.PlantID, rec.VehicleID, rec.AssignmentID,
		rec.InTime, rec.OutTime, rec.InEvidenceRef, rec.ApprovalStatus, rec.Source, rec.Notes,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.CreatedAt, &rec.Version); err != nil {
		return err
	}

	query = `
		INSERT INTO adjust_requests
			(identity_kind, identity_id, requested_by_kind, requested_by_id, request_date, proposed_in, proposed_out, reason, status, linked_attendance_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, version
	`

	args = []any{
		req.Identity.Kind, req.Identity.ID, req.RequestedBy.Kind, req.RequestedBy.ID,
		req.RequestDate, req.ProposedIn, req.ProposedOut, req.Reason, req.Status, rec.ID,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return err
	}
	req.LinkedAttendanceID = rec.ID

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// GetAdjustRequestByLinkedAttendanceID 查询与某条考勤记录配对的补卡申请，
// 没有配对时返回 sql.ErrNoRows。
func (r *Repository) GetAdjustRequestByLinkedAttendanceID(attendanceID int64) (*domain.AdjustRequest, error) {
	query := `
		SELECT id, identity_kind, identity_id, requested_by_kind, requested_by_id,
			request_date, proposed_in, proposed_out, reason, status,
			resolved_by_user_id, resolved_at, resolution_note, created_at, version
		FROM adjust_requests WHERE linked_attendance_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	req := &domain.AdjustRequest{
		LinkedAttendanceID: attendanceID,
	}

	dst := []any{
		&req.ID, &req.Identity.Kind, &req.Identity.ID, &req.RequestedBy.Kind, &req.RequestedBy.ID,
		&req.RequestDate, &req.ProposedIn, &req.ProposedOut, &req.Reason, &req.Status,
		&req.ResolvedByUserID, &req.ResolvedAt, &req.ResolutionNote, &req.CreatedAt, &req.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, attendanceID).Scan(dst...); err != nil {
		return nil, err
	}

	return req, nil
}
