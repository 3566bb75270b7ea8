package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

const attendanceColumns = `
	identity_kind, identity_id, plant_id, vehicle_id, assignment_id,
	in_time, out_time, in_evidence_ref, out_evidence_ref,
	approval_status, source, notes, closed_by_user_id, closed_at, created_at, version
`

func scanAttendanceRecord(row interface{ Scan(...any) error }, rec *domain.AttendanceRecord) error {
	dst := []any{
		&rec.Identity.Kind, &rec.Identity.ID, &rec.PlantID, &rec.VehicleID, &rec.AssignmentID,
		&rec.InTime, &rec.OutTime, &rec.InEvidenceRef, &rec.OutEvidenceRef,
		&rec.ApprovalStatus, &rec.Source, &rec.Notes, &rec.ClosedByUserID, &rec.ClosedAt, &rec.CreatedAt, &rec.Version,
	}
	return row.Scan(dst...)
}

// CreateAttendanceRecord 打卡上班。
// 插入依赖 attendance_records_one_open_per_identity 部分唯一索引：
// 同一主体已有未关闭班次时数据库直接报唯一冲突，不存在先查后插的竞态。
func (r *Repository) CreateAttendanceRecord(rec *domain.AttendanceRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO attendance_records
			(identity_kind, identity_id, plant_id, vehicle_id, assignment_id, in_time, in_evidence_ref, approval_status, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, version
	`

	args := []any{
		rec.Identity.Kind, rec.Identity.ID, rec.PlantID, rec.VehicleID, rec.AssignmentID,
		rec.InTime, rec.InEvidenceRef, rec.ApprovalStatus, rec.Source, rec.Notes,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.CreatedAt, &rec.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAttendanceRecordByID(id int64) (*domain.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1`, attendanceColumns)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rec := &domain.AttendanceRecord{
		ID: id,
	}
	if err := scanAttendanceRecord(r.dbpool.QueryRowContext(ctx, query, id), rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// GetLatestRecordByIdentity 获取某主体最近的一条考勤记录（按上班时间倒序），
// 用于打卡下班重试的幂等判断。
func (r *Repository) GetLatestRecordByIdentity(identity domain.Identity) (*domain.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, %s FROM attendance_records
		WHERE identity_kind = $1 AND identity_id = $2
		ORDER BY in_time DESC
		LIMIT 1
	`, attendanceColumns)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rec := &domain.AttendanceRecord{}
	row := r.dbpool.QueryRowContext(ctx, query, identity.Kind, identity.ID)
	dst := []any{
		&rec.ID,
		&rec.Identity.Kind, &rec.Identity.ID, &rec.PlantID, &rec.VehicleID, &rec.AssignmentID,
		&rec.InTime, &rec.OutTime, &rec.InEvidenceRef, &rec.OutEvidenceRef,
		&rec.ApprovalStatus, &rec.Source, &rec.Notes, &rec.ClosedByUserID, &rec.ClosedAt, &rec.CreatedAt, &rec.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	return rec, nil
}

// CloseOpenShift 打卡下班：在单个事务内锁住该主体最近一条未关闭的记录并写入下班时间。
// 没有未关闭记录时返回 sql.ErrNoRows。审批状态保持原值不动。
// notesAppend 非空时追加到备注末尾（代打卡下班的批注）。
func (r *Repository) CloseOpenShift(identity domain.Identity, outTime time.Time, outEvidenceRef string, notesAppend string) (*domain.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 行锁保证并发的下班打卡只有一个能看到这条打开的记录
	query := `
		SELECT id FROM attendance_records
		WHERE identity_kind = $1 AND identity_id = $2 AND out_time IS NULL
		ORDER BY in_time DESC
		LIMIT 1
		FOR UPDATE
	`

	var id int64
	if err := tx.QueryRowContext(ctx, query, identity.Kind, identity.ID).Scan(&id); err != nil {
		return nil, err
	}

	query = fmt.Sprintf(`
		UPDATE attendance_records
		SET
			out_time = $1,
			out_evidence_ref = $2,
			notes = CASE WHEN $3 = '' THEN notes
			        WHEN notes = '' THEN $3
			        ELSE notes || E'\n' || $3 END,
			version = version + 1
		WHERE id = $4
		RETURNING %s
	`, attendanceColumns)

	rec := &domain.AttendanceRecord{
		ID: id,
	}
	if err := scanAttendanceRecord(tx.QueryRowContext(ctx, query, outTime, outEvidenceRef, notesAppend, id), rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return rec, nil
}

// DecideAttendance 写入审批结论，并在同一个事务内把关联的补卡申请解决为相同结论。
// 更新带乐观锁版本号，版本不匹配时返回 sql.ErrNoRows，调用方提示重试。
func (r *Repository) DecideAttendance(rec *domain.AttendanceRecord, note string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE attendance_records
		SET
			approval_status = $1,
			notes = $2,
			closed_by_user_id = $3,
			closed_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	args := []any{rec.ApprovalStatus, rec.Notes, rec.ClosedByUserID, rec.ClosedAt, rec.ID, rec.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&rec.Version); err != nil {
		return err
	}

	// 关联补卡申请（如有）随考勤记录一起解决，结论一致
	query = `
		UPDATE adjust_requests
		SET
			status = $1,
			resolved_by_user_id = $2,
			resolved_at = $3,
			resolution_note = CASE WHEN $4 = '' THEN resolution_note ELSE $4 END,
			version = version + 1
		WHERE linked_attendance_id = $5 AND status = 'pending'
	`

	if _, err := tx.ExecContext(ctx, query, rec.ApprovalStatus, rec.ClosedByUserID, rec.ClosedAt, note, rec.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// ListAttendanceRecords 按条件查询考勤记录，供审批列表和看板聚合使用。
func (r *Repository) ListAttendanceRecords(filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, %s FROM attendance_records
		WHERE ($1::text IS NULL OR identity_kind = $1)
			AND ($2::bigint IS NULL OR identity_id = $2)
			AND ($3::bigint IS NULL OR plant_id = $3)
			AND ($4::text IS NULL OR approval_status = $4)
			AND ($5::timestamptz IS NULL OR in_time >= $5)
			AND ($6::timestamptz IS NULL OR in_time < $6)
		ORDER BY in_time DESC
	`, attendanceColumns)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var identityKind, identityID any
	if filter.Identity != nil {
		identityKind = filter.Identity.Kind
		identityID = filter.Identity.ID
	}

	args := []any{identityKind, identityID, filter.PlantID, filter.Status, filter.From, filter.To}
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AttendanceRecord, 0)
	for rows.Next() {
		rec := &domain.AttendanceRecord{}
		dst := []any{
			&rec.ID,
			&rec.Identity.Kind, &rec.Identity.ID, &rec.PlantID, &rec.VehicleID, &rec.AssignmentID,
			&rec.InTime, &rec.OutTime, &rec.InEvidenceRef, &rec.OutEvidenceRef,
			&rec.ApprovalStatus, &rec.Source, &rec.Notes, &rec.ClosedByUserID, &rec.ClosedAt, &rec.CreatedAt, &rec.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ListPendingForApprover 列出某审批人可以决定的待审批记录：
// 路由表指向该审批人的记录，加上其授权厂区内未配置路由的普通司机记录。
// isGlobal 为真（管理员）时不做厂区限制。
func (r *Repository) ListPendingForApprover(approverUserID int64, plantIDs []int64, isGlobal bool, filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT r.id, %s FROM attendance_records r
		WHERE approval_status = 'pending'
			AND ($4::bigint IS NULL OR plant_id = $4)
			AND ($5::timestamptz IS NULL OR in_time >= $5)
			AND ($6::timestamptz IS NULL OR in_time < $6)
			AND ($7::text IS NULL OR identity_kind = $7)
			AND ($8::bigint IS NULL OR identity_id = $8)
			AND (
				EXISTS (
					SELECT 1 FROM approval_workflow_mappings m
					WHERE m.approver_user_id = $1
						AND (
							(m.subject_kind = 'supervisor_without_driver' AND r.identity_kind = 'supervisor' AND m.subject_user_id = r.identity_id)
							OR (m.subject_kind = 'supervisor_with_driver' AND r.identity_kind = 'driver'
								AND m.subject_user_id = (SELECT d.user_id FROM drivers d WHERE d.id = r.identity_id))
						)
				)
				OR (
					r.identity_kind = 'driver'
					AND NOT EXISTS (
						SELECT 1 FROM approval_workflow_mappings m2
						JOIN drivers d2 ON d2.id = r.identity_id
						WHERE m2.subject_kind = 'supervisor_with_driver' AND m2.subject_user_id = d2.user_id
					)
					AND ($2 OR r.plant_id = ANY ($3))
				)
				OR ($2 AND r.identity_kind = 'supervisor')
			)
		ORDER BY in_time DESC
	`, attendanceColumns)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var identityKind, identityID any
	if filter.Identity != nil {
		identityKind = filter.Identity.Kind
		identityID = filter.Identity.ID
	}

	// pgx 的 stdlib 驱动可以直接把 int64 切片绑定为 bigint[]
	args := []any{approverUserID, isGlobal, plantIDs, filter.PlantID, filter.From, filter.To, identityKind, identityID}
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AttendanceRecord, 0)
	for rows.Next() {
		rec := &domain.AttendanceRecord{}
		dst := []any{
			&rec.ID,
			&rec.Identity.Kind, &rec.Identity.ID, &rec.PlantID, &rec.VehicleID, &rec.AssignmentID,
			&rec.InTime, &rec.OutTime, &rec.InEvidenceRef, &rec.OutEvidenceRef,
			&rec.ApprovalStatus, &rec.Source, &rec.Notes, &rec.ClosedByUserID, &rec.ClosedAt, &rec.CreatedAt, &rec.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
