package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

const (
	openShiftConstraint    = "attendance_records_one_open_per_identity"
	activeAdjustConstraint = "adjust_requests_one_active_per_identity_date"
)

func isConstraintViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.ConstraintName == constraint
}

type CheckInParams struct {
	Identity     domain.Identity
	PlantID      int64
	VehicleID    *int64
	AssignmentID *int64
	Evidence     []byte
	EvidenceHint string
	Timestamp    time.Time
	Source       domain.AttendanceSource
	Notes        string
}

// CheckIn 打卡上班。同一主体已有未关闭班次时返回 Conflict(OpenShiftExists)；
// 存在性检查由数据库的部分唯一索引在插入时一并完成，单条语句即为临界区。
// 证据写入先于插入，证据写入失败则整个操作中止。
func (s *Service) CheckIn(ctx context.Context, p CheckInParams) (*domain.AttendanceRecord, error) {
	if p.PlantID <= 0 {
		return nil, validationError("缺少厂区")
	}
	if len(p.Evidence) == 0 {
		return nil, validationError("缺少打卡照片")
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}

	ref, err := s.evidence.Store(ctx, p.Evidence, p.EvidenceHint)
	if err != nil {
		return nil, fmt.Errorf("存储打卡照片失败: %w", err)
	}

	rec := &domain.AttendanceRecord{
		Identity:       p.Identity,
		PlantID:        p.PlantID,
		VehicleID:      p.VehicleID,
		AssignmentID:   p.AssignmentID,
		InTime:         p.Timestamp,
		InEvidenceRef:  ref,
		ApprovalStatus: domain.StatusPending,
		Source:         p.Source,
		Notes:          p.Notes,
	}

	if err := s.store.CreateAttendanceRecord(rec); err != nil {
		// 照片按内容寻址，同一引用可能已被其他记录共享，
		// 插入失败时不能删除，留下的文件会被后续相同内容的上传复用
		if isConstraintViolation(err, openShiftConstraint) {
			return nil, conflictError(CodeOpenShiftExists, "已存在未关闭的班次")
		}
		return nil, err
	}

	return rec, nil
}

type CheckOutParams struct {
	Identity     domain.Identity
	Evidence     []byte
	EvidenceHint string
	Timestamp    time.Time
	NotesAppend  string
}

type CheckOutResult struct {
	Record *domain.AttendanceRecord `json:"record"`
	// AlreadyUpdated 表示班次早已关闭，这次调用是一次重试，没有发生写入
	AlreadyUpdated bool `json:"alreadyUpdated"`
}

// CheckOut 打卡下班：关闭该主体最近一条未关闭的班次，保留原有审批状态。
// 没有未关闭班次时，若最近一条记录是当天刚关闭的则幂等返回既有记录，
// 否则返回 NotFound(NoOpenShift)。
func (s *Service) CheckOut(ctx context.Context, p CheckOutParams) (*CheckOutResult, error) {
	if len(p.Evidence) == 0 {
		return nil, validationError("缺少打卡照片")
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}

	ref, err := s.evidence.Store(ctx, p.Evidence, p.EvidenceHint)
	if err != nil {
		return nil, fmt.Errorf("存储打卡照片失败: %w", err)
	}

	rec, err := s.store.CloseOpenShift(p.Identity, p.Timestamp, ref, p.NotesAppend)
	if err == nil {
		return &CheckOutResult{Record: rec}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// 没有打开的班次，检查是不是对已关闭班次的重试
	latest, err := s.store.GetLatestRecordByIdentity(p.Identity)
	switch {
	case err == nil:
		if latest.OutTime != nil && sameDay(*latest.OutTime, p.Timestamp) {
			return &CheckOutResult{Record: latest, AlreadyUpdated: true}, nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	return nil, notFoundError(CodeNoOpenShift, "没有未关闭的班次")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
