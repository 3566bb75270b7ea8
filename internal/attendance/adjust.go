package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

type AdjustmentParams struct {
	DriverID    int64
	RequestedBy domain.Identity
	ProposedIn  time.Time
	ProposedOut time.Time
	Reason      string
	PlantID     *int64
	VehicleID   *int64
}

type AdjustmentResult struct {
	Record  *domain.AttendanceRecord `json:"record"`
	Request *domain.AdjustRequest    `json:"request"`
}

// SubmitAdjustment 提交补卡申请：原子地创建一条预填上下班时间的
// 待审批考勤记录（来源 adjust_request）和与之配对的补卡申请。
// 厂区/车辆按 显式参数 -> 司机所属厂区 -> 最近派车记录 的顺序解析，先命中先用。
// 申请没有独立的审批入口，只会在审批配对考勤记录时一并解决。
func (s *Service) SubmitAdjustment(ctx context.Context, p AdjustmentParams) (*AdjustmentResult, error) {
	if !p.ProposedOut.After(p.ProposedIn) {
		return nil, validationError("下班时间必须晚于上班时间")
	}
	if p.Reason == "" {
		return nil, validationError("缺少补卡原因")
	}

	driver, err := s.store.GetDriverByID(p.DriverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("", "司机不存在")
		}
		return nil, err
	}

	plantID := driver.PlantID
	if p.PlantID != nil {
		plantID = *p.PlantID
	}

	vehicleID := p.VehicleID
	var assignmentID *int64
	if vehicleID == nil {
		assignment, err := s.store.GetLatestAssignment(driver.ID)
		switch {
		case err == nil:
			vehicleID = assignment.VehicleID
			assignmentID = &assignment.ID
		case errors.Is(err, sql.ErrNoRows):
			// 没有派车记录的补卡允许不带车辆
		default:
			return nil, err
		}
	}

	identity := domain.DriverIdentity(driver.ID)
	rec := &domain.AttendanceRecord{
		Identity:       identity,
		PlantID:        plantID,
		VehicleID:      vehicleID,
		AssignmentID:   assignmentID,
		InTime:         p.ProposedIn,
		OutTime:        &p.ProposedOut,
		ApprovalStatus: domain.StatusPending,
		Source:         domain.SourceAdjustRequest,
	}
	req := &domain.AdjustRequest{
		Identity:    identity,
		RequestedBy: p.RequestedBy,
		RequestDate: p.ProposedIn,
		ProposedIn:  p.ProposedIn,
		ProposedOut: p.ProposedOut,
		Reason:      p.Reason,
		Status:      domain.StatusPending,
	}

	if err := s.store.CreateAdjustmentPair(rec, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRecorded):
			return nil, conflictError(CodeAlreadyRecorded, "当天已存在考勤记录")
		case isConstraintViolation(err, activeAdjustConstraint):
			return nil, conflictError(CodeDuplicateRequest, "当天已存在待处理的补卡申请")
		default:
			return nil, err
		}
	}

	return &AdjustmentResult{Record: rec, Request: req}, nil
}
