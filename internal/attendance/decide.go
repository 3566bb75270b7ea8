package attendance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

type DecideResult struct {
	Record        *domain.AttendanceRecord `json:"record"`
	AdjustRequest *domain.AdjustRequest    `json:"adjustRequest"`
	// AlreadyUpdated 表示记录早已是目标状态，这次调用是一次重试，没有发生写入
	AlreadyUpdated bool `json:"alreadyUpdated"`
}

// Decide 审批状态机：Pending -> Approved | Rejected，终态不可再变。
// 重复提交相同结论幂等返回；提交相反结论返回 Conflict（翻转需要范围外的管理员操作）。
// 记录若配对了补卡申请，申请在同一个事务内被解决为相同结论。
func (s *Service) Decide(ctx context.Context, actor *domain.User, recordID int64, decision domain.ApprovalStatus, note string) (*DecideResult, error) {
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return nil, validationError("无效的审批结论")
	}

	rec, err := s.store.GetAttendanceRecordByID(recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError("", "考勤记录不存在")
		}
		return nil, err
	}

	ok, err := s.CanApprove(ctx, actor, rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, forbiddenError("没有审批该记录的权限")
	}

	// 幂等重试：已经是目标状态，原样返回，closed_at 不变
	if rec.ApprovalStatus == decision {
		result := &DecideResult{Record: rec, AlreadyUpdated: true}
		if req, err := s.linkedAdjustRequest(rec.ID); err != nil {
			return nil, err
		} else {
			result.AdjustRequest = req
		}
		return result, nil
	}

	if rec.ApprovalStatus != domain.StatusPending {
		return nil, conflictError(CodeIllegalStatusFlip, "记录已有相反的终态结论，不能翻转")
	}

	now := s.now()
	rec.ApprovalStatus = decision
	rec.ClosedByUserID = &actor.ID
	rec.ClosedAt = &now
	if note != "" {
		rec.Notes = note
	}

	if err := s.store.DecideAttendance(rec, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 乐观锁版本不匹配，说明有并发修改
			return nil, conflictError(CodeDecisionRetry, "记录已被其他人修改，请重试")
		}
		return nil, err
	}

	result := &DecideResult{Record: rec}
	if req, err := s.linkedAdjustRequest(rec.ID); err != nil {
		return nil, err
	} else {
		result.AdjustRequest = req
	}

	return result, nil
}

func (s *Service) linkedAdjustRequest(attendanceID int64) (*domain.AdjustRequest, error) {
	req, err := s.store.GetAdjustRequestByLinkedAttendanceID(attendanceID)
	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	default:
		return nil, err
	}
}
