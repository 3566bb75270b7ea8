package domain

import "time"

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

type AttendanceSource string

const (
	SourceMobile        AttendanceSource = "mobile"
	SourceProxy         AttendanceSource = "proxy"
	SourceAdjustRequest AttendanceSource = "adjust_request"
)

type AttendanceRecord struct {
	ID             int64            `json:"id"`
	Identity       Identity         `json:"identity"`
	PlantID        int64            `json:"plantID"`
	VehicleID      *int64           `json:"vehicleID"`
	AssignmentID   *int64           `json:"assignmentID"`
	InTime         time.Time        `json:"inTime"`
	OutTime        *time.Time       `json:"outTime"` // 为空表示班次仍处于打开状态
	InEvidenceRef  string           `json:"inEvidenceRef"`
	OutEvidenceRef *string          `json:"outEvidenceRef"`
	ApprovalStatus ApprovalStatus   `json:"approvalStatus"`
	Source         AttendanceSource `json:"source"`
	Notes          string           `json:"notes"`
	ClosedByUserID *int64           `json:"closedByUserID"`
	ClosedAt       *time.Time       `json:"closedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	Version        int32            `json:"-"`
}

// IsOpen 判断班次是否未关闭。每个主体同时至多存在一条打开的记录。
func (r *AttendanceRecord) IsOpen() bool {
	return r.OutTime == nil
}
