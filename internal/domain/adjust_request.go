package domain

import "time"

// AdjustRequest 补卡申请，与一条预填的考勤记录成对创建，
// 只会作为审批该考勤记录的副作用被解决。
type AdjustRequest struct {
	ID                 int64          `json:"id"`
	Identity           Identity       `json:"identity"`
	RequestedBy        Identity       `json:"requestedBy"`
	RequestDate        time.Time      `json:"requestDate"` // 仅日期部分有效
	ProposedIn         time.Time      `json:"proposedIn"`
	ProposedOut        time.Time      `json:"proposedOut"`
	Reason             string         `json:"reason"`
	Status             ApprovalStatus `json:"status"`
	ResolvedByUserID   *int64         `json:"resolvedByUserID"`
	ResolvedAt         *time.Time     `json:"resolvedAt"`
	ResolutionNote     string         `json:"resolutionNote"`
	LinkedAttendanceID int64          `json:"linkedAttendanceID"`
	CreatedAt          time.Time      `json:"createdAt"`
	Version            int32          `json:"-"`
}
