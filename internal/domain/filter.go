package domain

import "time"

// AttendanceFilter 考勤记录的查询条件，字段为空表示不过滤。
type AttendanceFilter struct {
	Identity *Identity
	PlantID  *int64
	Status   *ApprovalStatus
	From     *time.Time
	To       *time.Time
}
