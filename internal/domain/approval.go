package domain

type MappingSubjectKind string

const (
	SubjectSupervisorWithoutDriver MappingSubjectKind = "supervisor_without_driver"
	SubjectSupervisorWithDriver    MappingSubjectKind = "supervisor_with_driver"
)

// ApprovalWorkflowMapping 按主体类别配置的审批人。
// 没有司机档案的主管路由到人事；有司机档案的主管可选配置；
// 普通司机不配置，走厂区授权路由。
type ApprovalWorkflowMapping struct {
	ID             int64              `json:"id"`
	SubjectKind    MappingSubjectKind `json:"subjectKind"`
	SubjectUserID  int64              `json:"subjectUserID"`
	ApproverUserID int64              `json:"approverUserID"`
	ApproverRole   Role               `json:"approverRole"`
}
