package attendance

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// Store 核心引擎需要的存储能力，由 repository.Repository 实现。
// 四个竞态关键的写操作（打卡上班、打卡下班、审批、补卡提交）
// 在实现侧各自是一个事务。
type Store interface {
	GetUserByID(id int64) (*domain.User, error)
	GetDriverByID(id int64) (*domain.Driver, error)
	GetLatestAssignment(driverID int64) (*domain.Assignment, error)
	AuthorizedPlantIDs(userID int64) ([]int64, error)
	GetWorkflowMapping(subjectKind domain.MappingSubjectKind, subjectUserID int64) (*domain.ApprovalWorkflowMapping, error)

	CreateAttendanceRecord(rec *domain.AttendanceRecord) error
	GetAttendanceRecordByID(id int64) (*domain.AttendanceRecord, error)
	GetLatestRecordByIdentity(identity domain.Identity) (*domain.AttendanceRecord, error)
	CloseOpenShift(identity domain.Identity, outTime time.Time, outEvidenceRef string, notesAppend string) (*domain.AttendanceRecord, error)
	DecideAttendance(rec *domain.AttendanceRecord, note string) error
	ListAttendanceRecords(filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error)
	ListPendingForApprover(approverUserID int64, plantIDs []int64, isGlobal bool, filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error)

	CreateAdjustmentPair(rec *domain.AttendanceRecord, req *domain.AdjustRequest) error
	GetAdjustRequestByLinkedAttendanceID(attendanceID int64) (*domain.AdjustRequest, error)
}

// EvidenceStore 证据（照片）存储能力，存储本身是外部协作方。
// 必须在数据库事务提交之前完成，失败则整个操作中止。
type EvidenceStore interface {
	Store(ctx context.Context, data []byte, hint string) (string, error)
}

// PlantSetCache 授权厂区集合的缓存。授权数据读多写少且本子系统从不修改它，
// 实现可以直接按 TTL 过期，不需要失效通知。
type PlantSetCache interface {
	GetPlantSet(ctx context.Context, userID int64) ([]int64, bool)
	SetPlantSet(ctx context.Context, userID int64, plantIDs []int64)
}

type Service struct {
	store    Store
	evidence EvidenceStore
	cache    PlantSetCache // 可以为 nil
	now      func() time.Time
}

func NewService(store Store, evidence EvidenceStore, cache PlantSetCache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		evidence: evidence,
		cache:    cache,
		now:      now,
	}
}
