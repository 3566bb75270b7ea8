package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

type mappingKey struct {
	kind          domain.MappingSubjectKind
	subjectUserID int64
}

// mockStore 基于内存的 Store 实现，行为与数据库实现保持一致：
// 读操作返回副本，唯一索引冲突返回对应约束名的 pgconn.PgError。
type mockStore struct {
	users       map[int64]*domain.User
	drivers     map[int64]*domain.Driver
	assignments map[int64]*domain.Assignment // 按司机 ID 存最近一条
	plantSets   map[int64][]int64
	mappings    map[mappingKey]*domain.ApprovalWorkflowMapping
	records     map[int64]*domain.AttendanceRecord
	adjusts     map[int64]*domain.AdjustRequest

	nextID int64

	plantSetCalls int

	createRecordErr error
	decideErr       error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[int64]*domain.User),
		drivers:     make(map[int64]*domain.Driver),
		assignments: make(map[int64]*domain.Assignment),
		plantSets:   make(map[int64][]int64),
		mappings:    make(map[mappingKey]*domain.ApprovalWorkflowMapping),
		records:     make(map[int64]*domain.AttendanceRecord),
		adjusts:     make(map[int64]*domain.AdjustRequest),
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func constraintError(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (m *mockStore) GetUserByID(id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (m *mockStore) GetDriverByID(id int64) (*domain.Driver, error) {
	driver, ok := m.drivers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *driver
	return &cp, nil
}

func (m *mockStore) GetLatestAssignment(driverID int64) (*domain.Assignment, error) {
	assignment, ok := m.assignments[driverID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *assignment
	return &cp, nil
}

func (m *mockStore) AuthorizedPlantIDs(userID int64) ([]int64, error) {
	m.plantSetCalls++
	return append([]int64{}, m.plantSets[userID]...), nil
}

func (m *mockStore) GetWorkflowMapping(subjectKind domain.MappingSubjectKind, subjectUserID int64) (*domain.ApprovalWorkflowMapping, error) {
	mapping, ok := m.mappings[mappingKey{kind: subjectKind, subjectUserID: subjectUserID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *mapping
	return &cp, nil
}

func (m *mockStore) openRecord(identity domain.Identity) *domain.AttendanceRecord {
	var open *domain.AttendanceRecord
	for _, rec := range m.records {
		if rec.Identity != identity || rec.OutTime != nil {
			continue
		}
		if open == nil || rec.InTime.After(open.InTime) {
			open = rec
		}
	}
	return open
}

func (m *mockStore) CreateAttendanceRecord(rec *domain.AttendanceRecord) error {
	if m.createRecordErr != nil {
		return m.createRecordErr
	}
	if rec.OutTime == nil && m.openRecord(rec.Identity) != nil {
		return constraintError(openShiftConstraint)
	}

	rec.ID = m.id()
	rec.CreatedAt = time.Now()
	rec.Version = 1

	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockStore) GetAttendanceRecordByID(id int64) (*domain.AttendanceRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockStore) GetLatestRecordByIdentity(identity domain.Identity) (*domain.AttendanceRecord, error) {
	var latest *domain.AttendanceRecord
	for _, rec := range m.records {
		if rec.Identity != identity {
			continue
		}
		if latest == nil || rec.InTime.After(latest.InTime) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (m *mockStore) CloseOpenShift(identity domain.Identity, outTime time.Time, outEvidenceRef string, notesAppend string) (*domain.AttendanceRecord, error) {
	open := m.openRecord(identity)
	if open == nil {
		return nil, sql.ErrNoRows
	}

	open.OutTime = &outTime
	open.OutEvidenceRef = &outEvidenceRef
	switch {
	case notesAppend == "":
	case open.Notes == "":
		open.Notes = notesAppend
	default:
		open.Notes = open.Notes + "\n" + notesAppend
	}
	open.Version++

	cp := *open
	return &cp, nil
}

func (m *mockStore) DecideAttendance(rec *domain.AttendanceRecord, note string) error {
	if m.decideErr != nil {
		return m.decideErr
	}

	stored, ok := m.records[rec.ID]
	if !ok || stored.Version != rec.Version {
		return sql.ErrNoRows
	}

	stored.ApprovalStatus = rec.ApprovalStatus
	stored.ClosedByUserID = rec.ClosedByUserID
	stored.ClosedAt = rec.ClosedAt
	stored.Notes = rec.Notes
	stored.Version++
	rec.Version = stored.Version

	for _, req := range m.adjusts {
		if req.LinkedAttendanceID != rec.ID || req.Status != domain.StatusPending {
			continue
		}
		req.Status = rec.ApprovalStatus
		req.ResolvedByUserID = rec.ClosedByUserID
		req.ResolvedAt = rec.ClosedAt
		if note != "" {
			req.ResolutionNote = note
		}
		req.Version++
	}

	return nil
}

func (m *mockStore) ListAttendanceRecords(filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error) {
	result := make([]*domain.AttendanceRecord, 0)
	for _, rec := range m.records {
		if !matchFilter(rec, filter) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockStore) ListPendingForApprover(approverUserID int64, plantIDs []int64, isGlobal bool, filter domain.AttendanceFilter) ([]*domain.AttendanceRecord, error) {
	result := make([]*domain.AttendanceRecord, 0)
	for _, rec := range m.records {
		if rec.ApprovalStatus != domain.StatusPending || !matchFilter(rec, filter) {
			continue
		}
		if isGlobal {
			cp := *rec
			result = append(result, &cp)
			continue
		}
		if m.routedTo(rec, approverUserID, plantIDs) {
			cp := *rec
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockStore) routedTo(rec *domain.AttendanceRecord, approverUserID int64, plantIDs []int64) bool {
	switch rec.Identity.Kind {
	case domain.IdentitySupervisor:
		mapping, ok := m.mappings[mappingKey{kind: domain.SubjectSupervisorWithoutDriver, subjectUserID: rec.Identity.ID}]
		return ok && mapping.ApproverUserID == approverUserID
	case domain.IdentityDriver:
		driver, ok := m.drivers[rec.Identity.ID]
		if !ok {
			return false
		}
		if driver.UserID != nil {
			if mapping, ok := m.mappings[mappingKey{kind: domain.SubjectSupervisorWithDriver, subjectUserID: *driver.UserID}]; ok {
				return mapping.ApproverUserID == approverUserID
			}
		}
		for _, plantID := range plantIDs {
			if plantID == rec.PlantID {
				return true
			}
		}
	}
	return false
}

func matchFilter(rec *domain.AttendanceRecord, filter domain.AttendanceFilter) bool {
	if filter.Identity != nil && rec.Identity != *filter.Identity {
		return false
	}
	if filter.PlantID != nil && rec.PlantID != *filter.PlantID {
		return false
	}
	if filter.Status != nil && rec.ApprovalStatus != *filter.Status {
		return false
	}
	if filter.From != nil && rec.InTime.Before(*filter.From) {
		return false
	}
	// 与 SQL 保持一致：From 含边界，To 不含
	if filter.To != nil && !rec.InTime.Before(*filter.To) {
		return false
	}
	return true
}

func (m *mockStore) activeAdjust(identity domain.Identity, date time.Time) *domain.AdjustRequest {
	for _, req := range m.adjusts {
		if req.Identity == identity && req.Status != domain.StatusRejected && sameDay(req.RequestDate, date) {
			return req
		}
	}
	return nil
}

func (m *mockStore) CreateAdjustmentPair(rec *domain.AttendanceRecord, req *domain.AdjustRequest) error {
	for _, existing := range m.records {
		if existing.Identity == rec.Identity && sameDay(existing.InTime, rec.InTime) {
			return domain.ErrAlreadyRecorded
		}
	}
	if m.activeAdjust(req.Identity, req.RequestDate) != nil {
		return constraintError(activeAdjustConstraint)
	}

	rec.ID = m.id()
	rec.CreatedAt = time.Now()
	rec.Version = 1
	recCopy := *rec
	m.records[rec.ID] = &recCopy

	req.ID = m.id()
	req.LinkedAttendanceID = rec.ID
	req.CreatedAt = time.Now()
	req.Version = 1
	reqCopy := *req
	m.adjusts[req.ID] = &reqCopy

	return nil
}

func (m *mockStore) GetAdjustRequestByLinkedAttendanceID(attendanceID int64) (*domain.AdjustRequest, error) {
	for _, req := range m.adjusts {
		if req.LinkedAttendanceID == attendanceID {
			cp := *req
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// mockEvidence 内存证据存储，可注入失败。
type mockEvidence struct {
	err    error
	stored int
}

func (m *mockEvidence) Store(_ context.Context, data []byte, hint string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.stored++
	return fmt.Sprintf("evidence/%d-%s", m.stored, hint), nil
}

// mockPlantCache 内存厂区集合缓存，记录命中次数。
type mockPlantCache struct {
	sets map[int64][]int64
	hits int
}

func newMockPlantCache() *mockPlantCache {
	return &mockPlantCache{sets: make(map[int64][]int64)}
}

func (m *mockPlantCache) GetPlantSet(_ context.Context, userID int64) ([]int64, bool) {
	plantIDs, ok := m.sets[userID]
	if ok {
		m.hits++
	}
	return plantIDs, ok
}

func (m *mockPlantCache) SetPlantSet(_ context.Context, userID int64, plantIDs []int64) {
	m.sets[userID] = plantIDs
}

func newTestService(store *mockStore) (*Service, *mockEvidence) {
	evidence := &mockEvidence{}
	return NewService(store, evidence, nil, func() time.Time {
		return time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	}), evidence
}
