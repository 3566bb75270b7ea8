package attendance

import (
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

// Group 看板聚合后的分组：某个主体在某个自然日的全部记录。
type Group struct {
	Identity        domain.Identity            `json:"identity"`
	Day             time.Time                  `json:"day"` // 当天零点
	FirstIn         time.Time                  `json:"firstIn"`
	LastOut         *time.Time                 `json:"lastOut"`
	EffectiveStatus domain.ApprovalStatus      `json:"effectiveStatus"`
	Records         []*domain.AttendanceRecord `json:"records"`
}

// 状态优先级：Pending(1) < Rejected(2) < Approved(3) < 其他(4)，数值小者胜出。
// “最需要关注的状态优先展示”是刻意的业务规则，看板对齐依赖这个顺序。
func statusPriority(status domain.ApprovalStatus) int {
	switch status {
	case domain.StatusPending:
		return 1
	case domain.StatusRejected:
		return 2
	case domain.StatusApproved:
		return 3
	default:
		return 4
	}
}

// GroupRecords 把原始考勤记录按（主体, 上班时间的自然日）聚合，
// 上班时间为零值时退回下班时间的自然日。
// 分组按最近活动时间（lastOut -> firstIn -> 当天零点）降序排列。
func GroupRecords(records []*domain.AttendanceRecord) []*Group {
	type key struct {
		identity domain.Identity
		day      time.Time
	}

	groupsMap := make(map[key]*Group)
	order := make([]key, 0)

	for _, rec := range records {
		t := rec.InTime
		if t.IsZero() && rec.OutTime != nil {
			t = *rec.OutTime
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

		k := key{identity: rec.Identity, day: day}
		group, exists := groupsMap[k]
		if !exists {
			group = &Group{
				Identity: rec.Identity,
				Day:      day,
				Records:  make([]*domain.AttendanceRecord, 0, 1),
			}
			groupsMap[k] = group
			order = append(order, k)
		}
		group.Records = append(group.Records, rec)
	}

	groups := make([]*Group, 0, len(groupsMap))
	for _, k := range order {
		group := groupsMap[k]

		for i, rec := range group.Records {
			if i == 0 || rec.InTime.Before(group.FirstIn) {
				group.FirstIn = rec.InTime
			}
			if rec.OutTime != nil && (group.LastOut == nil || rec.OutTime.After(*group.LastOut)) {
				group.LastOut = rec.OutTime
			}
			if i == 0 || statusPriority(rec.ApprovalStatus) < statusPriority(group.EffectiveStatus) {
				group.EffectiveStatus = rec.ApprovalStatus
			}
		}

		sort.Slice(group.Records, func(i, j int) bool {
			return group.Records[i].InTime.Before(group.Records[j].InTime)
		})

		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groupActivity(groups[i]).After(groupActivity(groups[j]))
	})

	return groups
}

// groupActivity 分组的最近活动时间，用于降序排列。
func groupActivity(g *Group) time.Time {
	if g.LastOut != nil {
		return *g.LastOut
	}
	if !g.FirstIn.IsZero() {
		return g.FirstIn
	}
	return g.Day
}
