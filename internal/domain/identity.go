package domain

import "fmt"

type IdentityKind string

const (
	IdentityDriver     IdentityKind = "driver"
	IdentitySupervisor IdentityKind = "supervisor" // 没有司机档案的主管
)

// Identity 打卡主体：司机，或者没有司机档案的主管。
// 旧系统把主管的用户 id 用哨兵前缀塞在备注字段里，这里改为显式的判别列。
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   int64        `json:"id"`
}

func DriverIdentity(driverID int64) Identity {
	return Identity{Kind: IdentityDriver, ID: driverID}
}

func SupervisorIdentity(userID int64) Identity {
	return Identity{Kind: IdentitySupervisor, ID: userID}
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}
