package domain

import "time"

type Driver struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"userID"` // 非空表示该司机同时拥有主管用户账号
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	PlantID      int64     `json:"plantID"` // 所属厂区
	IsActive     bool      `json:"isActive"`
	ProxyEnabled bool      `json:"proxyEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
