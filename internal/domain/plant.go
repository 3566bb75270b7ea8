package domain

import "time"

type Plant struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	PrimarySupervisorID *int64    `json:"primarySupervisorID"`
	CreatedAt           time.Time `json:"createdAt"`
	Version             int32     `json:"-"`
}

type Vehicle struct {
	ID          int64  `json:"id"`
	PlantID     int64  `json:"plantID"`
	PlateNumber string `json:"plateNumber"`
}

// Assignment 司机与车辆的派车记录，started_at 最新的一条为当前派车。
type Assignment struct {
	ID        int64     `json:"id"`
	DriverID  int64     `json:"driverID"`
	VehicleID *int64    `json:"vehicleID"`
	StartedAt time.Time `json:"startedAt"`
}

// SupervisorPlantGrant 主管对厂区的授权边，与厂区的主要主管列共同构成授权来源。
type SupervisorPlantGrant struct {
	UserID  int64 `json:"userID"`
	PlantID int64 `json:"plantID"`
}
