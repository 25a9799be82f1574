package models

import "time"

const (
	BusStatusActive      = "active"
	BusStatusInactive    = "inactive"
	BusStatusMaintenance = "maintenance"
)

type Bus struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	BusNumber string    `gorm:"column:bus_number;uniqueIndex" json:"bus_number"`
	Capacity  int       `gorm:"column:capacity" json:"capacity"`
	Status    string    `gorm:"column:status;default:active" json:"status"`
	RouteID   *uint     `gorm:"column:route_id" json:"route_id"`
	DriverID  *uint     `gorm:"column:driver_id" json:"driver_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Bus) TableName() string { return "buses" }
