package models

import "time"

type BusLocation struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	BusID      uint      `gorm:"column:bus_id;index" json:"bus_id"`
	Latitude   float64   `gorm:"column:latitude" json:"latitude"`
	Longitude  float64   `gorm:"column:longitude" json:"longitude"`
	SpeedKMH   float64   `gorm:"column:speed_kmh" json:"speed_kmh"`
	Heading    float64   `gorm:"column:heading" json:"heading"`
	RecordedAt time.Time `gorm:"column:recorded_at;index" json:"recorded_at"`
}

func (BusLocation) TableName() string { return "bus_locations" }
