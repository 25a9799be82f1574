package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Stop is one named point along a route, ordered by Sequence.
type Stop struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Sequence int     `json:"sequence"`
}

// StopList is stored as a single jsonb column.
type StopList []Stop

func (s StopList) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StopList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StopList: %T", value)
	}
	return json.Unmarshal(data, s)
}

type Route struct {
	ID               uint      `gorm:"column:id;primaryKey" json:"id"`
	Name             string    `gorm:"column:name;uniqueIndex" json:"name"`
	StartPoint       string    `gorm:"column:start_point" json:"start_point"`
	EndPoint         string    `gorm:"column:end_point" json:"end_point"`
	Stops            StopList  `gorm:"column:stops;type:jsonb" json:"stops"`
	TotalDistanceKM  float64   `gorm:"column:total_distance_km" json:"total_distance_km"`
	EstimatedTimeMin float64   `gorm:"column:estimated_time_min" json:"estimated_time_min"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Route) TableName() string { return "routes" }
