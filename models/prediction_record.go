package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PredictionStatusPending   = "pending"
	PredictionStatusInTransit = "in_transit"
	PredictionStatusArrived   = "arrived"
	// No operation transitions into cancelled; it exists for external
	// invalidation of predictions whose trip was cancelled.
	PredictionStatusCancelled = "cancelled"
)

// PredictionRecord is one arrival prediction for a (bus, route, stop)
// triple. Records are created per request and never upserted, so several
// may coexist for the same triple with different creation times. Accuracy
// stays nil until the actual arrival is reported.
type PredictionRecord struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BusID                uint       `gorm:"column:bus_id;index" json:"bus_id"`
	RouteID              uint       `gorm:"column:route_id;index" json:"route_id"`
	DriverID             *uint      `gorm:"column:driver_id" json:"driver_id"`
	StopNumber           int        `gorm:"column:stop_number" json:"stop_number"`
	Latitude             float64    `gorm:"column:latitude" json:"latitude"`
	Longitude            float64    `gorm:"column:longitude" json:"longitude"`
	PredictedArrivalTime time.Time  `gorm:"column:predicted_arrival_time" json:"predicted_arrival_time"`
	ActualArrivalTime    *time.Time `gorm:"column:actual_arrival_time" json:"actual_arrival_time"`
	Accuracy             *float64   `gorm:"column:accuracy" json:"accuracy"`
	TrafficConditions    string     `gorm:"column:traffic_conditions" json:"traffic_conditions"`
	WeatherConditions    string     `gorm:"column:weather_conditions" json:"weather_conditions"`
	TimeOfDay            string     `gorm:"column:time_of_day" json:"time_of_day"`
	DayOfWeek            string     `gorm:"column:day_of_week" json:"day_of_week"`
	CurrentSpeed         float64    `gorm:"column:current_speed" json:"current_speed"`
	DistanceToStop       float64    `gorm:"column:distance_to_stop" json:"distance_to_stop"`
	Status               string     `gorm:"column:status;default:pending" json:"status"`
	CreatedAt            time.Time  `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (PredictionRecord) TableName() string { return "prediction_records" }

func (p *PredictionRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
