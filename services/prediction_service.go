package services

import (
	"context"
	"errors"
	"time"

	"fleet-tracking-api/config"
	"fleet-tracking-api/models"
	"fleet-tracking-api/prediction"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBusNotFound        = errors.New("bus not found")
	ErrRouteNotFound      = errors.New("route not found")
	ErrPredictionNotFound = errors.New("prediction not found")
)

// PredictionService owns the prediction records: generating them from a
// telemetry snapshot, reconciling them against reported arrivals, and
// aggregating accuracy for analytics.
type PredictionService struct {
	db    *gorm.DB
	cache *CacheService
	cfg   config.PredictionConfig
}

func NewPredictionService(db *gorm.DB, cache *CacheService, cfg config.PredictionConfig) *PredictionService {
	return &PredictionService{db: db, cache: cache, cfg: cfg}
}

type GenerateInput struct {
	BusID             uint
	RouteID           uint
	DriverID          *uint
	StopNumber        int
	Latitude          float64
	Longitude         float64
	TrafficConditions string
	WeatherConditions string
	CurrentSpeed      float64
	DistanceToStop    float64
}

// Generate validates the bus and route references, resolves the base
// travel time for the route, computes the predicted arrival and persists
// a new pending record. Records are never upserted: repeated calls for
// the same (bus, route, stop) coexist.
func (s *PredictionService) Generate(ctx context.Context, in GenerateInput) (*models.PredictionRecord, error) {
	var bus models.Bus
	if err := s.db.WithContext(ctx).First(&bus, in.BusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}

	var route models.Route
	if err := s.db.WithContext(ctx).First(&route, in.RouteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	baseTime, err := s.baseTimeForRoute(ctx, in.RouteID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	factors := prediction.Factors{
		TrafficConditions: in.TrafficConditions,
		WeatherConditions: in.WeatherConditions,
		TimeOfDay:         prediction.TimeOfDayForHour(now.Hour()),
		CurrentSpeed:      in.CurrentSpeed,
		DistanceToStop:    in.DistanceToStop,
	}
	predicted := prediction.Compute(baseTime, factors, s.cfg.NeutralSpeedKMH, now)

	record := models.PredictionRecord{
		BusID:                in.BusID,
		RouteID:              in.RouteID,
		DriverID:             in.DriverID,
		StopNumber:           in.StopNumber,
		Latitude:             in.Latitude,
		Longitude:            in.Longitude,
		PredictedArrivalTime: predicted,
		TrafficConditions:    factors.TrafficConditions,
		WeatherConditions:    factors.WeatherConditions,
		TimeOfDay:            factors.TimeOfDay,
		DayOfWeek:            now.Weekday().String(),
		CurrentSpeed:         in.CurrentSpeed,
		DistanceToStop:       in.DistanceToStop,
		Status:               models.PredictionStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	go s.cache.Publish(context.Background(), ChannelLive, LiveEvent{
		Type: "prediction_created",
		Data: record,
	})

	return &record, nil
}

// ReportActual records the observed arrival and stores the accuracy
// score. A repeated call overwrites the previous reconciliation; the
// operation is not idempotent.
func (s *PredictionService) ReportActual(ctx context.Context, id uuid.UUID, actual time.Time) (*models.PredictionRecord, error) {
	var record models.PredictionRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}

	accuracy := prediction.Reconcile(record.PredictedArrivalTime, actual)
	record.ActualArrivalTime = &actual
	record.Accuracy = &accuracy
	record.Status = models.PredictionStatusArrived

	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// NextArrivals returns the open predictions for a stop whose predicted
// arrival is still in the future, soonest first.
func (s *PredictionService) NextArrivals(ctx context.Context, stopNumber int, routeID *uint, limit int) ([]models.PredictionRecord, error) {
	query := s.db.WithContext(ctx).
		Where("stop_number = ?", stopNumber).
		Where("status IN ?", []string{models.PredictionStatusPending, models.PredictionStatusInTransit}).
		Where("predicted_arrival_time > ?", time.Now()).
		Order("predicted_arrival_time ASC").
		Limit(limit)
	if routeID != nil {
		query = query.Where("route_id = ?", *routeID)
	}

	var records []models.PredictionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type AccuracyStats struct {
	AverageAccuracy   float64 `json:"average_accuracy"`
	TotalPredictions  int64   `json:"total_predictions"`
	AccurateCount     int64   `json:"accurate_count"`
	AccurateThreshold float64 `json:"accurate_threshold"`
}

// AccuracyStats reduces the records in [from, to) to the analytics
// summary: mean accuracy over reconciled records, total record count,
// and the count at or above the accurate threshold.
func (s *PredictionService) AccuracyStats(ctx context.Context, from, to time.Time, busID, routeID *uint) (*AccuracyStats, error) {
	query := s.db.WithContext(ctx).Model(&models.PredictionRecord{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	if busID != nil {
		query = query.Where("bus_id = ?", *busID)
	}
	if routeID != nil {
		query = query.Where("route_id = ?", *routeID)
	}

	stats := AccuracyStats{AccurateThreshold: s.cfg.AccurateThreshold}
	row := query.Select(
		"COALESCE(AVG(accuracy), 0), COUNT(*), COUNT(*) FILTER (WHERE accuracy >= ?)",
		s.cfg.AccurateThreshold,
	).Row()
	if err := row.Scan(&stats.AverageAccuracy, &stats.TotalPredictions, &stats.AccurateCount); err != nil {
		return nil, err
	}
	return &stats, nil
}

// baseTimeForRoute is the arithmetic mean of the recorded trip durations
// for the route (creation to reported arrival, in minutes). Routes with
// no reconciled history fall back to the configured default.
func (s *PredictionService) baseTimeForRoute(ctx context.Context, routeID uint) (float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).Model(&models.PredictionRecord{}).
		Where("route_id = ? AND actual_arrival_time IS NOT NULL", routeID).
		Select("AVG(EXTRACT(EPOCH FROM (actual_arrival_time - created_at)) / 60)").
		Row().Scan(&avg)
	if err != nil {
		return 0, err
	}
	if avg == nil || *avg <= 0 {
		return s.cfg.DefaultBaseTimeMin, nil
	}
	return *avg, nil
}
