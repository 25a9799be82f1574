package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleet-tracking-api/middleware"
	"fleet-tracking-api/models"
	"fleet-tracking-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PredictionHandler struct {
	db          *gorm.DB
	cache       *services.CacheService
	predictions *services.PredictionService
}

func NewPredictionHandler(db *gorm.DB, cache *services.CacheService, predictions *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{db: db, cache: cache, predictions: predictions}
}

// Coordinates are pointers so a zero value passes the required check.
type GeneratePredictionRequest struct {
	BusID             uint     `json:"bus_id" binding:"required"`
	RouteID           uint     `json:"route_id" binding:"required"`
	StopNumber        int      `json:"stop_number" binding:"gte=0"`
	Latitude          *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude         *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	TrafficConditions string   `json:"traffic_conditions" binding:"omitempty,oneof=low medium high"`
	WeatherConditions string   `json:"weather_conditions" binding:"omitempty,oneof=clear rainy snowy foggy"`
	CurrentSpeed      float64  `json:"current_speed" binding:"gte=0,lte=120"`
	DistanceToStop    float64  `json:"distance_to_stop" binding:"gte=0"`
}

type ReportActualRequest struct {
	ActualArrivalTime time.Time `json:"actual_arrival_time" binding:"required"`
}

func (h *PredictionHandler) Generate(c *gin.Context) {
	var req GeneratePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	in := services.GenerateInput{
		BusID:             req.BusID,
		RouteID:           req.RouteID,
		StopNumber:        req.StopNumber,
		Latitude:          *req.Latitude,
		Longitude:         *req.Longitude,
		TrafficConditions: req.TrafficConditions,
		WeatherConditions: req.WeatherConditions,
		CurrentSpeed:      req.CurrentSpeed,
		DistanceToStop:    req.DistanceToStop,
	}
	if claims := middleware.GetClaims(c); claims != nil {
		in.DriverID = claims.DriverRef()
	}

	record, err := h.predictions.Generate(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBusNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
		case errors.Is(err, services.ErrRouteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": record})
}

func (h *PredictionHandler) ReportActual(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction id"})
		return
	}

	var req ReportActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	record, err := h.predictions.ReportActual(c.Request.Context(), id, req.ActualArrivalTime)
	if err != nil {
		if errors.Is(err, services.ErrPredictionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (h *PredictionHandler) List(c *gin.Context) {
	p := PageFromQuery(c)

	busID := c.Query("bus_id")
	routeID := c.Query("route_id")
	beforeStr := ""
	if p.Before != nil {
		beforeStr = Cursor(*p.Before)
	}
	cacheKey := fmt.Sprintf("predictions:%s:%s:%d:%s", busID, routeID, p.Size, beforeStr)

	var cached PagedResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := p.Apply(h.db.Model(&models.PredictionRecord{}), "created_at")
	if busID != "" {
		query = query.Where("bus_id = ?", busID)
	}
	if routeID != "" {
		query = query.Where("route_id = ?", routeID)
	}

	var rows []models.PredictionRecord
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	rows, hasMore := TrimPage(p, rows)

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = Cursor(rows[len(rows)-1].CreatedAt)
	}

	resp := PagedResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// NextArrivals serves clients polling for upcoming arrivals at a stop.
func (h *PredictionHandler) NextArrivals(c *gin.Context) {
	stopStr := c.Query("stop")
	stop, err := strconv.Atoi(stopStr)
	if err != nil || stop < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stop parameter, must be a non-negative integer"})
		return
	}

	var routeID *uint
	if routeStr := c.Query("route_id"); routeStr != "" {
		parsed, err := strconv.ParseUint(routeStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route_id parameter"})
			return
		}
		id := uint(parsed)
		routeID = &id
	}

	limit := DefaultPageSize
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= MaxPageSize {
			limit = l
		}
	}

	records, err := h.predictions.NextArrivals(c.Request.Context(), stop, routeID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *PredictionHandler) Accuracy(c *gin.Context) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)
	if fromStr := c.Query("from"); fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from parameter, must be RFC3339"})
			return
		}
		from = t
	}
	if toStr := c.Query("to"); toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to parameter, must be RFC3339"})
			return
		}
		to = t
	}

	var busID, routeID *uint
	if busStr := c.Query("bus_id"); busStr != "" {
		parsed, err := strconv.ParseUint(busStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus_id parameter"})
			return
		}
		id := uint(parsed)
		busID = &id
	}
	if routeStr := c.Query("route_id"); routeStr != "" {
		parsed, err := strconv.ParseUint(routeStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route_id parameter"})
			return
		}
		id := uint(parsed)
		routeID = &id
	}

	stats, err := h.predictions.AccuracyStats(c.Request.Context(), from, to, busID, routeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
