package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleet-tracking-api/models"
	"fleet-tracking-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LocationHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewLocationHandler(db *gorm.DB, cache *services.CacheService) *LocationHandler {
	return &LocationHandler{db: db, cache: cache}
}

// Latitude and longitude are pointers so that 0 — the equator and the
// prime meridian — survives the required check.
type LocationRequest struct {
	BusID     uint     `json:"bus_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	SpeedKMH  float64  `json:"speed_kmh" binding:"gte=0,lte=120"`
	Heading   float64  `json:"heading" binding:"gte=0,lt=360"`
}

// Report appends one telemetry sample and republishes it on the live
// channel for websocket subscribers.
func (h *LocationHandler) Report(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var bus models.Bus
	if err := h.db.First(&bus, req.BusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	location := models.BusLocation{
		BusID:      req.BusID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		SpeedKMH:   req.SpeedKMH,
		Heading:    req.Heading,
		RecordedAt: time.Now(),
	}
	if err := h.db.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Publish(context.Background(), services.ChannelLive, services.LiveEvent{
		Type: "location_update",
		Data: location,
	})
	go h.cache.Set(context.Background(),
		fmt.Sprintf("locations:latest:%d", req.BusID), location, 60*time.Second)

	c.JSON(http.StatusCreated, gin.H{"data": location})
}

func (h *LocationHandler) Latest(c *gin.Context) {
	busID, err := strconv.ParseUint(c.Param("busId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus id"})
		return
	}

	cacheKey := fmt.Sprintf("locations:latest:%d", busID)
	var cached models.BusLocation
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.BusID != 0 {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	var location models.BusLocation
	err = h.db.Where("bus_id = ?", busID).
		Order("recorded_at DESC").
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no location recorded for bus"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": location})
}

func (h *LocationHandler) History(c *gin.Context) {
	busID, err := strconv.ParseUint(c.Param("busId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus id"})
		return
	}

	p := PageFromQuery(c)

	query := p.Apply(
		h.db.Model(&models.BusLocation{}).Where("bus_id = ?", busID),
		"recorded_at",
	)

	var rows []models.BusLocation
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	rows, hasMore := TrimPage(p, rows)

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = Cursor(rows[len(rows)-1].RecordedAt)
	}

	c.JSON(http.StatusOK, PagedResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore})
}
