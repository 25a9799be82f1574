package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fleet-tracking-api/models"
	"fleet-tracking-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BusHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewBusHandler(db *gorm.DB, cache *services.CacheService) *BusHandler {
	return &BusHandler{db: db, cache: cache}
}

type BusRequest struct {
	BusNumber string `json:"bus_number" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,gt=0"`
	Status    string `json:"status" binding:"omitempty,oneof=active inactive maintenance"`
	RouteID   *uint  `json:"route_id"`
	DriverID  *uint  `json:"driver_id"`
}

func (h *BusHandler) List(c *gin.Context) {
	const cacheKey = "buses:all"

	var cached struct {
		Data []models.Bus `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var buses []models.Bus
	if err := h.db.Order("bus_number").Find(&buses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"data": buses}
	go h.cache.Set(context.Background(), cacheKey, resp, 60*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *BusHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus id"})
		return
	}

	var bus models.Bus
	if err := h.db.First(&bus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bus})
}

func (h *BusHandler) Create(c *gin.Context) {
	var req BusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.BusStatusActive
	}

	bus := models.Bus{
		BusNumber: req.BusNumber,
		Capacity:  req.Capacity,
		Status:    status,
		RouteID:   req.RouteID,
		DriverID:  req.DriverID,
	}
	if err := h.db.Create(&bus).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "bus number already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Delete(context.Background(), "buses:all")

	c.JSON(http.StatusCreated, gin.H{"data": bus})
}

func (h *BusHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus id"})
		return
	}

	var req BusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var bus models.Bus
	if err := h.db.First(&bus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	bus.BusNumber = req.BusNumber
	bus.Capacity = req.Capacity
	if req.Status != "" {
		bus.Status = req.Status
	}
	bus.RouteID = req.RouteID
	bus.DriverID = req.DriverID

	if err := h.db.Save(&bus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Delete(context.Background(), "buses:all")

	c.JSON(http.StatusOK, gin.H{"data": bus})
}

func (h *BusHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus id"})
		return
	}

	result := h.db.Delete(&models.Bus{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "bus not found"})
		return
	}

	go h.cache.Delete(context.Background(), "buses:all")

	c.JSON(http.StatusOK, gin.H{"message": "bus deleted"})
}
