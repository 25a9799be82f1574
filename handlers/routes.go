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

type RouteHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewRouteHandler(db *gorm.DB, cache *services.CacheService) *RouteHandler {
	return &RouteHandler{db: db, cache: cache}
}

// Stop coordinates are pointers so a zero value passes the required check.
type StopRequest struct {
	Name     string   `json:"name" binding:"required"`
	Lat      *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng      *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	Sequence int      `json:"sequence" binding:"gte=0"`
}

type RouteRequest struct {
	Name             string        `json:"name" binding:"required"`
	StartPoint       string        `json:"start_point" binding:"required"`
	EndPoint         string        `json:"end_point" binding:"required"`
	Stops            []StopRequest `json:"stops" binding:"omitempty,dive"`
	TotalDistanceKM  float64       `json:"total_distance_km" binding:"gte=0"`
	EstimatedTimeMin float64       `json:"estimated_time_min" binding:"gte=0"`
}

func (r RouteRequest) toStops() models.StopList {
	stops := make(models.StopList, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, models.Stop{Name: s.Name, Lat: *s.Lat, Lng: *s.Lng, Sequence: s.Sequence})
	}
	return stops
}

func (h *RouteHandler) List(c *gin.Context) {
	const cacheKey = "routes:all"

	var cached struct {
		Data []models.Route `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var routes []models.Route
	if err := h.db.Order("name").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"data": routes}
	go h.cache.Set(context.Background(), cacheKey, resp, 60*time.Second)

	c.JSON(http.StatusOK, resp)
}

func (h *RouteHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route id"})
		return
	}

	var route models.Route
	if err := h.db.First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": route})
}

func (h *RouteHandler) Create(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	route := models.Route{
		Name:             req.Name,
		StartPoint:       req.StartPoint,
		EndPoint:         req.EndPoint,
		Stops:            req.toStops(),
		TotalDistanceKM:  req.TotalDistanceKM,
		EstimatedTimeMin: req.EstimatedTimeMin,
	}
	if err := h.db.Create(&route).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "route name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Delete(context.Background(), "routes:all")

	c.JSON(http.StatusCreated, gin.H{"data": route})
}

func (h *RouteHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route id"})
		return
	}

	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	var route models.Route
	if err := h.db.First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	route.Name = req.Name
	route.StartPoint = req.StartPoint
	route.EndPoint = req.EndPoint
	route.Stops = req.toStops()
	route.TotalDistanceKM = req.TotalDistanceKM
	route.EstimatedTimeMin = req.EstimatedTimeMin

	if err := h.db.Save(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Delete(context.Background(), "routes:all")

	c.JSON(http.StatusOK, gin.H{"data": route})
}

func (h *RouteHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route id"})
		return
	}

	result := h.db.Delete(&models.Route{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}

	go h.cache.Delete(context.Background(), "routes:all")

	c.JSON(http.StatusOK, gin.H{"message": "route deleted"})
}
