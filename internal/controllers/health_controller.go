package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-analytics-api/pkg/cache"
	"portfolio-analytics-api/pkg/database"
)

type HealthController struct {
	db        *database.MongoDB
	cache     *cache.RedisClient
	startTime time.Time
}

func NewHealthController(db *database.MongoDB, cacheClient *cache.RedisClient) *HealthController {
	return &HealthController{
		db:        db,
		cache:     cacheClient,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Cache     string    `json:"cache"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
}

// Health godoc
// @Summary Health check endpoint
// @Description Check if the service and its dependencies are healthy
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (hc *HealthController) Health(c *gin.Context) {
	dbStatus := "connected"
	if err := hc.db.Ping(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	cacheStatus := "connected"
	if hc.cache == nil {
		cacheStatus = "disabled"
	} else if err := hc.cache.Ping(c.Request.Context()); err != nil {
		cacheStatus = "disconnected"
	}

	status := "healthy"
	code := http.StatusOK
	if dbStatus == "disconnected" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Database:  dbStatus,
		Cache:     cacheStatus,
		Uptime:    time.Since(hc.startTime).String(),
		Version:   "1.0.0",
	})
}
