package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"trackerscope/internal/telemetry"

	"github.com/gin-gonic/gin"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type CacheReporter interface {
	CacheStats() telemetry.CacheStats
}

type HealthHandler struct {
	DB             HealthChecker
	Telemetry      *telemetry.Registry
	Cache          CacheReporter
	ReferenceSizes map[string]int
	AppVersion     string
	StartTime      time.Time
}

func NewHealthHandler(database HealthChecker, reg *telemetry.Registry, cache CacheReporter, appVersion string) *HealthHandler {
	return &HealthHandler{
		DB:             database,
		Telemetry:      reg,
		Cache:          cache,
		ReferenceSizes: map[string]int{},
		AppVersion:     appVersion,
		StartTime:      time.Now(),
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.DB != nil {
		dbStatus = "healthy"
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := gin.H{
		"status":  "ok",
		"version": h.AppVersion,
		"uptime":  time.Since(h.StartTime).String(),
		"database": gin.H{
			"status": dbStatus,
		},
		"memory": gin.H{
			"alloc_mb":       memStats.Alloc / 1024 / 1024,
			"sys_mb":         memStats.Sys / 1024 / 1024,
			"num_goroutines": runtime.NumGoroutine(),
		},
		"reference_sizes": h.ReferenceSizes,
	}

	if h.Telemetry != nil {
		response["sources"] = h.Telemetry.AllStats()
		response["overall_source_health"] = string(h.Telemetry.Overall())
	}

	caches := []telemetry.CacheStats{}
	if h.Cache != nil {
		caches = append(caches, h.Cache.CacheStats())
	}
	response["caches"] = caches

	c.JSON(http.StatusOK, response)
}
