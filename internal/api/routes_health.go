package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/app"
	"github.com/sonvt1710/graylog2-server/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, cfg *app.Config) {
	health := handlers.Health(db)
	r.GET("/health", health)
	r.GET("/api/health", health)

	prom := cfg.Monitoring.Prometheus
	if !prom.Enabled {
		return
	}
	endpoint := prom.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
