package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/database"
)

// Health reports liveness together with database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		dbStatus := "ok"
		if err := database.Ping(db); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			dbStatus = err.Error()
		}

		c.JSON(code, gin.H{
			"success":    code == http.StatusOK,
			"status":     status,
			"checks":     gin.H{"database": dbStatus},
			"checked_at": time.Now().UTC(),
		})
	}
}
