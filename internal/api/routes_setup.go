package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/handlers"
)

func registerSetupRoutes(r *gin.Engine, handler *handlers.SetupHandler) {
	setup := r.Group("/api/setup")
	{
		setup.GET("/status", handler.Status)
		setup.POST("/initialize", handler.Initialize)
	}
}
