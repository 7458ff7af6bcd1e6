package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/handlers"
	"github.com/sonvt1710/graylog2-server/internal/middleware"
)

func registerUserRoutes(api *gin.RouterGroup, userHandler *handlers.UserHandler) {
	users := api.Group("/users")
	users.Use(middleware.RequireRoot())
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.PUT("/:id/active", userHandler.SetActive)
	}
}
