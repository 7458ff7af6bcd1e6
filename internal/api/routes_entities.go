package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/handlers"
)

func registerEntityRoutes(api *gin.RouterGroup, entityHandler *handlers.EntityHandler) {
	entities := api.Group("/entities")
	{
		entities.GET("", entityHandler.List)
		entities.POST("", entityHandler.Create)
		entities.GET("/:grn", entityHandler.Get)
		entities.GET("/:grn/dependencies", entityHandler.Dependencies)
		entities.POST("/:grn/dependencies", entityHandler.AddDependency)
	}
}
