package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/handlers"
)

func registerShareRoutes(api *gin.RouterGroup, shareHandler *handlers.EntityShareHandler) {
	shares := api.Group("/authz/shares")
	{
		shares.GET("/grantees", shareHandler.Grantees)
		shares.POST("/entities/:grn/prepare", shareHandler.Prepare)
		shares.POST("/entities/:grn", shareHandler.Update)
		shares.GET("/entities/:grn/history", shareHandler.History)
	}
}
