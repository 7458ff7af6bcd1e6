package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sonvt1710/graylog2-server/internal/handlers"
	"github.com/sonvt1710/graylog2-server/internal/middleware"
)

func registerTeamRoutes(api *gin.RouterGroup, teamHandler *handlers.TeamHandler) {
	teams := api.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
		teams.POST("", middleware.RequireRoot(), teamHandler.Create)
		teams.POST("/:id/members", middleware.RequireRoot(), teamHandler.AddMember)
		teams.DELETE("/:id/members/:userID", middleware.RequireRoot(), teamHandler.RemoveMember)
	}
}
