package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/app"
	iauth "github.com/sonvt1710/graylog2-server/internal/auth"
	"github.com/sonvt1710/graylog2-server/internal/handlers"
	"github.com/sonvt1710/graylog2-server/internal/middleware"
	"github.com/sonvt1710/graylog2-server/internal/permissions"
	"github.com/sonvt1710/graylog2-server/internal/services"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

// NewRouter builds the Gin engine, wires middleware and registers the sharing API.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, opts ...services.UserServiceOption) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	svc, err := newServiceSet(db, opts...)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	registerHealthRoutes(r, db, cfg)
	registerSetupRoutes(r, handlers.NewSetupHandler(svc.users))

	authHandler := handlers.NewAuthHandler(svc.users, jwt)
	r.POST("/api/auth/login", middleware.RateLimit(cfg.Auth.LoginRateLimit, time.Minute), authHandler.Login)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	registerUserRoutes(api, handlers.NewUserHandler(svc.users))
	registerTeamRoutes(api, handlers.NewTeamHandler(svc.teams))
	registerEntityRoutes(api, handlers.NewEntityHandler(svc.entities))
	registerShareRoutes(api, handlers.NewEntityShareHandler(svc.shares))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type serviceSet struct {
	users    *services.UserService
	teams    *services.TeamService
	entities *services.EntityService
	shares   *services.EntityShareService
}

func newServiceSet(db *gorm.DB, opts ...services.UserServiceOption) (*serviceSet, error) {
	capabilities := permissions.NewBuiltinRegistry()
	checker, err := permissions.NewChecker(db, capabilities)
	if err != nil {
		return nil, err
	}

	users, err := services.NewUserService(db, opts...)
	if err != nil {
		return nil, err
	}
	teams, err := services.NewTeamService(db)
	if err != nil {
		return nil, err
	}
	grantees, err := services.NewGranteeService(db)
	if err != nil {
		return nil, err
	}
	entities, err := services.NewEntityService(db, grn.NewBuiltinRegistry(), checker)
	if err != nil {
		return nil, err
	}
	audits, err := services.NewShareAuditService(db)
	if err != nil {
		return nil, err
	}
	sharing, err := services.NewEntityShareService(db, checker, capabilities, grantees, entities, audits)
	if err != nil {
		return nil, err
	}

	return &serviceSet{
		users:    users,
		teams:    teams,
		entities: entities,
		shares:   sharing,
	}, nil
}
