package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/internal/container"
	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/internal/router/modules"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

// InitModules wires every feature module from the container into the registry.
func InitModules(r *Registry, c *container.Container) {
	var allow middleware.AllowFunc
	if c.Config.RateLimitBypassPrivate {
		allow = middleware.AllowPrivateIP()
	}
	auth := middleware.Auth(c.TokenSvc, c.Logger)
	protected := middleware.RateLimit(c.Redis, middleware.Limit{
		Scope:  "protected",
		Max:    300,
		Window: time.Minute,
		Key:    middleware.KeyByIP("protected"),
	}, allow)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.UserSvc, c.Logger), auth, protected, c.Redis, allow))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(c.TaskSvc, c.Logger), auth, protected))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(middleware.RateLimit(c.Redis, middleware.Limit{
			Scope:  "debug",
			Max:    120,
			Window: time.Minute,
			Key:    middleware.KeyByIP("debug"),
		}, allow)))
	}
}

// New builds the gin engine with global middleware and all routes.
func New(c *container.Container) *gin.Engine {
	cfg := c.Config
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.Recovery(c.Logger))
	r.Use(middleware.RealIP())
	r.Use(middleware.Metrics())
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}
	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, http.StatusNotFound, "not found", nil)
	})

	reg := NewRegistry(r, cfg.APIPrefix)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}
