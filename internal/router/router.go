package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stagetrack-io/stagetrack/internal/config"
	"github.com/stagetrack-io/stagetrack/internal/middleware"
	"github.com/stagetrack-io/stagetrack/internal/modules/handler"
	"github.com/stagetrack-io/stagetrack/internal/modules/serializer"
)

type RouterDeps struct {
	Config         *config.Config
	Log            *zap.Logger
	HealthHandler  *handler.HealthHandler
	SyncHandler    *handler.SyncHandler
	ProjectHandler *handler.ProjectHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Every client origin is allowed; preflight answers 204 with no body.
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type"},
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger(d.Log))

	// health + metrics
	r.GET("/health", d.HealthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/data", d.SyncHandler.Data)
		api.POST("/sync", d.SyncHandler.Sync)

		projects := api.Group("/projects")
		{
			projects.GET("/completed", d.ProjectHandler.Completed)
			projects.GET("/in-progress", d.ProjectHandler.InProgress)
			projects.GET("/evaluate", d.ProjectHandler.Evaluate)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, serializer.NotFound(c.Request.URL.Path))
	})

	return r
}
