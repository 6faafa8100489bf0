package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/server/handler"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	JWTSecret string
	// APIPrefix is where the project routes are mounted, "/api" by default.
	APIPrefix string
	Checks    []ReadinessCheck
}

func NewRouter(projectHandler *handler.ProjectHandler, logger *zap.Logger, opts Options) *gin.Engine {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(otel.GinMiddleware())
	r.Use(MetricsMiddleware())
	// 添加请求日志中间件
	r.Use(LoggingMiddleware(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, check := range opts.Checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(500, gin.H{"status": check.Name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	api := r.Group(opts.APIPrefix)
	api.Use(AuthMiddleware(opts.JWTSecret))
	{
		api.GET("/projects", projectHandler.ListProjects)
		api.POST("/projects", projectHandler.CreateProject)
		api.GET("/projects/:projectId", projectHandler.GetProject)
		api.POST("/:projectId/milestones", projectHandler.CreateMilestone)
		api.PATCH("/:projectId/milestones", projectHandler.ReorderMilestones)
		api.PATCH("/:projectId/milestones/:milestoneId", projectHandler.UpdateMilestone)
	}

	return r
}
