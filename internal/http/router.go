package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/ram-020998/nexusmerge/internal/http/handlers"
	httpMW "github.com/ram-020998/nexusmerge/internal/http/middleware"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	MergeHandler  *httpH.MergeHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.MergeHandler != nil {
			api.POST("/merge-sessions", cfg.MergeHandler.CreateSession)
			api.GET("/merge-sessions", cfg.MergeHandler.ListSessions)
			api.GET("/merge-sessions/:reference_id", cfg.MergeHandler.GetSession)
			api.DELETE("/merge-sessions/:reference_id", cfg.MergeHandler.DeleteSession)

			api.GET("/merge-sessions/:reference_id/changes", cfg.MergeHandler.GetWorkingSet)
			api.GET("/merge-sessions/:reference_id/changes/:change_id", cfg.MergeHandler.GetChangeDetail)
			api.POST("/merge-sessions/:reference_id/changes/:change_id/review", cfg.MergeHandler.ReviewChange)
		}
	}

	return r
}
