package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/ram-020998/nexusmerge/internal/http"
	httpH "github.com/ram-020998/nexusmerge/internal/http/handlers"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Merge  *httpH.MergeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Merge:  httpH.NewMergeHandler(log, s.Merge, int64(cfg.MaxUploadMB)<<20),
	}
}

func wireRouter(log *logger.Logger, h Handlers) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:           log,
		MergeHandler:  h.Merge,
		HealthHandler: h.Health,
	})
}
