package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ossih/casemirror/internal/api/handler"
	"github.com/ossih/casemirror/internal/api/middleware"
	"github.com/ossih/casemirror/internal/logger"
	"gorm.io/gorm"
)

// Handlers bundles the route handlers the router wires up.
type Handlers struct {
	Callback *handler.CallbackHandler
	Sync     *handler.SyncHandler
	Probe    *handler.ProbeHandler
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(db *gorm.DB, h Handlers, log *logger.Logger, mode string) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))

	healthHandler := handler.NewHealthHandler(db)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Upstream change notifications
		v1.POST("/callback", h.Callback.HandleCallback)

		// Bulk sync jobs
		v1.POST("/jobs", h.Sync.StartJob)
		v1.GET("/jobs/status", h.Sync.GetJobStatus)

		// Upstream availability
		v1.GET("/probe", h.Probe.Probe)
	}

	return r
}
