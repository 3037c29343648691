// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/config"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/exporter"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions       SessionManager
	Importer       DocumentImporter
	Jobs           JobManager
	Resolver       CapabilityResolver
	Exporter       *exporter.Exporter
	MaxUploadSize  int64
	ResolveTimeout time.Duration
	Logger         *logging.Logger
	Version        string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Import  ImportHandler
	Export  ExportHandler
	Edit    EditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions),
		Session: NewSessionHandler(deps.Sessions),
		Import:  NewImportHandler(deps.Sessions, deps.Importer, deps.Jobs, deps.MaxUploadSize, deps.Logger),
		Export:  NewExportHandler(deps.Sessions, deps.Exporter),
		Edit:    NewEditHandler(deps.Sessions, deps.Resolver, deps.ResolveTimeout, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Stateless validation and import jobs
	apiGroup.POST("/validate", handlers.Import.HandleValidate)
	apiGroup.GET("/import/jobs/:jobId", handlers.Import.HandleImportJobStatus)

	// Session lifecycle
	apiGroup.POST("/sessions", handlers.Session.HandleCreateSession)
	sessionGroup := apiGroup.Group("/sessions/:sessionId")
	sessionGroup.GET("", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessionGroup.POST("/reset", handlers.Session.HandleReset)
	sessionGroup.GET("/config", handlers.Session.HandleGetConfig)
	sessionGroup.GET("/view", handlers.Session.HandleGetView)

	// Import
	sessionGroup.POST("/import", handlers.Import.HandleImport)
	sessionGroup.POST("/import/async", handlers.Import.HandleImportAsync)

	// Export
	sessionGroup.GET("/config.json", handlers.Export.HandleServedConfig)
	sessionGroup.GET("/config.msgpack", handlers.Export.HandleServedConfigMsgpack)
	sessionGroup.PUT("/export-options", handlers.Export.HandleSetExportOptions)
	sessionGroup.POST("/export", handlers.Export.HandleExport)

	// Draw order
	sessionGroup.GET("/zlevels/preview", handlers.Edit.HandleZLevelPreview)
	sessionGroup.POST("/zlevels/apply", handlers.Edit.HandleZLevelApply)

	// Sources
	sessionGroup.POST("/sources", handlers.Edit.HandleAddSource)
	sessionGroup.POST("/sources/move", handlers.Edit.HandleMoveSource)
	sessionGroup.PUT("/sources/:index", handlers.Edit.HandleUpdateSource)
	sessionGroup.DELETE("/sources/:index", handlers.Edit.HandleDeleteSource)

	// Services
	sessionGroup.POST("/services", handlers.Edit.HandleAddService)
	sessionGroup.DELETE("/services/:serviceId", handlers.Edit.HandleDeleteService)
	sessionGroup.POST("/services/:serviceId/refresh", handlers.Edit.HandleRefreshService)

	// Navigation
	sessionGroup.PUT("/navigation", handlers.Edit.HandleSetNavigation)
}

// SetupMiddleware configures the error handler and common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig, lg *logging.Logger) {
	e.HTTPErrorHandler = NewErrorHandler(lg)

	if cfg.Logging.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || strings.HasPrefix(path, "/api/import/jobs/")
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogRemoteIP: true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				if lg == nil {
					return nil
				}
				level := slog.LevelInfo
				if v.Error != nil || v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				lg.LogAttrs(c.Request().Context(), level, "request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
					slog.String("remote_ip", v.RemoteIP),
				)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/import")
		},
		ErrorMessage: "Request timeout",
	}))

	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
