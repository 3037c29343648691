// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/importer"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/upload"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles session lifecycle and document reads
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleReset(c echo.Context) error
	HandleGetConfig(c echo.Context) error
	HandleGetView(c echo.Context) error
}

// ImportHandler handles document uploads
type ImportHandler interface {
	HandleImport(c echo.Context) error
	HandleImportAsync(c echo.Context) error
	HandleImportJobStatus(c echo.Context) error
	HandleValidate(c echo.Context) error
}

// ExportHandler handles export downloads and options
type ExportHandler interface {
	HandleServedConfig(c echo.Context) error
	HandleServedConfigMsgpack(c echo.Context) error
	HandleSetExportOptions(c echo.Context) error
	HandleExport(c echo.Context) error
}

// EditHandler handles edits of sources, services, navigation and draw order
type EditHandler interface {
	HandleAddSource(c echo.Context) error
	HandleUpdateSource(c echo.Context) error
	HandleDeleteSource(c echo.Context) error
	HandleMoveSource(c echo.Context) error
	HandleAddService(c echo.Context) error
	HandleDeleteService(c echo.Context) error
	HandleRefreshService(c echo.Context) error
	HandleSetNavigation(c echo.Context) error
	HandleZLevelPreview(c echo.Context) error
	HandleZLevelApply(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() session.Info
	Get(id string) (*session.Snapshot, error)
	Info(id string) (session.Info, error)
	Update(id string, t session.Transition) (*session.Snapshot, error)
	Touch(id string) bool
	Delete(id string) bool
	Count() int
}

// DocumentImporter runs the import pipeline
type DocumentImporter interface {
	Import(ctx context.Context, name string, r io.Reader) (*importer.Result, error)
	Check(name string, data []byte) (*importer.Result, error)
}

// JobManager runs imports in the background
type JobManager interface {
	StartJob(sessionID, fileName string, data []byte) upload.Job
	GetJob(id string) (upload.Job, bool)
}

// CapabilityResolver looks up service capabilities
type CapabilityResolver interface {
	Resolve(ctx context.Context, serviceURL, format string) (*models.ServiceCapabilities, error)
}
