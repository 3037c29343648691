// handlers_import.go - Document upload handlers
package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/importer"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/validator"
)

const defaultUploadName = "config.json"

// ImportHandlerImpl implements the ImportHandler interface
type ImportHandlerImpl struct {
	sessions SessionManager
	importer DocumentImporter
	jobs     JobManager
	maxSize  int64
	logger   *logging.Logger
}

// NewImportHandler creates a new import handler instance
func NewImportHandler(sessions SessionManager, im DocumentImporter, jobs JobManager, maxSize int64, logger *logging.Logger) ImportHandler {
	if maxSize <= 0 {
		maxSize = importer.DefaultMaxSize
	}
	return &ImportHandlerImpl{
		sessions: sessions,
		importer: im,
		jobs:     jobs,
		maxSize:  maxSize,
		logger:   logger,
	}
}

type importResponse struct {
	Snapshot *session.Snapshot   `json:"snapshot"`
	Warnings []validator.Warning `json:"warnings"`
	Report   importer.Report     `json:"report"`
}

// HandleImport imports a document into the session and waits for the result
func (h *ImportHandlerImpl) HandleImport(c echo.Context) error {
	id := c.Param("sessionId")
	if _, err := h.sessions.Info(id); err != nil {
		return sessionError(c, err)
	}

	name, body, err := openUpload(c)
	if err != nil {
		return err
	}
	defer body.Close()

	res, err := h.importer.Import(c.Request().Context(), name, body)
	if err != nil {
		return err
	}

	snap, err := h.sessions.Update(id, session.Load(res.Config))
	if err != nil {
		return sessionError(c, err)
	}
	h.logger.Info("session loaded", "session", id, "file", name, "version", snap.Version)

	return c.JSON(http.StatusOK, importResponse{Snapshot: snap, Warnings: res.Warnings, Report: res.Report})
}

// HandleImportAsync starts a background import and returns the job
func (h *ImportHandlerImpl) HandleImportAsync(c echo.Context) error {
	id := c.Param("sessionId")
	if _, err := h.sessions.Info(id); err != nil {
		return sessionError(c, err)
	}

	name, data, err := h.readUpload(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, h.jobs.StartJob(id, name, data))
}

// HandleImportJobStatus returns the status of a background import
func (h *ImportHandlerImpl) HandleImportJobStatus(c echo.Context) error {
	jobID := c.Param("jobId")
	job, ok := h.jobs.GetJob(jobID)
	if !ok {
		return NewNotFoundError("import job", jobID)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleValidate normalizes and validates a document without storing it
func (h *ImportHandlerImpl) HandleValidate(c echo.Context) error {
	name, data, err := h.readUpload(c)
	if err != nil {
		return err
	}
	res, err := h.importer.Check(name, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":    true,
		"config":   res.Config,
		"warnings": res.Warnings,
		"report":   res.Report,
	})
}

func (h *ImportHandlerImpl) readUpload(c echo.Context) (string, []byte, error) {
	name, body, err := openUpload(c)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, h.maxSize+1))
	if err != nil {
		return "", nil, NewBadRequestError("failed to read upload", err)
	}
	if int64(len(data)) > h.maxSize {
		return "", nil, NewPayloadTooLargeError(h.maxSize)
	}
	return name, data, nil
}

// openUpload returns the multipart "file" part or, for any other content
// type, the raw request body. ?name= overrides the file name.
func openUpload(c echo.Context) (string, io.ReadCloser, error) {
	name := c.QueryParam("name")

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", nil, NewValidationError("file")
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, NewBadRequestError("failed to open upload", err)
		}
		if name == "" {
			name = fh.Filename
		}
		if name == "" {
			name = defaultUploadName
		}
		return name, f, nil
	}

	if name == "" {
		name = defaultUploadName
	}
	return name, c.Request().Body, nil
}
