// handlers_export.go - Export download and option handlers
package api

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/exporter"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
)

// MIMEApplicationMsgpack is the content type of msgpack exports
const MIMEApplicationMsgpack = "application/msgpack"

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	sessions SessionManager
	exporter *exporter.Exporter
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(sessions SessionManager, exp *exporter.Exporter) ExportHandler {
	if exp == nil {
		exp = &exporter.Exporter{}
	}
	return &ExportHandlerImpl{sessions: sessions, exporter: exp}
}

// HandleServedConfig returns the document the viewer loads, exported with
// the session's export options
func (h *ExportHandlerImpl) HandleServedConfig(c echo.Context) error {
	doc, err := h.export(c, nil)
	if err != nil {
		return err
	}
	out, err := doc.JSON()
	if err != nil {
		return NewInternalError("failed to encode export", err)
	}
	return c.JSONBlob(http.StatusOK, out)
}

// HandleServedConfigMsgpack is HandleServedConfig encoded as msgpack
func (h *ExportHandlerImpl) HandleServedConfigMsgpack(c echo.Context) error {
	doc, err := h.export(c, nil)
	if err != nil {
		return err
	}
	out, err := doc.MsgPack()
	if err != nil {
		return NewInternalError("failed to encode export", err)
	}
	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, out)
}

// HandleSetExportOptions stores the options used by the served config
func (h *ExportHandlerImpl) HandleSetExportOptions(c echo.Context) error {
	var opts exporter.Options
	if err := c.Bind(&opts); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	snap, err := h.sessions.Update(c.Param("sessionId"), session.SetExportOptions(opts))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":       snap.Version,
		"exportOptions": snap.ExportOptions,
		"enabled":       snap.ExportOptions.Enabled(),
	})
}

// HandleExport returns the export as a file download. Options in the body
// override the session's options for this download only.
func (h *ExportHandlerImpl) HandleExport(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	name, err := req.fileName()
	if err != nil {
		return err
	}

	doc, err := h.export(c, req.Options)
	if err != nil {
		return err
	}
	out, err := doc.JSON()
	if err != nil {
		return NewInternalError("failed to encode export", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, out)
}

func (h *ExportHandlerImpl) export(c echo.Context, override *exporter.Options) (*exporter.Document, error) {
	snap, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return nil, sessionError(c, err)
	}
	opts := snap.ExportOptions
	if override != nil {
		opts = *override
	}
	doc, err := h.exporter.Export(&snap.Config, opts)
	if err != nil {
		return nil, NewInternalError("export failed", err)
	}
	return doc, nil
}

type exportRequest struct {
	Options  *exporter.Options `json:"options"`
	FileName string            `json:"fileName"`
}

func (r *exportRequest) fileName() (string, error) {
	if r.FileName == "" {
		return defaultUploadName, nil
	}
	if path.Base(r.FileName) != r.FileName || strings.ContainsAny(r.FileName, `\"`) {
		return "", NewValidationError("fileName")
	}
	if !strings.HasSuffix(strings.ToLower(r.FileName), ".json") {
		return r.FileName + ".json", nil
	}
	return r.FileName, nil
}
