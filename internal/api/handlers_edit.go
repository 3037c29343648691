// handlers_edit.go - Source, service, navigation and draw-order edit handlers
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/zlevel"
)

// EditHandlerImpl implements the EditHandler interface
type EditHandlerImpl struct {
	sessions       SessionManager
	resolver       CapabilityResolver
	resolveTimeout time.Duration
	logger         *logging.Logger
}

// NewEditHandler creates a new edit handler instance. resolver may be nil
// when capability lookups are disabled.
func NewEditHandler(sessions SessionManager, resolver CapabilityResolver, resolveTimeout time.Duration, logger *logging.Logger) EditHandler {
	if resolveTimeout <= 0 {
		resolveTimeout = 10 * time.Second
	}
	return &EditHandlerImpl{
		sessions:       sessions,
		resolver:       resolver,
		resolveTimeout: resolveTimeout,
		logger:         logger,
	}
}

func (h *EditHandlerImpl) update(c echo.Context, t session.Transition) error {
	snap, err := h.sessions.Update(c.Param("sessionId"), t)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleAddSource appends a source
func (h *EditHandlerImpl) HandleAddSource(c echo.Context) error {
	var src models.DataSource
	if err := c.Bind(&src); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.update(c, session.AddSource(src))
}

// HandleUpdateSource replaces the source at :index
func (h *EditHandlerImpl) HandleUpdateSource(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	var src models.DataSource
	if err := c.Bind(&src); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.update(c, session.UpdateSource(index, src))
}

// HandleDeleteSource removes the source at :index
func (h *EditHandlerImpl) HandleDeleteSource(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	return h.update(c, session.RemoveSource(index))
}

// HandleMoveSource moves a source to a new position
func (h *EditHandlerImpl) HandleMoveSource(c echo.Context) error {
	var req moveSourceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	return h.update(c, session.MoveSource(*req.From, *req.To))
}

// HandleAddService registers a service and resolves its capabilities
func (h *EditHandlerImpl) HandleAddService(c echo.Context) error {
	var svc models.Service
	if err := c.Bind(&svc); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	svc.Capabilities = h.resolve(c.Request().Context(), svc)
	return h.update(c, session.AddService(svc))
}

// HandleDeleteService removes the service :serviceId
func (h *EditHandlerImpl) HandleDeleteService(c echo.Context) error {
	return h.update(c, session.RemoveService(c.Param("serviceId")))
}

// HandleRefreshService resolves the capabilities of :serviceId again
func (h *EditHandlerImpl) HandleRefreshService(c echo.Context) error {
	id := c.Param("serviceId")
	snap, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return sessionError(c, err)
	}
	i := snap.Config.FindService(id)
	if i < 0 {
		return NewNotFoundError("service", id)
	}
	caps := h.resolve(c.Request().Context(), snap.Config.Services[i])
	return h.update(c, session.SetServiceCapabilities(id, caps))
}

// HandleSetNavigation replaces the header settings
func (h *EditHandlerImpl) HandleSetNavigation(c echo.Context) error {
	var nav models.Navigation
	if err := c.Bind(&nav); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.update(c, session.SetNavigation(nav))
}

// HandleZLevelPreview reports the draw-order bands AutoTune would assign
func (h *EditHandlerImpl) HandleZLevelPreview(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, zlevel.Preview(snap.Config.Sources))
}

// HandleZLevelApply assigns the canonical draw-order bands
func (h *EditHandlerImpl) HandleZLevelApply(c echo.Context) error {
	return h.update(c, session.AutoTune())
}

// resolve looks up capabilities, logging and dropping failures
func (h *EditHandlerImpl) resolve(ctx context.Context, svc models.Service) *models.ServiceCapabilities {
	if h.resolver == nil || svc.URL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, h.resolveTimeout)
	defer cancel()

	caps, err := h.resolver.Resolve(ctx, svc.URL, svc.Format)
	if err != nil {
		h.logger.Warn("capabilities lookup failed", "service", svc.ID, "url", svc.URL, "error", err)
		return nil
	}
	return caps
}

type moveSourceRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (r *moveSourceRequest) validate() error {
	if r.From == nil {
		return NewValidationError("from")
	}
	if r.To == nil {
		return NewValidationError("to")
	}
	return nil
}

func indexParam(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, NewBadRequestError("index must be an integer", err)
	}
	return index, nil
}
