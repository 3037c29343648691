// handlers_session.go - Session lifecycle and document read handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/projector"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionManager
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions SessionManager) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

// HandleCreateSession starts a session with an empty document
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.sessions.Create())
}

// HandleGetSession returns session metadata
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	info, err := h.sessions.Info(c.Param("sessionId"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteSession ends a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive keeps a session from expiring
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessions.Touch(id) {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReset empties the session's document
func (h *SessionHandlerImpl) HandleReset(c echo.Context) error {
	snap, err := h.sessions.Update(c.Param("sessionId"), session.Reset())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleGetConfig returns the canonical document with its version
func (h *SessionHandlerImpl) HandleGetConfig(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleGetView returns the projected document the editor UI renders
func (h *SessionHandlerImpl) HandleGetView(c echo.Context) error {
	snap, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version": snap.Version,
		"config":  projector.Project(&snap.Config),
	})
}

// sessionError names the session in not-found errors. Session lookups
// return the bare sentinel; wrapped ones come from transitions.
func sessionError(c echo.Context, err error) error {
	if err == session.ErrNotFound {
		return NewNotFoundError("session", c.Param("sessionId"))
	}
	return err
}
