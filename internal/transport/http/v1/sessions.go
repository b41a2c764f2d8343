package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// CreateSession registers a dataset source.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.CreateSession(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListSessions lists registered sessions in creation order.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = val
	}
	return c.JSON(http.StatusOK, h.service.ListSessions(c.Request().Context(), limit))
}

// GetSession returns a session record.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	rec, err := h.service.GetSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// DeleteSession removes a session.
// DELETE /v1/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	resp, err := h.service.DeleteSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSessionProfile loads the dataset profile of a session.
// GET /v1/sessions/:session_id/profile
func (h *Handler) GetSessionProfile(c echo.Context) error {
	profile, err := h.service.SessionProfile(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// ListSessionRuns lists the recorded runs of a session, newest first.
// GET /v1/sessions/:session_id/runs
func (h *Handler) ListSessionRuns(c echo.Context) error {
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	runs, err := h.service.ListSessionRuns(c.Request().Context(), c.Param("session_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}
