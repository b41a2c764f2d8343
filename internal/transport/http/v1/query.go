package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Query answers a question about a session's dataset.
// POST /v1/query
func (h *Handler) Query(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.QueryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.Query(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
