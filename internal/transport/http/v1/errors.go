package v1

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest, domain.KindInvalidSource:
		return http.StatusBadRequest
	case domain.KindSourceBlocked:
		return http.StatusForbidden
	case domain.KindNotFound, domain.KindSessionNotFound:
		return http.StatusNotFound
	case domain.KindMalformedData:
		return http.StatusUnprocessableEntity
	case domain.KindRemoteUnavailable, domain.KindRemoteHTTPError, domain.KindClassificationFailed,
		domain.KindStructuredOutputInvalid, domain.KindGenerationFailed:
		return http.StatusBadGateway
	case domain.KindRemoteTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError renders err as the single error payload.
func writeError(c echo.Context, err error) error {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, domain.ErrorResponse{Error: err.Error(), Code: string(kind)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: msg, Code: string(domain.KindInvalidRequest)})
}
