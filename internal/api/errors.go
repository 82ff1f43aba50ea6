package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barsea/schedpoint/internal/schedule"
	"github.com/barsea/schedpoint/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

type errorsBody struct {
	Errors []string `json:"errors"`
}

// statusMessage is the devise-style body used by the /users endpoints.
type statusMessage struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// respondError maps service errors onto HTTP responses.
func (s *Server) respondError(c echo.Context, err error) error {
	var verrs schedule.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return c.JSON(http.StatusUnprocessableEntity, errorsBody{Errors: verrs.Messages()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "Record not found"})
	case errors.Is(err, errMalformedBody):
		return c.JSON(http.StatusBadRequest, errorBody{Error: errMalformedBody.Error()})
	case errors.Is(err, schedule.ErrInvalidDate):
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid date"})
	}

	s.logger.Error("Unhandled request error",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

// handleHTTPError renders errors that escape handlers, including echo's own
// routing errors, as JSON.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		s.logger.Error("Unhandled error", "path", c.Request().URL.Path, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Error: message})
	}
	if err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
