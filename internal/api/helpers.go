package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/gguflens/internal/report"
)

// requestID tags each request with X-Request-Id, reusing the client's value
// when one was sent.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" {
			id = "req_" + uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func requestIDOf(c *echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// writeJSON encodes with the report encoder so payloads match CLI --json output.
func writeJSON(c *echo.Context, status int, v any) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	return report.EncodeJSON(res, v, false)
}

func writeBadRequest(c *echo.Context, param, msg string) error {
	return writeError(c, http.StatusBadRequest, ErrorBody{Type: "invalid_request_error", Param: param, Message: msg})
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, ErrorBody{Type: "not_found_error", Message: msg})
}

func writeError(c *echo.Context, status int, body ErrorBody) error {
	body.RequestID = requestIDOf(c)
	return writeJSON(c, status, map[string]any{"error": body})
}

func queryBool(c *echo.Context, name string) (bool, error) {
	q := c.QueryParam(name)
	if q == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(q)
	if err != nil {
		return false, newInvalidRequest(name + " must be a boolean")
	}
	return v, nil
}

func queryInt(c *echo.Context, name string, def int) (int, error) {
	q := c.QueryParam(name)
	if q == "" {
		return def, nil
	}
	v, err := strconv.Atoi(q)
	if err != nil {
		return 0, newInvalidRequest(name + " must be an integer")
	}
	return v, nil
}
