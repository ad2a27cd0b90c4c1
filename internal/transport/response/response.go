package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/apperr"
)

// Envelope is the uniform response shape of the API.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
}

func OK(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

// Paged adds the pagination block list endpoints carry.
func Paged(c echo.Context, data any, pagination any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: pagination})
}

// ErrorHandler maps service failures onto status codes and the envelope.
// In development internal errors keep their underlying message; in
// production they collapse to a generic one.
func ErrorHandler(dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := apperr.Status(err)
		message := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		env := Envelope{Success: false, Message: message}
		if code == http.StatusInternalServerError {
			if dev {
				env.Error = err.Error()
			}
			env.Message = "Internal server error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, env)
	}
}
