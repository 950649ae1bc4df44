package response

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
)

// Envelope is the wire format every endpoint returns.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	StatusCode int         `json:"statusCode"`
	Timestamp  string      `json:"timestamp"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// JSON writes a success envelope with data.
func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Success:    true,
		Data:       data,
		StatusCode: status,
		Timestamp:  now(),
	})
}

// Message writes a success envelope with a message only.
func Message(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{
		Success:    true,
		Message:    message,
		StatusCode: status,
		Timestamp:  now(),
	})
}

// Error maps a service error to the envelope. Unknown errors surface as a
// generic internal error so database details never reach the client.
func Error(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	return c.JSON(status, Envelope{
		Success:    false,
		Error:      string(apperr.CodeOf(err)),
		Message:    apperr.MessageOf(err),
		StatusCode: status,
		Timestamp:  now(),
	})
}
