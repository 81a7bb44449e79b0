package ayurcare

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// APIResponse is the success envelope shared by every endpoint
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSONSuccess writes the success envelope
func JSONSuccess(ctx router.Context, status int, data any, message string) error {
	return ctx.JSON(status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// JSONError maps a rich error onto the structured error envelope. The
// category detail and stack only leave the server outside production;
// internal errors always degrade to a generic message client-side.
func JSONError(ctx router.Context, err error, production bool) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := int(richErr.Code)
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}

	message := richErr.Message
	if status >= http.StatusInternalServerError && production {
		message = "internal server error"
	}

	payload := map[string]any{
		"success":   false,
		"message":   message,
		"text_code": richErr.TextCode,
	}

	if !production {
		if len(richErr.Metadata) > 0 {
			payload["metadata"] = richErr.Metadata
		}
		payload["stack"] = fmt.Sprintf("%+v", richErr)
	}

	return ctx.JSON(status, payload)
}
