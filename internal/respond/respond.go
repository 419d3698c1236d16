// Package respond writes the API's JSON envelope.
package respond

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       any         `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
	Kind       apperr.Kind `json:"kind,omitempty"`
}

// JSON writes a success envelope.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// Error writes a failure envelope for err. Errors without a kind are reported
// as unknown and their cause is only logged.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.Unknown(err)
	}

	status := appErr.Kind.HTTPStatus()
	errs := appErr.Details
	if errs == nil {
		errs = []string{}
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "kind", appErr.Kind, "message", appErr.Message, "error", err)
	default:
		logger.Warn("request returned client error", "status", status, "kind", appErr.Kind, "message", appErr.Message)
	}

	write(ctx, w, Envelope{
		StatusCode: status,
		Data:       nil,
		Message:    appErr.Message,
		Success:    false,
		Errors:     errs,
		Kind:       appErr.Kind,
	})
}

func write(ctx context.Context, w http.ResponseWriter, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", body.StatusCode, "error", err)
	}
}
