package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/qsd/pkg/qsd"
)

// ErrorResponse is the JSON body of a failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, qsd.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, qsd.ErrInvalidRecord),
		errors.Is(err, qsd.ErrNavCategoryNotFound),
		errors.Is(err, qsd.ErrUserNotFound):
		return http.StatusBadRequest
	case errors.Is(err, qsd.ErrDuplicateURL), errors.Is(err, qsd.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, qsd.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, qsd.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns a message safe to show to the client.
func userMessage(err error) string {
	var verr *qsd.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, qsd.ErrDuplicateURL):
		return qsd.ErrDuplicateURL.Error()
	case errors.Is(err, qsd.ErrNavCategoryNotFound):
		return qsd.ErrNavCategoryNotFound.Error()
	case errors.Is(err, qsd.ErrUserNotFound):
		return "author does not exist"
	case errors.Is(err, qsd.ErrRecordNotFound):
		return qsd.ErrRecordNotFound.Error()
	case errors.Is(err, qsd.ErrForbidden):
		return qsd.ErrForbidden.Error()
	case errors.Is(err, qsd.ErrInvalidCredentials):
		return qsd.ErrInvalidCredentials.Error()
	default:
		return http.StatusText(http.StatusInternalServerError)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	} else {
		slog.Info(msg, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: userMessage(err)})
}
