package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

// ErrorResponse is the error body returned by every endpoint
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps coordinator errors onto HTTP status codes. Duplicate names
// are reported as 422 like the other input problems.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, memecatalog.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, memecatalog.ErrUpstreamStore):
		return http.StatusInternalServerError
	case errors.Is(err, memecatalog.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, memecatalog.ErrDuplicateName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func detailFor(status int, err error) string {
	switch {
	case status == http.StatusNotFound:
		return "meme not found"
	case errors.Is(err, memecatalog.ErrDuplicateName):
		return "a meme with this name already exists"
	case status == http.StatusInternalServerError:
		return "upstream storage error"
	default:
		var verr *memecatalog.ValidationError
		if errors.As(err, &verr) {
			return verr.Error()
		}
		return err.Error()
	}
}

func (h *MemesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.DebugContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeDetail(w, r, status, detailFor(status, err))
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}

// logger fallback for handlers built without one
func defaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
