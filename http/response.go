package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sagarc03/dirserve"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes an error response. Clients that ask for JSON get an
// ErrorResponse, everyone else a small HTML page.
func WriteError(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	if wantsJSON(r) {
		if err := WriteJSON(w, code, ErrorResponse{Error: errCode, Message: message}); err != nil {
			slog.Error("failed to encode error response", "error", err)
		}
		return
	}
	writeErrorPage(w, code, message)
}

// HandleError maps err onto a status code and writes the response. The error
// text itself is only logged, never sent to the client.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, dirserve.ErrNotFound):
		slog.Debug("not found", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, dirserve.ErrUnauthorized):
		slog.Warn("unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, dirserve.ErrUploadDisabled):
		slog.Warn("upload rejected", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusForbidden, "upload_disabled", "Uploads are disabled")
	case errors.Is(err, dirserve.ErrConflict):
		slog.Warn("upload rejected", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusConflict, "conflict", "A file with this name already exists")
	case errors.As(err, &maxBytesErr), errors.Is(err, dirserve.ErrTooLarge):
		slog.Warn("upload rejected", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds the size limit")
	case errors.Is(err, dirserve.ErrInvalidInput):
		slog.Warn("invalid input", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusBadRequest, "invalid_input", "Invalid file name")
	case errors.Is(err, dirserve.ErrMalformedMultipart), errors.Is(err, io.ErrUnexpectedEOF):
		slog.Warn("malformed upload", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusBadRequest, "malformed_multipart", "Malformed upload body")
	case errors.Is(err, context.Canceled):
		slog.Info("request cancelled", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusBadRequest, "cancelled", "Request cancelled")
	default:
		slog.Error("request error", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
