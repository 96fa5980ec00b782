package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/sagarc03/dirserve"
)

// handleUpload streams a multipart upload into the directory named by the
// "path" query parameter. The body is read part by part and never buffered
// whole, so upload size is bounded by disk space rather than memory.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.config.UploadsEnabled {
		HandleError(w, r, dirserve.ErrUploadDisabled)
		return
	}

	target := r.URL.Query().Get("path")
	if target == "" {
		target = "/"
	}

	dir, err := h.service.Resolve(r.Context(), target)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if !dir.IsDir() {
		HandleError(w, r, fmt.Errorf("upload target %s: %w", dir.URLPath, dirserve.ErrNotFound))
		return
	}

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	part, err := nextFilePart(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() { _ = part.Close() }()

	result, err := h.service.Upload(r.Context(), dir, dirserve.UploadedPart{
		FieldName:   part.FormName(),
		FileName:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Data:        part,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	slog.Info("file uploaded",
		"path", result.URLPath,
		"bytes", result.BytesWritten,
		"sha256", result.SHA256,
	)

	if wantsJSON(r) {
		_ = WriteJSON(w, http.StatusCreated, result)
		return
	}

	http.Redirect(w, r, escapePath(h.config.RoutePrefix+dir.URLPath), http.StatusSeeOther)
}

// nextFilePart advances through the multipart body until the file field.
// Parts before it are drained and discarded.
func nextFilePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w: %w", dirserve.ErrMalformedMultipart, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read multipart: %w: no %q file part", dirserve.ErrMalformedMultipart, UploadField)
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, fmt.Errorf("read multipart: %w", err)
			}
			return nil, fmt.Errorf("read multipart: %w: %w", dirserve.ErrMalformedMultipart, err)
		}

		if part.FormName() == UploadField && part.FileName() != "" {
			return part, nil
		}

		if closeErr := part.Close(); closeErr != nil {
			return nil, fmt.Errorf("read multipart: %w: %w", dirserve.ErrMalformedMultipart, closeErr)
		}
	}
}
