package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/dirserve"
)

const (
	// UploadPath is the upload endpoint, relative to the route prefix. The
	// target directory is passed in the "path" query parameter.
	UploadPath = "/upload"
	// UploadField is the multipart form field carrying the uploaded file.
	UploadField = "file_to_upload"
	// UploadFormID is the id attribute of the upload form in listings.
	UploadFormID = "file_submit"
	// DefaultRealm is used in the Basic auth challenge when none is configured.
	DefaultRealm = "dirserve"
)

type Service interface {
	Resolve(ctx context.Context, urlPath string) (dirserve.ResolvedPath, error)
	List(ctx context.Context, dir dirserve.ResolvedPath) ([]dirserve.DirectoryEntry, error)
	Open(ctx context.Context, file dirserve.ResolvedPath) (dirserve.Object, io.ReadSeekCloser, error)
	Upload(ctx context.Context, dir dirserve.ResolvedPath, part dirserve.UploadedPart) (dirserve.UploadResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Auth           dirserve.AuthSpec
	Realm          string
	UploadsEnabled bool
	MaxUploadSize  int64 // bytes, 0 means no limit
	Title          string
	// RoutePrefix mounts every route under a fixed path such as "/a1b2c3".
	RoutePrefix string
	CORS        CORSConfig
}

// Handler provides HTTP handlers for browsing, downloading and uploading files.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	cfg.RoutePrefix = strings.TrimSuffix(cfg.RoutePrefix, "/")
	if cfg.RoutePrefix != "" && !strings.HasPrefix(cfg.RoutePrefix, "/") {
		cfg.RoutePrefix = "/" + cfg.RoutePrefix
	}
	if cfg.Realm == "" {
		cfg.Realm = DefaultRealm
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with all routes and middleware configured.
// GET serves listings and downloads, POST to UploadPath ingests uploads.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(middleware.GetHead)
	r.Use(BasicAuthMiddleware(h.config.Auth, h.config.Realm))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, r, dirserve.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	routes := func(r chi.Router) {
		r.Get("/*", h.handleGet)
		r.Post(UploadPath, h.handleUpload)
	}

	if h.config.RoutePrefix == "" {
		routes(r)
	} else {
		r.Route(h.config.RoutePrefix, routes)
	}

	return r
}

// servedPath strips the route prefix from the decoded request path.
func (h *Handler) servedPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, h.config.RoutePrefix)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	urlPath := h.servedPath(r)

	resolved, err := h.service.Resolve(r.Context(), urlPath)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	wantsDir := strings.HasSuffix(urlPath, "/")
	if resolved.IsDir() != wantsDir {
		localRedirect(w, r, escapePath(h.config.RoutePrefix+resolved.URLPath), http.StatusMovedPermanently)
		return
	}

	if resolved.IsDir() {
		h.serveListing(w, r, resolved)
		return
	}

	h.serveFile(w, r, resolved)
}

func (h *Handler) serveListing(w http.ResponseWriter, r *http.Request, dir dirserve.ResolvedPath) {
	entries, err := h.service.List(r.Context(), dir)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	page := ListingPage{
		Title:          h.config.Title,
		URLPath:        dir.URLPath,
		RoutePrefix:    h.config.RoutePrefix,
		Entries:        entries,
		UploadsEnabled: h.config.UploadsEnabled,
	}

	var buf strings.Builder
	if err := RenderListing(&buf, page); err != nil {
		HandleError(w, r, fmt.Errorf("render listing %s: %w", dir.URLPath, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, buf.String())
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, file dirserve.ResolvedPath) {
	obj, content, err := h.service.Open(r.Context(), file)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() {
		if closeErr := content.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", file.URLPath, "err", closeErr)
		}
	}()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("ETag", weakETag(obj))

	http.ServeContent(w, r, obj.Name, obj.ModTime, content)
}

func weakETag(obj dirserve.Object) string {
	return fmt.Sprintf(`W/"%x-%x"`, obj.ModTime.UnixNano(), obj.Size)
}

// localRedirect redirects to target while keeping the query string.
func localRedirect(w http.ResponseWriter, r *http.Request, target string, code int) {
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	w.Header().Set("Location", target)
	w.WriteHeader(code)
}
