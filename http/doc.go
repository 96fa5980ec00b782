// Package http provides the request router for dirserve.
//
// Every request passes through the same pipeline: an optional HTTP Basic
// authentication gate, path resolution against the served root, and then one
// of directory listing, file download or upload ingestion.
//
// # Routes
//
//   - GET /*: directory listing (HTML) or file download
//   - POST /upload?path=<dir>: multipart upload into <dir> (only when enabled)
//
// Directory URLs always end with "/"; requests for a directory without the
// trailing slash are redirected. With a RoutePrefix every route is mounted
// below that prefix.
//
// # Authentication
//
// BasicAuthMiddleware checks credentials against a dirserve.AuthSpec. A spec
// that requires no authentication disables the gate:
//
//	spec, err := dirserve.ParseAuthSpec("user:sha256:9f735e0d...")
//	router.Use(http.BasicAuthMiddleware(spec, "files"))
//
// # Uploads
//
// Upload forms in listings carry id="file_submit" and post a single file in
// the "file_to_upload" field. Existing files are never replaced: a name
// collision yields 409 Conflict.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    Auth:           spec,
//	    UploadsEnabled: true,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// The service parameter must implement the Service interface with Resolve,
// List, Open and Upload methods.
//
// # Errors
//
// Errors are mapped onto status codes by HandleError: 404 for missing or
// escaped paths (indistinguishable), 401 with a challenge, 403 when uploads are
// disabled, 409 on name conflicts, 413 over the size limit, 400 for malformed
// bodies or names, and 500 otherwise. Clients sending Accept: application/json
// receive JSON error bodies instead of HTML.
package http
