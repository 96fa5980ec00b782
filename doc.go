// Package dirserve provides a small HTTP file server library that exposes a
// directory tree for browsing, downloading and optionally uploading files.
//
// All filesystem access goes through an *os.Root opened on the served
// directory, so no resolved path can leave it, regardless of "..", symlinks or
// URL-encoding tricks in the request.
//
// # Key Components
//
//   - Service: combines a FileSystem backend with listing and upload policy
//   - FileSystem: interface for path resolution, listing, downloads and uploads
//   - AuthSpec: immutable HTTP Basic credential requirement (plain or hashed)
//   - SanitizeFileName: reduces client-supplied upload names to a single safe segment
//
// # Example Usage
//
//	root, err := os.OpenRoot("/srv/files")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	storage := filesystem.NewFileStorage(root)
//
//	service := dirserve.NewService(storage, dirserve.ServiceConfig{UploadsEnabled: true})
//
//	// Resolve a request path
//	resolved, err := service.Resolve(ctx, "/docs/")
//
//	// List a directory
//	entries, err := service.List(ctx, resolved)
//
// See the http package for the request router and the filesystem package for
// the storage backend.
package dirserve
