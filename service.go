package dirserve

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// FileSystem defines the storage operations the server needs from the served
// directory tree. Implementations must confine every operation to the served
// root.
//
// All methods accept a context for cancellation. Implementations should
// respect context cancellation during long-running operations like uploads.
type FileSystem interface {
	// Resolve maps a decoded URL path to a directory or file under the root.
	//
	// Returns:
	//   - ResolvedPath: Kind is KindDirectory or KindFile on success
	//   - error: ErrNotFound for missing paths, paths escaping the root, special
	//     files and any I/O failure. Callers must not distinguish these cases.
	Resolve(ctx context.Context, urlPath string) (ResolvedPath, error)

	// ReadDir returns the immediate children of a resolved directory in no
	// particular order. In-flight upload files are never returned.
	ReadDir(ctx context.Context, dir ResolvedPath) ([]DirectoryEntry, error)

	// Open opens a resolved file for reading. The caller closes the reader.
	Open(ctx context.Context, file ResolvedPath) (Object, io.ReadSeekCloser, error)

	// Create streams content into a new file called name inside dir.
	//
	// Implementations should:
	//   - Never replace an existing file; return ErrConflict instead
	//   - Never leave a partially written file visible under name
	//   - Remove partial data when content fails or ctx is cancelled
	Create(ctx context.Context, dir ResolvedPath, name string, content io.Reader) (SaveResult, error)
}

// ServiceConfig holds listing and upload policy for a Service.
type ServiceConfig struct {
	UploadsEnabled bool
	ShowHidden     bool
}

// Service implements the request-independent parts of serving a directory:
// resolution, sorted listings and upload policy.
type Service struct {
	storage FileSystem
	config  ServiceConfig
}

func NewService(storage FileSystem, cfg ServiceConfig) *Service {
	return &Service{
		storage: storage,
		config:  cfg,
	}
}

func (s *Service) UploadsEnabled() bool {
	return s.config.UploadsEnabled
}

func (s *Service) Resolve(ctx context.Context, urlPath string) (ResolvedPath, error) {
	if err := ctx.Err(); err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve: %w", err)
	}

	resolved, err := s.storage.Resolve(ctx, urlPath)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve: %w", err)
	}

	if !s.config.ShowHidden && hasHiddenSegment(resolved.Name) {
		return ResolvedPath{}, fmt.Errorf("resolve: %w", ErrNotFound)
	}

	return resolved, nil
}

// List returns the sorted children of dir. Hidden entries are dropped unless
// the service was configured to show them.
func (s *Service) List(ctx context.Context, dir ResolvedPath) ([]DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}

	if !dir.IsDir() {
		return nil, fmt.Errorf("list directory %s: %w", dir.URLPath, ErrNotFound)
	}

	entries, err := s.storage.ReadDir(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", dir.URLPath, err)
	}

	visible := entries[:0]
	for _, e := range entries {
		if !s.config.ShowHidden && IsHidden(e.Name) {
			continue
		}
		visible = append(visible, e)
	}

	SortEntries(visible)
	return visible, nil
}

func (s *Service) Open(ctx context.Context, file ResolvedPath) (Object, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, nil, fmt.Errorf("open file: %w", err)
	}

	if !file.IsFile() {
		return Object{}, nil, fmt.Errorf("open file %s: %w", file.URLPath, ErrNotFound)
	}

	obj, content, err := s.storage.Open(ctx, file)
	if err != nil {
		return Object{}, nil, fmt.Errorf("open file %s: %w", file.URLPath, err)
	}

	return obj, content, nil
}

// Upload validates and stores a single uploaded part inside dir.
//
// Error types returned:
//   - ErrUploadDisabled: the service is read-only
//   - ErrNotFound: dir is not a directory
//   - ErrInvalidInput: the file name is unusable after sanitizing, or hidden
//     while hidden entries are not served
//   - ErrConflict: a file with the same name already exists
//   - context.Canceled: the client went away mid-upload
//   - Wrapped storage errors for I/O failures
func (s *Service) Upload(ctx context.Context, dir ResolvedPath, part UploadedPart) (UploadResult, error) {
	if !s.config.UploadsEnabled {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrUploadDisabled)
	}

	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if !dir.IsDir() {
		return UploadResult{}, fmt.Errorf("upload %s: %w", dir.URLPath, ErrNotFound)
	}

	name, err := SanitizeFileName(part.FileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if !s.config.ShowHidden && IsHidden(name) {
		return UploadResult{}, fmt.Errorf("upload %s: %w: hidden names are not accepted", name, ErrInvalidInput)
	}

	if part.Data == nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w: missing file data", name, ErrInvalidInput)
	}

	saved, err := s.storage.Create(ctx, dir, name, part.Data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}

	return UploadResult{
		Name:         name,
		URLPath:      path.Join(dir.URLPath, name),
		BytesWritten: saved.BytesWritten,
		SHA256:       saved.SHA256,
	}, nil
}

func hasHiddenSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg != "." && IsHidden(seg) {
			return true
		}
	}
	return false
}
