// Package filesystem provides the file system backend for dirserve.
// Every operation goes through an *os.Root, so resolved paths and symlinks
// can never reach outside the served directory. Uploads are streamed into a
// temp file and hard-linked into place, which refuses to replace existing files.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sagarc03/dirserve"
)

// Store provides file system storage operations.
type Store struct {
	root       *os.Root
	noSymlinks bool
}

// Option configures a Store.
type Option func(*Store)

// WithoutSymlinks makes the store treat every symlink as missing: paths
// through a symlink do not resolve and symlinks are left out of listings.
func WithoutSymlinks() Option {
	return func(s *Store) {
		s.noSymlinks = true
	}
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root, opts ...Option) *Store {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve maps a decoded URL path onto the root. Missing paths, paths that
// would escape the root, special files and I/O errors all return
// dirserve.ErrNotFound; the underlying cause is only logged.
func (s *Store) Resolve(ctx context.Context, urlPath string) (dirserve.ResolvedPath, error) {
	if err := ctx.Err(); err != nil {
		return dirserve.ResolvedPath{}, err
	}

	cleaned, ok := dirserve.CleanURLPath(urlPath)
	if !ok {
		return dirserve.ResolvedPath{}, dirserve.ErrNotFound
	}
	name := dirserve.RelativeName(cleaned)

	if s.noSymlinks {
		if err := s.rejectSymlinks(name); err != nil {
			slog.Debug("resolve rejected path", "path", cleaned, "err", err)
			return dirserve.ResolvedPath{}, dirserve.ErrNotFound
		}
	}

	info, err := s.root.Stat(filepath.FromSlash(name))
	if err != nil {
		slog.Debug("resolve failed", "path", cleaned, "err", err)
		return dirserve.ResolvedPath{}, dirserve.ErrNotFound
	}

	resolved := dirserve.ResolvedPath{
		Name:    name,
		URLPath: cleaned,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	switch {
	case info.IsDir():
		resolved.Kind = dirserve.KindDirectory
		resolved.Size = 0
		if !strings.HasSuffix(resolved.URLPath, "/") {
			resolved.URLPath += "/"
		}
	case info.Mode().IsRegular():
		resolved.Kind = dirserve.KindFile
	default:
		return dirserve.ResolvedPath{}, dirserve.ErrNotFound
	}

	return resolved, nil
}

// rejectSymlinks walks every component of name and fails on the first symlink.
func (s *Store) rejectSymlinks(name string) error {
	if name == "." {
		return nil
	}

	current := ""
	for _, seg := range strings.Split(name, "/") {
		current = path.Join(current, seg)
		info, err := s.root.Lstat(filepath.FromSlash(current))
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("symlink in path: %s", current)
		}
	}

	return nil
}

// ReadDir lists the immediate children of dir. Symlinks are reported with
// their target's type and size; symlinks that dangle or point outside the
// root are skipped, as are special files, in-flight uploads and names no URL
// path can reach.
func (s *Store) ReadDir(ctx context.Context, dir dirserve.ResolvedPath) ([]dirserve.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, dirserve.ErrNotFound
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	entries := make([]dirserve.DirectoryEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.HasPrefix(entry.Name(), dirserve.TempFilePrefix) || !dirserve.IsAddressable(entry.Name()) {
			continue
		}

		entryPath := path.Join(dir.Name, entry.Name())
		isSymlink := entry.Type()&fs.ModeSymlink != 0

		var info fs.FileInfo
		if isSymlink {
			if s.noSymlinks {
				continue
			}
			info, err = s.root.Stat(filepath.FromSlash(entryPath))
		} else {
			info, err = entry.Info()
		}
		if err != nil {
			slog.Debug("skipping unreadable entry", "path", entryPath, "err", err)
			continue
		}

		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}

		e := dirserve.DirectoryEntry{
			Name:      entry.Name(),
			IsDir:     info.IsDir(),
			IsSymlink: isSymlink,
			ModTime:   info.ModTime(),
		}
		if !e.IsDir {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Open opens a resolved file for reading. Returns dirserve.ErrNotFound if the
// file disappeared after resolution.
func (s *Store) Open(ctx context.Context, file dirserve.ResolvedPath) (dirserve.Object, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return dirserve.Object{}, nil, err
	}

	f, err := s.root.Open(filepath.FromSlash(file.Name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dirserve.Object{}, nil, dirserve.ErrNotFound
		}
		return dirserve.Object{}, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return dirserve.Object{}, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if !info.Mode().IsRegular() {
		_ = f.Close()
		return dirserve.Object{}, nil, dirserve.ErrNotFound
	}

	contentType, err := detectContentType(file.Name, f)
	if err != nil {
		_ = f.Close()
		return dirserve.Object{}, nil, fmt.Errorf("failed to detect content type: %w", err)
	}

	obj := dirserve.Object{
		Name:        path.Base(file.Name),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
	}

	return obj, f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Create streams content into a temp file inside dir, syncs it, and hard-links
// it to name. The link fails if name already exists, so concurrent uploads of
// the same name cannot overwrite each other: exactly one wins and the others
// get dirserve.ErrConflict. The temp file is always removed, which also
// discards partial data on copy errors or context cancellation.
func (s *Store) Create(ctx context.Context, dir dirserve.ResolvedPath, name string, content io.Reader) (dirserve.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return dirserve.SaveResult{}, ctxErr
	}

	target := filepath.FromSlash(path.Join(dir.Name, name))

	// Fail fast before reading the body; the link below is the real guard.
	if _, err := s.root.Lstat(target); err == nil {
		return dirserve.SaveResult{}, fmt.Errorf("create %s: %w", name, dirserve.ErrConflict)
	}

	tmpFile := filepath.FromSlash(path.Join(dir.Name, tmpFileName()))
	t, createErr := s.root.OpenFile(tmpFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if createErr != nil {
		return dirserve.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	closed := false
	defer func() {
		if !closed {
			if closeErr := t.Close(); closeErr != nil {
				slog.Warn("failed to close tmp file", "err", closeErr)
			}
		}
		if rmErr := s.root.Remove(tmpFile); rmErr != nil {
			slog.Warn("failed to remove tmp file", "file", tmpFile, "err", rmErr)
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	fileSizeBytes, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return dirserve.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err = t.Sync(); err != nil {
		return dirserve.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	closed = true
	if err = t.Close(); err != nil {
		return dirserve.SaveResult{}, fmt.Errorf("could not close written file: %w", err)
	}

	if linkErr := s.root.Link(tmpFile, target); linkErr != nil {
		if errors.Is(linkErr, fs.ErrExist) {
			return dirserve.SaveResult{}, fmt.Errorf("create %s: %w", name, dirserve.ErrConflict)
		}
		return dirserve.SaveResult{}, fmt.Errorf("failed to link file: %w", linkErr)
	}

	return dirserve.SaveResult{
		BytesWritten: fileSizeBytes,
		SHA256:       hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// detectContentType uses the file extension and falls back to sniffing the
// first bytes of r, which is rewound afterwards.
func detectContentType(name string, r io.ReadSeeker) (string, error) {
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		return contentType, nil
	}

	detected, err := mimetype.DetectReader(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return "", seekErr
	}
	if err != nil || detected == nil {
		return "application/octet-stream", nil
	}

	return detected.String(), nil
}

func tmpFileName() string {
	return fmt.Sprintf("%s%s.part", dirserve.TempFilePrefix, uuid.New().String())
}
