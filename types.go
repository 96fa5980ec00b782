package dirserve

import (
	"io"
	"time"
)

// PathKind tags the outcome of resolving a URL path.
type PathKind int

const (
	KindNotFound PathKind = iota
	KindDirectory
	KindFile
)

func (k PathKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "not_found"
	}
}

// ResolvedPath is the result of mapping a URL path onto the served root.
// It is created per request and never cached.
type ResolvedPath struct {
	Kind PathKind
	// Name is the slash-separated path relative to the served root, "." for the root itself.
	Name string
	// URLPath is the cleaned request path with a leading slash. Directories end with "/".
	URLPath string
	Size    int64
	ModTime time.Time
}

func (p ResolvedPath) IsDir() bool  { return p.Kind == KindDirectory }
func (p ResolvedPath) IsFile() bool { return p.Kind == KindFile }

// DirectoryEntry describes one immediate child of a listed directory.
// Size is only meaningful for files; a zero ModTime means it is unknown.
type DirectoryEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
	Size      int64
	ModTime   time.Time
}

// UploadedPart is a single file part of a multipart upload. Data is consumed
// exactly once while it is written to disk.
type UploadedPart struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        io.Reader
}

// Object holds metadata for a file being downloaded.
type Object struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

type SaveResult struct {
	BytesWritten int64
	SHA256       string
}

type UploadResult struct {
	Name         string `json:"name"`
	URLPath      string `json:"url_path"`
	BytesWritten int64  `json:"bytes_written"`
	SHA256       string `json:"sha256"`
}
