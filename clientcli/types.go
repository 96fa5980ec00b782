package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	// RemoteDir is the server directory the file is uploaded into.
	RemoteDir string
	// FileName overrides the uploaded name; defaults to the local base name.
	FileName string
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size_bytes"`
	SHA256     string `json:"sha256,omitempty"`
	Err        error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	RemotePath string
	LocalPath  string // empty = derive from remote, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	RemotePath  string `json:"remote_path"`
	LocalPath   string `json:"local_path"`
	ETag        string `json:"etag"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// ListOptions configures a list operation.
type ListOptions struct {
	Path      string
	Recursive bool
}

// ListResult holds the entries of one or more directory listings.
type ListResult struct {
	Path  string  `json:"path"`
	Items []Entry `json:"items"`
}

// Entry is a single row of a directory listing.
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size_bytes"`
	Modified string `json:"modified,omitempty"`
}

// serverUploadResult mirrors the JSON body returned by a successful upload.
type serverUploadResult struct {
	Name         string `json:"name"`
	URLPath      string `json:"url_path"`
	BytesWritten int64  `json:"bytes_written"`
	SHA256       string `json:"sha256"`
}

// serverError mirrors the JSON error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
