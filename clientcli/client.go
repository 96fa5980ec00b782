package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUploadField is used when the upload form has no file input.
	DefaultUploadField = "file_to_upload"

	// UploadFormID is the id of the upload form on listing pages.
	UploadFormID = "file_submit"

	// MaxParallelUploads bounds the concurrent requests of UploadMany.
	MaxParallelUploads = 4
)

// Client talks to a dirserve server over its browser-facing HTTP surface.
type Client struct {
	config     *Config
	base       *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse endpoint: unsupported scheme %q", base.Scheme)
	}

	c := &Client{
		config: &Config{
			Endpoint: endpoint,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		base:       base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server endpoint.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// List fetches the listing of a remote directory. With opts.Recursive the
// listing descends into every subdirectory and Items holds all entries.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	dir := normalizeDir(opts.Path)

	page, err := c.fetchListing(ctx, dir)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Path: dir, Items: page.entries}
	if !opts.Recursive {
		return result, nil
	}

	queue := subdirs(page.entries)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]

		sub, subErr := c.fetchListing(ctx, next)
		if subErr != nil {
			return nil, subErr
		}
		result.Items = append(result.Items, sub.entries...)
		queue = append(queue, subdirs(sub.entries)...)
	}

	return result, nil
}

// TotalSize calculates the total size of all file items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

func subdirs(entries []Entry) []string {
	var dirs []string
	for _, e := range entries {
		if e.IsDir {
			dirs = append(dirs, e.Path)
		}
	}
	return dirs
}

// fetchListing GETs a directory page and parses it.
func (c *Client) fetchListing(ctx context.Context, dir string) (*listingPage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.urlFor(dir), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, parseServerError(resp.StatusCode, body)
	}
	if !strings.HasSuffix(resp.Request.URL.Path, "/") {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotDir)
	}

	page, err := parseListing(resp.Body, resp.Request.URL, c.base.Path)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	return page, nil
}

// Download fetches one remote file.
//
// With LocalPath "-" the open body is handed back for the caller to stream
// and close. Otherwise the body is written next to the destination under a
// temporary name and renamed into place once complete, so an interrupted
// transfer never leaves a truncated file. An existing directory as LocalPath
// receives the file under its remote name.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.RemotePath == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}
	remotePath := normalizePath(opts.RemotePath)

	resp, err := c.get(ctx, remotePath)
	if err != nil {
		return nil, nil, err
	}

	result := &DownloadResult{
		RemotePath:  strings.TrimPrefix(remotePath, "/"),
		ETag:        resp.Header.Get("ETag"),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	result.LocalPath = localTarget(opts.LocalPath, path.Base(remotePath))
	if result.Size, err = writeAtomically(result.LocalPath, resp.Body); err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// get issues a GET for a file and rejects anything that is not a 200 for a
// file URL. The server redirects directories to their slash form.
func (c *Client) get(ctx context.Context, remotePath string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.urlFor(remotePath), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	switch {
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return nil, parseServerError(resp.StatusCode, body)
	case strings.HasSuffix(resp.Request.URL.Path, "/"):
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: %w", remotePath, ErrIsDir)
	}
	return resp, nil
}

// localTarget resolves where a download lands: name in the working directory
// when local is empty, inside local when it is an existing directory, and
// local itself otherwise.
func localTarget(local, name string) string {
	if local == "" {
		return name
	}
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return filepath.Join(local, name)
	}
	return local
}

func writeAtomically(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	written, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, fmt.Errorf("move into place: %w", err)
	}
	return written, nil
}

// Upload uploads one local file into a remote directory. The upload form is
// discovered on the directory's listing page, so the client follows whatever
// action and field name the server advertises.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	dir := normalizeDir(opts.RemoteDir)
	page, err := c.fetchListing(ctx, dir)
	if err != nil {
		return nil, err
	}
	if page.form == nil {
		return nil, ErrNoUploadForm
	}

	name := opts.FileName
	if name == "" {
		name = filepath.Base(opts.LocalPath)
	}

	return c.postFile(ctx, page.form, opts.LocalPath, name)
}

// UploadMany uploads several local files into the same remote directory,
// at most MaxParallelUploads at a time. Every path gets a result, in input
// order; a failed file does not stop the others.
func (c *Client) UploadMany(ctx context.Context, remoteDir string, localPaths []string) []UploadResult {
	results := make([]UploadResult, len(localPaths))

	var g errgroup.Group
	g.SetLimit(MaxParallelUploads)
	for i, p := range localPaths {
		g.Go(func() error {
			res, err := c.Upload(ctx, UploadOptions{LocalPath: p, RemoteDir: remoteDir})
			if err != nil {
				results[i] = UploadResult{LocalPath: p, Err: err}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// HasUploadErrors returns true if any upload result contains an error.
func HasUploadErrors(results []UploadResult) bool {
	for i := range results {
		if results[i].Err != nil {
			return true
		}
	}
	return false
}

// postFile streams localPath as a multipart body. The file is never loaded
// into memory; an io.Pipe feeds the multipart writer while the request is sent.
func (c *Client) postFile(ctx context.Context, form *uploadForm, localPath, name string) (*UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload %s: is a directory", localPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, createErr := mw.CreateFormFile(form.field, name)
		if createErr != nil {
			_ = pw.CloseWithError(createErr)
			return
		}
		if _, copyErr := io.Copy(part, file); copyErr != nil {
			_ = pw.CloseWithError(copyErr)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, form.action, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, parseServerError(resp.StatusCode, body)
	}

	var meta serverUploadResult
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &UploadResult{
		LocalPath:  localPath,
		RemotePath: meta.URLPath,
		Size:       meta.BytesWritten,
		SHA256:     meta.SHA256,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.HasAuth() {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
	return req, nil
}

// urlFor joins the endpoint with an escaped remote path.
func (c *Client) urlFor(remotePath string) string {
	segments := strings.Split(remotePath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return c.config.Endpoint + strings.Join(segments, "/")
}

// normalizePath ensures path has a leading slash and no trailing slash.
func normalizePath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	return p
}

// normalizeDir is normalizePath with a trailing slash.
func normalizeDir(p string) string {
	p = normalizePath(p)
	if p != "/" {
		p += "/"
	}
	return p
}

// parseServerError extracts the error message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: strings.TrimSpace(string(body))}
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil && se.Message != "" {
		apiErr.Code = se.Error
		apiErr.Body = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" || strings.HasPrefix(e.Body, "<") {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested path does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when credentials are missing or wrong (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the server refuses uploads (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrConflict is returned when the upload name is already taken (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
