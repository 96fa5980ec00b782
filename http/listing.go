package http

import (
	"html/template"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sagarc03/dirserve"
)

// ListingPage is everything needed to render one directory listing.
type ListingPage struct {
	// Title overrides the page title; the directory path is used when empty.
	Title string
	// URLPath is the listed directory's cleaned path, ending with "/".
	URLPath     string
	RoutePrefix string
	// Entries must already be sorted.
	Entries        []dirserve.DirectoryEntry
	UploadsEnabled bool
}

type listingRow struct {
	Name      string
	Href      string
	Kind      string
	IsDir     bool
	IsSymlink bool
	Size      string
	SizeBytes int64
	Modified  string
}

type listingView struct {
	Title        string
	Heading      string
	ParentHref   string
	UploadAction string
	UploadField  string
	Uploads      bool
	Rows         []listingRow
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:.3em .8em}
tr:nth-child(even){background:#f4f4f4}
td.size,td.modified{white-space:nowrap;color:#555}
a.directory{font-weight:bold}
</style>
</head>
<body>
<h1>{{.Heading}}</h1>
{{- if .Uploads}}
<form id="file_submit" action="{{.UploadAction}}" method="POST" enctype="multipart/form-data">
<input type="file" name="{{.UploadField}}" required>
<button type="submit">Upload file</button>
</form>
{{- end}}
<table>
<thead><tr><th>Name</th><th>Size</th><th>Last modified</th></tr></thead>
<tbody>
{{- if .ParentHref}}
<tr class="parent"><td><a class="directory" href="{{.ParentHref}}">..</a></td><td></td><td></td></tr>
{{- end}}
{{- range .Rows}}
<tr class="entry" data-kind="{{.Kind}}" data-size="{{.SizeBytes}}"><td><a class="{{.Kind}}" href="{{.Href}}">{{.Name}}</a>{{if .IsSymlink}} <span class="symlink">(symlink)</span>{{end}}</td><td class="size">{{.Size}}</td><td class="modified">{{.Modified}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// RenderListing writes the HTML listing for page to w. Every link is absolute
// (route prefix + directory path + escaped entry name), so navigation works at
// any nesting depth. Names are escaped by html/template.
func RenderListing(w io.Writer, page ListingPage) error {
	return listingTemplate.Execute(w, newListingView(page))
}

func newListingView(page ListingPage) listingView {
	dirPath := page.URLPath
	if !strings.HasSuffix(dirPath, "/") {
		dirPath += "/"
	}
	base := escapePath(page.RoutePrefix + dirPath)

	view := listingView{
		Title:       page.Title,
		Heading:     "Index of " + dirPath,
		UploadField: UploadField,
		Uploads:     page.UploadsEnabled,
		Rows:        make([]listingRow, 0, len(page.Entries)),
	}
	if view.Title == "" {
		view.Title = view.Heading
	}

	if dirPath != "/" {
		parent := path.Dir(strings.TrimSuffix(dirPath, "/"))
		if parent != "/" {
			parent += "/"
		}
		view.ParentHref = escapePath(page.RoutePrefix + parent)
	}

	if page.UploadsEnabled {
		view.UploadAction = page.RoutePrefix + UploadPath + "?path=" + url.QueryEscape(dirPath)
	}

	for _, e := range page.Entries {
		row := listingRow{
			Name:      e.Name,
			Href:      base + url.PathEscape(e.Name),
			Kind:      "file",
			IsDir:     e.IsDir,
			IsSymlink: e.IsSymlink,
		}
		if e.IsDir {
			row.Href += "/"
			row.Kind = "directory"
			row.Size = "-"
		} else {
			row.SizeBytes = e.Size
			row.Size = humanize.IBytes(uint64(max(e.Size, 0)))
		}
		if !e.ModTime.IsZero() {
			row.Modified = e.ModTime.Format("2006-01-02 15:04:05")
		}
		view.Rows = append(view.Rows, row)
	}

	return view
}

// escapePath percent-encodes each segment of a slash-separated path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
