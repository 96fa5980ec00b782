package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Formatter renders command results.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns a JSONFormatter when jsonOutput is set and a
// HumanFormatter otherwise.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter writes aligned plain text. Quiet drops progress lines and
// reduces listings to one path per line, for piping into other tools.
type HumanFormatter struct {
	Quiet bool
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for _, r := range results {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
		case !f.Quiet:
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.RemotePath, formatSize(r.Size))
			if r.SHA256 != "" {
				_, _ = fmt.Fprintf(w, "  SHA256: %s\n", r.SHA256)
			}
		}
	}
	return nil
}

func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}

	target := ""
	if result.LocalPath != "-" {
		target = " -> " + result.LocalPath
	}
	_, _ = fmt.Fprintf(w, "Downloaded: %s%s (%s)\n", result.RemotePath, target, formatSize(result.Size))
	if result.ETag != "" {
		_, _ = fmt.Fprintf(w, "  ETag: %s\n", result.ETag)
	}
	return nil
}

func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintf(w, "%s is empty\n", result.Path)
		return nil
	}

	if f.Quiet {
		for _, item := range result.Items {
			_, _ = fmt.Fprintln(w, item.Path)
		}
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "PATH\tSIZE\tMODIFIED")

	dirs := 0
	for _, item := range result.Items {
		size := formatSize(item.Size)
		if item.IsDir {
			size = "-"
			dirs++
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Path, size, item.Modified)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s), %d directory(ies) (%s total)\n",
		len(result.Items)-dirs, dirs, formatSize(result.TotalSize()))
	return nil
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList prints one row per profile; the default is marked with "*".
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "\tNAME\tENDPOINT\tUSERNAME\tPASSWORD")
	for _, p := range profiles {
		marker := ""
		if p.Name == defaultName {
			marker = "*"
		}
		username := p.Username
		if username == "" {
			username = "(none)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, p.Name, p.Endpoint, username, passwordDisplay(p, showSecrets))
	}
	return tw.Flush()
}

func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	name := profile.Name
	if isDefault {
		name += " (default)"
	}

	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", name)
	_, _ = fmt.Fprintf(tw, "Endpoint:\t%s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(tw, "Username:\t%s\n", profile.Username)
	_, _ = fmt.Fprintf(tw, "Password:\t%s\n", passwordDisplay(profile, showSecrets))
	return tw.Flush()
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct{}

type uploadRecord struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path,omitempty"`
	Size       int64  `json:"size_bytes,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
	Error      string `json:"error,omitempty"`
}

type profileRecord struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	PasswordEnv string `json:"password_env,omitempty"`
	Default     bool   `json:"default"`
}

func newProfileRecord(p Profile, isDefault, showSecrets bool) profileRecord {
	rec := profileRecord{
		Name:        p.Name,
		Endpoint:    p.Endpoint,
		Username:    p.Username,
		PasswordEnv: p.PasswordEnv,
		Default:     isDefault,
	}
	if p.Password != "" {
		rec.Password = maskSecret(p.Password, showSecrets)
	}
	return rec
}

func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	records := make([]uploadRecord, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			records = append(records, uploadRecord{LocalPath: r.LocalPath, Error: r.Err.Error()})
			continue
		}
		records = append(records, uploadRecord{
			LocalPath:  r.LocalPath,
			RemotePath: r.RemotePath,
			Size:       r.Size,
			SHA256:     r.SHA256,
		})
	}
	return writeJSON(w, records)
}

func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, map[string]string{"error": err.Error()})
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	records := make([]profileRecord, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, newProfileRecord(p, p.Name == defaultName, showSecrets))
	}
	return writeJSON(w, map[string]any{"profiles": records})
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, newProfileRecord(profile, isDefault, showSecrets))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize renders bytes as an IEC size such as "1.5 KiB".
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(bytes))
}

func passwordDisplay(p Profile, showSecrets bool) string {
	switch {
	case p.PasswordEnv != "":
		return "$" + p.PasswordEnv
	case p.Password == "":
		return "(not set)"
	default:
		return maskSecret(p.Password, showSecrets)
	}
}

// maskSecret hides a password entirely unless showSecrets is set; no prefix
// or suffix is revealed.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	return "********"
}
