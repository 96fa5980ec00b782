package dirserve

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TempFilePrefix marks in-flight upload files. Names with this prefix are never
// listed and cannot be chosen by clients.
const TempFilePrefix = ".dirserve-"

// CleanURLPath normalizes a decoded URL path entirely in the URL domain:
// "." and ".." segments are collapsed, duplicate slashes removed, and the
// result always starts with "/". Because the path is rooted before cleaning,
// ".." can never climb above "/".
//
// The second return value is false for paths that must not reach the
// filesystem at all (NUL bytes, invalid UTF-8, backslashes).
func CleanURLPath(p string) (string, bool) {
	if strings.ContainsRune(p, 0) || strings.Contains(p, `\`) || !utf8.ValidString(p) {
		return "", false
	}

	return path.Clean("/" + p), true
}

// IsAddressable reports whether a directory entry name can be reached through
// a URL path accepted by CleanURLPath.
func IsAddressable(name string) bool {
	_, ok := CleanURLPath(name)
	return ok && !strings.Contains(name, "/")
}

// RelativeName converts a cleaned URL path into a root-relative name suitable
// for os.Root, "." for the root itself.
func RelativeName(cleaned string) string {
	rel := strings.TrimPrefix(cleaned, "/")
	if rel == "" {
		return "."
	}
	return rel
}

// SanitizeFileName reduces a client-supplied upload name to a single path
// segment. Directory components are stripped (both "/" and "\" count as
// separators); the remaining name is rejected with ErrInvalidInput if it is
// empty, "." or "..", contains control characters, or uses TempFilePrefix.
func SanitizeFileName(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	switch name {
	case "", ".", "..":
		return "", fmt.Errorf("sanitize file name: %w: empty or reserved name", ErrInvalidInput)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("sanitize file name: %w: invalid utf-8", ErrInvalidInput)
	}

	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return "", fmt.Errorf("sanitize file name: %w: control character", ErrInvalidInput)
		}
	}

	if strings.HasPrefix(name, TempFilePrefix) {
		return "", fmt.Errorf("sanitize file name: %w: reserved prefix", ErrInvalidInput)
	}

	return name, nil
}

// IsHidden reports whether a directory entry name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// SortEntries orders entries with directories first, then by case-insensitive
// name, with ties broken by raw byte order so the result is deterministic.
func SortEntries(entries []DirectoryEntry) {
	slices.SortFunc(entries, compareEntries)
}

func compareEntries(a, b DirectoryEntry) int {
	if a.IsDir != b.IsDir {
		if a.IsDir {
			return -1
		}
		return 1
	}

	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}

	return cmp.Compare(a.Name, b.Name)
}
