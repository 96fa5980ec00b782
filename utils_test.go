package dirserve_test

import (
	"testing"
	"unicode/utf8"

	"github.com/sagarc03/dirserve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanURLPath(t *testing.T) {
	// Create a path with invalid UTF-8 (without embedding raw invalid bytes in source)
	invalidUTF8 := string([]byte{'/', 'a', 0xff, 'b'})

	tt := []struct {
		Name   string
		Path   string
		Want   string
		WantOK bool
	}{
		// Basics
		{Name: "root path", Path: "/", Want: "/", WantOK: true},
		{Name: "empty path", Path: "", Want: "/", WantOK: true},
		{Name: "no leading slash", Path: "some/path", Want: "/some/path", WantOK: true},
		{Name: "trailing slash dropped", Path: "/some/path/", Want: "/some/path", WantOK: true},

		// Traversal is collapsed and never climbs above the root
		{Name: "parent at root", Path: "/..", Want: "/", WantOK: true},
		{Name: "many parents", Path: "/../../../etc/passwd", Want: "/etc/passwd", WantOK: true},
		{Name: "parent in middle", Path: "/a/../b", Want: "/b", WantOK: true},
		{Name: "parent escaping nested", Path: "/a/b/../../../c", Want: "/c", WantOK: true},
		{Name: "double dots inside name kept", Path: "/a/b..c", Want: "/a/b..c", WantOK: true},

		// Dot segments and duplicate slashes
		{Name: "single dot segment", Path: "/a/./b", Want: "/a/b", WantOK: true},
		{Name: "double slash", Path: "//a//b", Want: "/a/b", WantOK: true},

		// Rejected before reaching the filesystem
		{Name: "contains NUL", Path: "/some\x00path", WantOK: false},
		{Name: "contains backslash", Path: `/some\..\path`, WantOK: false},
		{Name: "invalid utf8", Path: invalidUTF8, WantOK: false},

		// Valid examples
		{Name: "spaces allowed", Path: "/some path/file name.txt", Want: "/some path/file name.txt", WantOK: true},
		{Name: "unicode valid", Path: "/привет/世界/file.ext", Want: "/привет/世界/file.ext", WantOK: true},
		{Name: "percent kept literal", Path: "/a/%2e%2e/b", Want: "/a/%2e%2e/b", WantOK: true},
	}

	// sanity check for our generated invalid UTF-8 case
	if utf8.ValidString(invalidUTF8) {
		t.Fatalf("test setup error: invalidUTF8 is unexpectedly valid")
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got, ok := dirserve.CleanURLPath(tc.Path)
			if ok != tc.WantOK {
				t.Fatalf("CleanURLPath(%q) ok = %v, want %v", tc.Path, ok, tc.WantOK)
			}
			if ok && got != tc.Want {
				t.Errorf("CleanURLPath(%q) = %q, want %q", tc.Path, got, tc.Want)
			}
		})
	}
}

func TestRelativeName(t *testing.T) {
	assert.Equal(t, ".", dirserve.RelativeName("/"))
	assert.Equal(t, "a/b.txt", dirserve.RelativeName("/a/b.txt"))
}

func TestSanitizeFileName(t *testing.T) {
	tt := []struct {
		Name    string
		Input   string
		Want    string
		WantErr bool
	}{
		{Name: "plain name", Input: "report.pdf", Want: "report.pdf"},
		{Name: "spaces kept", Input: "uploaded test file.txt", Want: "uploaded test file.txt"},
		{Name: "unix directories stripped", Input: "../../etc/passwd", Want: "passwd"},
		{Name: "windows directories stripped", Input: `C:\Users\me\notes.txt`, Want: "notes.txt"},
		{Name: "dotfile allowed", Input: ".env", Want: ".env"},
		{Name: "unicode", Input: "日本語.txt", Want: "日本語.txt"},

		{Name: "empty", Input: "", WantErr: true},
		{Name: "dot", Input: ".", WantErr: true},
		{Name: "dot dot", Input: "..", WantErr: true},
		{Name: "trailing separator", Input: "dir/", WantErr: true},
		{Name: "parent after strip", Input: "a/..", WantErr: true},
		{Name: "newline", Input: "a\nb.txt", WantErr: true},
		{Name: "NUL", Input: "a\x00b", WantErr: true},
		{Name: "DEL", Input: "a\x7fb", WantErr: true},
		{Name: "invalid utf8", Input: string([]byte{'a', 0xff}), WantErr: true},
		{Name: "temp prefix", Input: dirserve.TempFilePrefix + "x.part", WantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := dirserve.SanitizeFileName(tc.Input)
			if tc.WantErr {
				assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got)
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, dirserve.IsHidden(".git"))
	assert.True(t, dirserve.IsHidden(".."))
	assert.False(t, dirserve.IsHidden("visible.txt"))
	assert.False(t, dirserve.IsHidden(""))
}

func TestIsAddressable(t *testing.T) {
	assert.True(t, dirserve.IsAddressable("report.txt"))
	assert.True(t, dirserve.IsAddressable("with space"))
	assert.True(t, dirserve.IsAddressable("日本語.txt"))
	assert.False(t, dirserve.IsAddressable(`back\slash`))
	assert.False(t, dirserve.IsAddressable("bad\xffname"))
	assert.False(t, dirserve.IsAddressable("nul\x00name"))
}

func TestSortEntries(t *testing.T) {
	entries := []dirserve.DirectoryEntry{
		{Name: "b.txt"},
		{Name: "Zeta", IsDir: true},
		{Name: "A.txt"},
		{Name: "alpha", IsDir: true},
		{Name: "a.txt"},
		{Name: "C.txt"},
	}

	dirserve.SortEntries(entries)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"alpha", "Zeta", "A.txt", "a.txt", "b.txt", "C.txt"}, names)
}

func TestSortEntries_Deterministic(t *testing.T) {
	first := []dirserve.DirectoryEntry{{Name: "b"}, {Name: "B"}, {Name: "a"}}
	second := []dirserve.DirectoryEntry{{Name: "a"}, {Name: "B"}, {Name: "b"}}

	dirserve.SortEntries(first)
	dirserve.SortEntries(second)
	assert.Equal(t, first, second)
}
