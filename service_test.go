package dirserve_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sagarc03/dirserve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyFileSystem struct {
	mock.Mock
}

func (s *SpyFileSystem) Resolve(ctx context.Context, urlPath string) (dirserve.ResolvedPath, error) {
	args := s.Called(ctx, urlPath)
	return args.Get(0).(dirserve.ResolvedPath), args.Error(1)
}

func (s *SpyFileSystem) ReadDir(ctx context.Context, dir dirserve.ResolvedPath) ([]dirserve.DirectoryEntry, error) {
	args := s.Called(ctx, dir)
	return args.Get(0).([]dirserve.DirectoryEntry), args.Error(1)
}

func (s *SpyFileSystem) Open(ctx context.Context, file dirserve.ResolvedPath) (dirserve.Object, io.ReadSeekCloser, error) {
	args := s.Called(ctx, file)
	var rc io.ReadSeekCloser
	if v := args.Get(1); v != nil {
		rc = v.(io.ReadSeekCloser)
	}
	return args.Get(0).(dirserve.Object), rc, args.Error(2)
}

func (s *SpyFileSystem) Create(ctx context.Context, dir dirserve.ResolvedPath, name string, content io.Reader) (dirserve.SaveResult, error) {
	args := s.Called(ctx, dir, name, content)
	return args.Get(0).(dirserve.SaveResult), args.Error(1)
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func NewDirService(t *testing.T, cfg dirserve.ServiceConfig) (*dirserve.Service, *SpyFileSystem) {
	t.Helper()
	spy := new(SpyFileSystem)
	return dirserve.NewService(spy, cfg), spy
}

var (
	rootDir = dirserve.ResolvedPath{Kind: dirserve.KindDirectory, Name: ".", URLPath: "/"}
	subDir  = dirserve.ResolvedPath{Kind: dirserve.KindDirectory, Name: "docs", URLPath: "/docs/"}
	aFile   = dirserve.ResolvedPath{Kind: dirserve.KindFile, Name: "docs/a.txt", URLPath: "/docs/a.txt", Size: 3}
)

func TestService_Resolve(t *testing.T) {
	t.Run("passes through storage result", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("Resolve", ctx, "/docs/a.txt").Return(aFile, nil)

		got, err := service.Resolve(ctx, "/docs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, aFile, got)
		storage.AssertExpectations(t)
	})

	t.Run("storage not found", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("Resolve", ctx, "/missing").Return(dirserve.ResolvedPath{}, dirserve.ErrNotFound)

		_, err := service.Resolve(ctx, "/missing")
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
	})

	t.Run("hidden segment is not found", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		hidden := dirserve.ResolvedPath{Kind: dirserve.KindFile, Name: ".git/config", URLPath: "/.git/config"}
		storage.On("Resolve", ctx, "/.git/config").Return(hidden, nil)

		_, err := service.Resolve(ctx, "/.git/config")
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
	})

	t.Run("hidden segment allowed when showing hidden", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{ShowHidden: true})
		ctx := context.Background()

		hidden := dirserve.ResolvedPath{Kind: dirserve.KindFile, Name: ".git/config", URLPath: "/.git/config"}
		storage.On("Resolve", ctx, "/.git/config").Return(hidden, nil)

		got, err := service.Resolve(ctx, "/.git/config")
		require.NoError(t, err)
		assert.Equal(t, hidden, got)
	})

	t.Run("root is never hidden", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("Resolve", ctx, "/").Return(rootDir, nil)

		got, err := service.Resolve(ctx, "/")
		require.NoError(t, err)
		assert.True(t, got.IsDir())
	})

	t.Run("context cancelled before operation", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Resolve(ctx, "/")
		assert.ErrorIs(t, err, context.Canceled)
		storage.AssertNotCalled(t, "Resolve")
	})
}

func TestService_List(t *testing.T) {
	t.Run("sorted with hidden entries dropped", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("ReadDir", ctx, rootDir).Return([]dirserve.DirectoryEntry{
			{Name: "b.txt"},
			{Name: ".env"},
			{Name: "Photos", IsDir: true},
			{Name: "a.txt"},
			{Name: ".cache", IsDir: true},
		}, nil)

		entries, err := service.List(ctx, rootDir)
		require.NoError(t, err)

		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		assert.Equal(t, []string{"Photos", "a.txt", "b.txt"}, names)
		storage.AssertExpectations(t)
	})

	t.Run("hidden entries kept when showing hidden", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{ShowHidden: true})
		ctx := context.Background()

		storage.On("ReadDir", ctx, rootDir).Return([]dirserve.DirectoryEntry{
			{Name: "b.txt"},
			{Name: ".env"},
		}, nil)

		entries, err := service.List(ctx, rootDir)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ".env", entries[0].Name)
	})

	t.Run("empty directory", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("ReadDir", ctx, subDir).Return([]dirserve.DirectoryEntry{}, nil)

		entries, err := service.List(ctx, subDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("file is not listable", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})

		_, err := service.List(context.Background(), aFile)
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
		storage.AssertNotCalled(t, "ReadDir")
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("ReadDir", ctx, rootDir).Return([]dirserve.DirectoryEntry(nil), dirserve.ErrInternal)

		_, err := service.List(ctx, rootDir)
		assert.ErrorIs(t, err, dirserve.ErrInternal)
	})
}

func TestService_Open(t *testing.T) {
	t.Run("opens file", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		obj := dirserve.Object{Name: "a.txt", Size: 3, ContentType: "text/plain; charset=utf-8"}
		content := nopReadSeekCloser{bytes.NewReader([]byte("abc"))}
		storage.On("Open", ctx, aFile).Return(obj, content, nil)

		gotObj, gotContent, err := service.Open(ctx, aFile)
		require.NoError(t, err)
		assert.Equal(t, obj, gotObj)

		data, err := io.ReadAll(gotContent)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(data))
	})

	t.Run("directory cannot be opened", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})

		_, _, err := service.Open(context.Background(), subDir)
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
		storage.AssertNotCalled(t, "Open")
	})

	t.Run("storage error", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})
		ctx := context.Background()

		storage.On("Open", ctx, aFile).Return(dirserve.Object{}, nil, dirserve.ErrNotFound)

		_, _, err := service.Open(ctx, aFile)
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
	})
}

func TestService_Upload(t *testing.T) {
	t.Run("stores sanitized name", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})
		ctx := context.Background()

		data := strings.NewReader("this should be uploaded")
		storage.On("Create", ctx, subDir, "uploaded test file.txt", data).
			Return(dirserve.SaveResult{BytesWritten: 23, SHA256: "abc"}, nil)

		result, err := service.Upload(ctx, subDir, dirserve.UploadedPart{
			FieldName: "file_to_upload",
			FileName:  "../../uploaded test file.txt",
			Data:      data,
		})
		require.NoError(t, err)
		assert.Equal(t, dirserve.UploadResult{
			Name:         "uploaded test file.txt",
			URLPath:      "/docs/uploaded test file.txt",
			BytesWritten: 23,
			SHA256:       "abc",
		}, result)
		storage.AssertExpectations(t)
	})

	t.Run("upload into root", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})
		ctx := context.Background()

		data := strings.NewReader("x")
		storage.On("Create", ctx, rootDir, "x.txt", data).Return(dirserve.SaveResult{BytesWritten: 1}, nil)

		result, err := service.Upload(ctx, rootDir, dirserve.UploadedPart{FileName: "x.txt", Data: data})
		require.NoError(t, err)
		assert.Equal(t, "/x.txt", result.URLPath)
	})

	t.Run("uploads disabled", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{})

		_, err := service.Upload(context.Background(), rootDir, dirserve.UploadedPart{
			FileName: "x.txt",
			Data:     strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, dirserve.ErrUploadDisabled)
		storage.AssertNotCalled(t, "Create")
	})

	t.Run("target must be a directory", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})

		_, err := service.Upload(context.Background(), aFile, dirserve.UploadedPart{
			FileName: "x.txt",
			Data:     strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, dirserve.ErrNotFound)
		storage.AssertNotCalled(t, "Create")
	})

	t.Run("invalid names rejected", func(t *testing.T) {
		for _, name := range []string{"", "..", "a/", "bad\nname", dirserve.TempFilePrefix + "x"} {
			service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})

			_, err := service.Upload(context.Background(), rootDir, dirserve.UploadedPart{
				FileName: name,
				Data:     strings.NewReader("x"),
			})
			assert.ErrorIs(t, err, dirserve.ErrInvalidInput, "name %q", name)
			storage.AssertNotCalled(t, "Create")
		}
	})

	t.Run("hidden names rejected when hidden entries are not served", func(t *testing.T) {
		for _, name := range []string{".hidden", ".env", "sub/.profile"} {
			service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})

			_, err := service.Upload(context.Background(), rootDir, dirserve.UploadedPart{
				FileName: name,
				Data:     strings.NewReader("x"),
			})
			assert.ErrorIs(t, err, dirserve.ErrInvalidInput, "name %q", name)
			assert.NotErrorIs(t, err, dirserve.ErrConflict, "name %q", name)
			storage.AssertNotCalled(t, "Create")
		}
	})

	t.Run("hidden names accepted when hidden entries are served", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true, ShowHidden: true})
		ctx := context.Background()

		data := strings.NewReader("x")
		storage.On("Create", ctx, rootDir, ".hidden", data).Return(dirserve.SaveResult{BytesWritten: 1}, nil)

		result, err := service.Upload(ctx, rootDir, dirserve.UploadedPart{FileName: ".hidden", Data: data})
		require.NoError(t, err)
		assert.Equal(t, "/.hidden", result.URLPath)
		storage.AssertExpectations(t)
	})

	t.Run("missing data", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})

		_, err := service.Upload(context.Background(), rootDir, dirserve.UploadedPart{FileName: "x.txt"})
		assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
		storage.AssertNotCalled(t, "Create")
	})

	t.Run("conflict from storage", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})
		ctx := context.Background()

		data := strings.NewReader("x")
		storage.On("Create", ctx, rootDir, "taken.txt", data).Return(dirserve.SaveResult{}, dirserve.ErrConflict)

		_, err := service.Upload(ctx, rootDir, dirserve.UploadedPart{FileName: "taken.txt", Data: data})
		assert.ErrorIs(t, err, dirserve.ErrConflict)
	})

	t.Run("context cancelled before operation", func(t *testing.T) {
		service, storage := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Upload(ctx, rootDir, dirserve.UploadedPart{FileName: "x.txt", Data: strings.NewReader("x")})
		assert.ErrorIs(t, err, context.Canceled)
		storage.AssertNotCalled(t, "Create")
	})
}

func TestService_UploadsEnabled(t *testing.T) {
	on, _ := NewDirService(t, dirserve.ServiceConfig{UploadsEnabled: true})
	off, _ := NewDirService(t, dirserve.ServiceConfig{})
	assert.True(t, on.UploadsEnabled())
	assert.False(t, off.UploadsEnabled())
}
