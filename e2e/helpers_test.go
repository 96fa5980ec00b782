package e2e_test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// binDir holds the dirserve and dirserve-cli binaries built by TestMain.
var (
	binDir   string
	buildErr error
)

func TestMain(m *testing.M) {
	var err error
	binDir, err = os.MkdirTemp("", "dirserve-e2e-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create bin dir:", err)
		os.Exit(1)
	}

	buildErr = buildBinaries(binDir)
	code := m.Run()

	_ = os.RemoveAll(binDir)
	os.Exit(code)
}

func buildBinaries(dst string) error {
	root, err := moduleRoot()
	if err != nil {
		return err
	}

	cmd := exec.Command("go", "build", "-o", dst+string(filepath.Separator), "./cmd/dirserve", "./cmd/dirserve-cli")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go build: %w\n%s", err, out)
	}
	return nil
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}
		dir = parent
	}
}

// binary returns the path of a built command, failing the test when the
// build did not succeed.
func binary(t *testing.T, name string) string {
	t.Helper()
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return filepath.Join(binDir, name)
}

// runBinary runs dirserve to completion from an empty working directory and
// returns its combined output.
func runBinary(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary(t, "dirserve"), args...)
	cmd.Dir = t.TempDir()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// runCLI runs dirserve-cli with a private HOME so no user profile leaks in.
// Stdout and stderr are returned separately.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binary(t, "dirserve-cli"), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir(), "DIRSERVE_PROFILE=", "DIRSERVE_CONFIG=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// setupServedDir creates the fixture tree shared by the server tests.
func setupServedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for name, content := range map[string]string{
		"test.txt":           "test\n",
		"test.html":          "<html><body>test</body></html>",
		"test.mkv":           "not really a video",
		"someDir/nested.txt": "nested",
		".hidden":            "secret",
	} {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

// startServer runs dirserve on a free loopback port serving dir, and returns
// its base URL. The process gets SIGTERM when the test ends; its log output
// is attached to the test only when the test failed.
func startServer(t *testing.T, dir string, flags ...string) string {
	t.Helper()

	port := freePort(t)
	args := append([]string{dir, "-i", "127.0.0.1", "-p", strconv.Itoa(port), "--log-level", "warn"}, flags...)

	var logs bytes.Buffer
	cmd := exec.Command(binary(t, "dirserve"), args...)
	cmd.Dir = t.TempDir()
	cmd.Stdout = &logs
	cmd.Stderr = &logs
	require.NoError(t, cmd.Start())

	t.Cleanup(func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		_ = cmd.Wait()
		if t.Failed() {
			t.Logf("dirserve output:\n%s", logs.String())
		}
	})

	baseURL := "http://127.0.0.1:" + strconv.Itoa(port)
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()
	require.NoError(t, awaitHTTP(ctx, baseURL+"/"), "dirserve did not come up")
	return baseURL
}

// awaitHTTP polls url until any HTTP response arrives; a 401 from a protected
// server counts as up.
func awaitHTTP(ctx context.Context, url string) error {
	client := &http.Client{Timeout: time.Second}
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}
