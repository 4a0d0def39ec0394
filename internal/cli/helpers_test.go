package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points HOME and cwd at fresh temp dirs and unsets QUOTESYNC_*.
// It returns the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"QUOTESYNC_DB_PATH", "QUOTESYNC_DB_PATH_FILE", "QUOTESYNC_REMOTE_URL",
		"QUOTESYNC_REMOTE_URL_FILE", "QUOTESYNC_REMOTE_FILE", "QUOTESYNC_INTERVAL",
		"QUOTESYNC_FETCH_TIMEOUT", "QUOTESYNC_LOG_LEVEL", "QUOTESYNC_LOG_FORMAT",
		"QUOTESYNC_LOG_FILE", "QUOTESYNC_LOG_MAX_SIZE_MB", "QUOTESYNC_OUTPUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	chdir(t, work)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return work
}

// execute runs the root command with args and returns stdout.
// Logs are discarded.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// jsonResponse mirrors CLIResponse with the payload left raw.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeResponse(t *testing.T, out string, data any) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(abs))
	t.Setenv("PWD", abs)
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
