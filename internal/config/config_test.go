package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and cwd at fresh temp dirs and unsets QUOTESYNC_*.
// Variables must be unset, not empty: godotenv never overrides a variable
// that exists.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
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
	return home, work
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "share", "quotesync", "quotesync.db"), cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output)
	assert.False(t, cfg.HasRemote())
}

func TestLoad_YAMLFile(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "quotesync", "config.yaml"), `
db_path: /data/quotes.db
remote_url: https://example.com/quotes.json
interval: 2m
fetch_timeout: 5s
log_level: debug
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/quotes.db", cfg.DBPath)
	assert.Equal(t, "https://example.com/quotes.json", cfg.RemoteURL)
	assert.Equal(t, 2*time.Minute, cfg.Interval)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HasRemote())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	home, work := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "quotesync", "config.yaml"), `
db_path: /from/yaml.db
remote_file: /from/yaml.json
interval: 1m
`)
	writeFile(t, filepath.Join(work, ".env.local"), "QUOTESYNC_DB_PATH=/from/dotenv.db\nQUOTESYNC_INTERVAL=45s\n")
	t.Setenv("QUOTESYNC_INTERVAL", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/from/dotenv.db", cfg.DBPath, ".env.local beats yaml")
	assert.Equal(t, 10*time.Second, cfg.Interval, "real environment beats .env.local")
	assert.Equal(t, "/from/yaml.json", cfg.RemoteFile)
}

func TestLoad_FileVariant(t *testing.T) {
	isolate(t)
	secret := filepath.Join(t.TempDir(), "url")
	writeFile(t, secret, "https://example.com/feed\n")
	t.Setenv("QUOTESYNC_REMOTE_URL_FILE", secret)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed", cfg.RemoteURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"bad duration":   {"QUOTESYNC_INTERVAL", "soon"},
		"zero interval":  {"QUOTESYNC_INTERVAL", "0s"},
		"bad level":      {"QUOTESYNC_LOG_LEVEL", "loud"},
		"bad output":     {"QUOTESYNC_OUTPUT", "xml"},
		"bad size":       {"QUOTESYNC_LOG_MAX_SIZE_MB", "ten"},
		"negative fetch": {"QUOTESYNC_FETCH_TIMEOUT", "-1s"},
	}

	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate_RemoteExclusive(t *testing.T) {
	cfg := Defaults()
	cfg.RemoteURL = "https://example.com"
	cfg.RemoteFile = "/tmp/x.json"

	assert.Error(t, cfg.Validate())
}

func TestFindEnvLocal_InParentDir(t *testing.T) {
	_, work := isolate(t)
	child := filepath.Join(work, "child")
	require.NoError(t, os.Mkdir(child, 0o755))
	envPath := filepath.Join(work, ".env.local")
	writeFile(t, envPath, "TEST=parent")
	chdir(t, child)

	result := findEnvLocal()
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(envPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	assert.Equal(t, expectedResolved, resultResolved)
}

func TestLoad_UnreadableEnvLocalIsLogged(t *testing.T) {
	_, work := isolate(t)
	require.NoError(t, os.Mkdir(filepath.Join(work, ".env.local"), 0o755))

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, logs.String(), "ignoring unreadable env file")
	assert.Contains(t, logs.String(), ".env.local")
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
