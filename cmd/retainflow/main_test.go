package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/retainflow/config"
)

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_NoArgs(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI("frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
}

func TestRun_HelpAndVersion(t *testing.T) {
	code, stdout, _ := runCLI("help")
	assert.Zero(t, code)
	assert.Contains(t, stdout, "retainflow <command>")

	code, stdout, _ = runCLI("version")
	assert.Zero(t, code)
	assert.Contains(t, stdout, "RetainFlow "+Version)
}

func TestRun_ChatRejectsUnknownScenario(t *testing.T) {
	code, _, stderr := runCLI("chat", "--scenario", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown scenario "nope"`)
}

func TestRun_BrokenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not, a, map"), 0o644))

	code, _, stderr := runCLI("index", "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestRun_Index(t *testing.T) {
	code, stdout, stderr := runCLI("index", "--dir", "../../data/policies")
	require.Zero(t, code, stderr)
	assert.Contains(t, stdout, "cancellation_policy.md")
	assert.Contains(t, stdout, "from 4 sources.")
}

func TestRunHealthCheck(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	var out bytes.Buffer
	require.NoError(t, runHealthCheck(context.Background(), []string{"--addr", ok.URL}, &out, &bytes.Buffer{}))
	assert.Equal(t, "OK\n", out.String())

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	err := runHealthCheck(context.Background(), []string{"--addr", down.URL}, &out, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestInitLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	logger := initLogger(config.LogConfig{Level: "warn", Format: "json", OutputPaths: []string{path}})
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	logger.Warn("disk almost full")
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"disk almost full"`)
	assert.Contains(t, string(b), `"timestamp"`)

	fallback := initLogger(config.LogConfig{Level: "loud", Format: "console", OutputPaths: []string{"stderr"}})
	assert.True(t, fallback.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, fallback.Core().Enabled(zapcore.DebugLevel))
}
