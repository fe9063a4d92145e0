package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestFromServerConfig(t *testing.T) {
	sc := config.DefaultServerConfig()
	sc.TLSCertFile, sc.TLSKeyFile = "c.pem", "k.pem"
	cfg := FromServerConfig(sc, 9091)

	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, sc.WriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, sc.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, "c.pem", cfg.CertFile)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
}

func TestManager_StartAndShutdown(t *testing.T) {
	m := NewManager("api", okHandler(), testConfig(), zap.NewNop())
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + m.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_DoubleStart(t *testing.T) {
	m := NewManager("api", okHandler(), testConfig(), nil)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	assert.ErrorContains(t, m.Start(), "already started")
}

func TestManager_StartAfterShutdown(t *testing.T) {
	m := NewManager("api", okHandler(), testConfig(), nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.ErrorContains(t, m.Start(), "closed")
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager("metrics", okHandler(), testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + m.Addr() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, m.IsRunning())
}

func TestManager_RunListenError(t *testing.T) {
	first := NewManager("a", okHandler(), testConfig(), nil)
	require.NoError(t, first.Start())
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	cfg := testConfig()
	cfg.Addr = first.Addr()
	second := NewManager("b", okHandler(), cfg, nil)
	assert.Error(t, second.Run(context.Background()))
}

func TestManager_RunTLSMissingCert(t *testing.T) {
	cfg := testConfig()
	cfg.CertFile, cfg.KeyFile = "missing.pem", "missing.key"
	m := NewManager("api", okHandler(), cfg, nil)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run should fail without certificates")
	}
}
