package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/internal/tlsutil"
)

// =============================================================================
// 🌐 HTTP 服务器管理器
// =============================================================================

// Config 服务器配置
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
	// 证书与私钥均非空时 Run 以 HTTPS 方式启动
	CertFile string
	KeyFile  string
}

// DefaultConfig 返回默认服务器配置
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// FromServerConfig derives the listener config for port from the server section.
func FromServerConfig(cfg config.ServerConfig, port int) Config {
	c := DefaultConfig()
	c.Addr = ":" + strconv.Itoa(port)
	if cfg.ReadTimeout > 0 {
		c.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		c.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		c.ShutdownTimeout = cfg.ShutdownTimeout
	}
	c.CertFile, c.KeyFile = cfg.TLSCertFile, cfg.TLSKeyFile
	return c
}

// Manager HTTP 服务器管理器
type Manager struct {
	name     string
	server   *http.Server
	listener net.Listener
	errCh    chan error
	config   Config
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewManager 创建服务器管理器；name 仅用于日志（如 "api"、"metrics"）
func NewManager(name string, handler http.Handler, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		name: name,
		server: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		errCh:  make(chan error, 1),
		config: cfg,
		logger: logger.With(zap.String("component", "http_server"), zap.String("server", name)),
	}
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Start 启动 HTTP 服务器（非阻塞）
func (m *Manager) Start() error {
	return m.start(false)
}

// StartTLS 使用 config 中的证书启动 HTTPS 服务器（非阻塞）
func (m *Manager) StartTLS() error {
	return m.start(true)
}

func (m *Manager) start(useTLS bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("server is closed")
	}
	if m.listener != nil {
		return fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", m.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.config.Addr, err)
	}
	m.listener = listener

	if useTLS {
		m.server.TLSConfig = tlsutil.ServerTLSConfig()
		m.logger.Info("starting HTTPS server", zap.String("addr", listener.Addr().String()))
		go func() { m.report(m.server.ServeTLS(listener, m.config.CertFile, m.config.KeyFile)) }()
		return nil
	}
	m.logger.Info("starting HTTP server", zap.String("addr", listener.Addr().String()))
	go func() { m.report(m.server.Serve(listener)) }()
	return nil
}

func (m *Manager) report(err error) {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}
	m.logger.Error("server failed", zap.Error(err))
	select {
	case m.errCh <- err:
	default:
	}
}

// Run starts the server and blocks until ctx is done or the server fails,
// then shuts down gracefully.
func (m *Manager) Run(ctx context.Context) error {
	var err error
	if m.config.CertFile != "" && m.config.KeyFile != "" {
		err = m.StartTLS()
	} else {
		err = m.Start()
	}
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return m.Shutdown(context.Background())
	case serveErr := <-m.errCh:
		_ = m.Shutdown(context.Background())
		return serveErr
	}
}

// Shutdown 优雅关闭服务器
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("server shutdown failed", zap.Error(err))
		return err
	}
	m.listener = nil
	m.logger.Info("server stopped")
	return nil
}

// Errors returns asynchronous server errors.
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// =============================================================================
// 🔧 辅助方法
// =============================================================================

// Addr 返回实际监听地址；未启动时返回配置地址
func (m *Manager) Addr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return m.config.Addr
}

// IsRunning 检查服务器是否运行中
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}
