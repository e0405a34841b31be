package server

import (
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/devnla/backend-express/internal/common/config"
	"github.com/devnla/backend-express/internal/common/constants"
	"github.com/devnla/backend-express/internal/common/logger"
)

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

func DefaultServerConfig(port string) ServerConfig {
	return ServerConfig{
		Addr:              net.JoinHostPort("", port),
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      constants.ServerWriteTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
		MaxHeaderBytes:    constants.ServerMaxHeaderBytes,
	}
}

// AuthServerConfig keeps the write deadline at least ServerWriteMargin past
// the handler timeout so a timed-out request can still write its error.
func AuthServerConfig(cfg config.AuthConfig) ServerConfig {
	sc := DefaultServerConfig(cfg.HTTPPort)
	if cfg.RequestTimeout > 0 {
		sc.WriteTimeout = max(sc.WriteTimeout, cfg.RequestTimeout+constants.ServerWriteMargin)
		sc.ReadTimeout = max(sc.ReadTimeout, cfg.RequestTimeout)
	}
	return sc
}

// NewServer routes net/http's own diagnostics (TLS handshake and header
// errors) through log at warning level.
func NewServer(cfg ServerConfig, handler http.Handler, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		ErrorLog:          stdlog.New(log.Writer(logger.WARNING), "http: ", 0),
	}
}
