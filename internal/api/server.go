package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/session-audit/internal/audit"
	"github.com/nerrad567/session-audit/internal/auth"
	"github.com/nerrad567/session-audit/internal/infrastructure/config"
	"github.com/nerrad567/session-audit/internal/infrastructure/logging"
	"github.com/nerrad567/session-audit/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Database is the subset of the SQLite handle the health and metrics
// endpoints read.
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// Connectivity is implemented by the optional MQTT and InfluxDB clients.
type Connectivity interface {
	IsConnected() bool
}

// EventSource fans session events out to notifiers. The server registers
// the live audit hub with it.
type EventSource interface {
	Subscribe(n session.Notifier)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Audit      config.AuditConfig
	Logger     *logging.Logger
	Accounts   *auth.Accounts
	Correlator *session.Correlator
	Gate       *audit.Gate
	Tokens     *auth.TokenIssuer
	DB         Database
	Events     EventSource // optional; without it the audit stream stays silent
	Version    string

	// Integrations are reported by name on /metrics.
	Integrations map[string]Connectivity
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and the audit stream hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	accounts   *auth.Accounts
	correlator *session.Correlator
	gate       *audit.Gate
	tokens     *auth.TokenIssuer
	db         Database
	version    string
	startTime  time.Time
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc // cancels background goroutines on Close()

	integrations map[string]Connectivity
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Accounts == nil || deps.Correlator == nil || deps.Gate == nil {
		return nil, fmt.Errorf("accounts, correlator and gate are required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		accounts:   deps.Accounts,
		correlator: deps.Correlator,
		gate:       deps.Gate,
		tokens:     deps.Tokens,
		db:         deps.DB,
		version:    deps.Version,
		startTime:  time.Now(),
		hub:        NewHub(deps.WS, deps.Logger, deps.Audit.AllowCrossUser),

		integrations: deps.Integrations,
	}

	if deps.Events != nil {
		deps.Events.Subscribe(s.hub)
	}

	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
