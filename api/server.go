// Package api serves the PDF topic and mind map pipelines over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mindmap_backend/core"
	"mindmap_backend/db"
	"mindmap_backend/mindmap"
	"mindmap_backend/tempfiles"

	"go.uber.org/zap"
)

// Pipelines runs the two end-to-end flows. *pipeline.Runner implements it.
type Pipelines interface {
	PDFToTopics(ctx context.Context, path string) (mindmap.TopicsResult, error)
	TopicToMindmap(ctx context.Context, path, topic string) (mindmap.MindMapResult, error)
}

// History reads stored runs. *db.Repository implements it.
type History interface {
	RecentRuns(ctx context.Context, limit int) ([]db.RunRecord, error)
	Stats(ctx context.Context) (db.RunStats, error)
}

// Tracker counts in-flight pipeline requests. *shutdown.Tracker implements it.
type Tracker interface {
	Start() bool
	Done()
}

// Config configures the Server.
type Config struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxFileSize    int64
	MaxTopicLength int

	CORSOrigins        []string
	APIPassword        string
	PasswordCost       int // bcrypt cost; 0 uses bcrypt.DefaultCost
	RateLimitPerMinute int // 0 disables rate limiting
	Version            string
}

// DefaultConfig returns the settings of a local single-user deployment.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		ReadTimeout:    2 * time.Minute,
		WriteTimeout:   10 * time.Minute,
		IdleTimeout:    2 * time.Minute,
		MaxFileSize:    core.DefaultMaxFileSize,
		MaxTopicLength: core.DefaultMaxTopicLength,
		CORSOrigins:    []string{"*"},
		Version:        core.APIVersion,
	}
}

// ConfigFromCore builds a Config from the process configuration.
func ConfigFromCore(cfg *core.Config) Config {
	c := DefaultConfig()
	c.Host = cfg.Host
	c.Port = cfg.Port
	c.MaxFileSize = cfg.MaxFileSize
	c.MaxTopicLength = cfg.MaxTopicLength
	c.CORSOrigins = cfg.CORSOrigins
	c.APIPassword = cfg.APIPassword
	c.RateLimitPerMinute = cfg.RateLimitPerMinute
	return c
}

// Deps are the collaborators of the Server. History and Tracker are optional.
type Deps struct {
	Pipelines Pipelines
	Store     *tempfiles.Store
	History   History
	Tracker   Tracker
	Logger    *zap.Logger
}

// Server is the HTTP front end of the pipelines.
type Server struct {
	config     Config
	deps       Deps
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	limiter    *RateLimiter
	httpServer *http.Server
}

// multipartOverhead is allowed on top of MaxFileSize for form fields and
// part headers.
const multipartOverhead = 1 << 20

// NewServer wires routes and middleware.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Pipelines == nil {
		return nil, errors.New("api: pipelines are required")
	}
	if deps.Store == nil {
		return nil, errors.New("api: temp file store is required")
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = core.DefaultMaxFileSize
	}
	if config.Version == "" {
		config.Version = core.APIVersion
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()

	// Innermost first: auth and rate limiting see the correlation id.
	handler := http.Handler(s.mux)
	if config.APIPassword != "" {
		auth, err := NewBasicAuth(config.APIPassword, config.PasswordCost, logger, "/health")
		if err != nil {
			return nil, fmt.Errorf("api: configure basic auth: %w", err)
		}
		handler = auth.Middleware(handler)
	}
	if config.RateLimitPerMinute > 0 {
		s.limiter = NewRateLimiter(config.RateLimitPerMinute, time.Minute)
		handler = s.limiter.Middleware(logger, "/health")(handler)
	}
	handler = cors(config.CORSOrigins)(handler)
	handler = recoverer(logger)(handler)
	handler = requestLogger(logger, "/health")(handler)
	handler = correlationID(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("API server created",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("auth_enabled", config.APIPassword != ""),
		zap.Int("rate_limit_per_minute", config.RateLimitPerMinute),
		zap.Bool("history_enabled", deps.History != nil))
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /pdf/topics", s.handleTopics)
	s.mux.HandleFunc("POST /pdf/mindmap", s.handleMindmap)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /history/stats", s.handleStats)
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("API server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// RunMaintenance drops idle rate limiter entries every minute until ctx is
// done.
func (s *Server) RunMaintenance(ctx context.Context) error {
	if s.limiter == nil {
		<-ctx.Done()
		return nil
	}
	return s.limiter.RunCleanup(ctx, time.Minute)
}

// Shutdown stops accepting connections and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
