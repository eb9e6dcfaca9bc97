// Package server assembles the monitor service from configuration.
package server

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq" // postgres driver
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/anchor-insight/anchor-insight/docs" // swagger spec registration
	"github.com/anchor-insight/anchor-insight/pkg/analyzer"
	"github.com/anchor-insight/anchor-insight/pkg/api"
	"github.com/anchor-insight/anchor-insight/pkg/audit"
	auditpg "github.com/anchor-insight/anchor-insight/pkg/audit/postgres"
	"github.com/anchor-insight/anchor-insight/pkg/auth"
	"github.com/anchor-insight/anchor-insight/pkg/database/migrate"
	"github.com/anchor-insight/anchor-insight/pkg/health"
	insighthttp "github.com/anchor-insight/anchor-insight/pkg/http"
	"github.com/anchor-insight/anchor-insight/pkg/platform"
	"github.com/anchor-insight/anchor-insight/pkg/tracker"
	trackerpg "github.com/anchor-insight/anchor-insight/pkg/tracker/postgres"
)

// Build information, set at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// auditCleanupInterval is how often expired audit events are purged.
const auditCleanupInterval = 24 * time.Hour

// Server is the assembled monitor service.
type Server struct {
	cfg     *platform.Config
	handler http.Handler
	checker *health.Checker

	db         *sql.DB
	archive    tracker.Archiver
	auditStore *auditpg.Store
	auditLog   audit.Logger

	httpServer *http.Server
}

// New builds a Server from validated configuration.
func New(cfg *platform.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		checker: health.NewChecker(),
	}

	if err := s.setupDatabase(); err != nil {
		return nil, err
	}
	s.setupAudit()

	scorer, err := s.setupAnalyzer()
	if err != nil {
		s.closeResources()
		return nil, err
	}

	authenticator, err := buildAuthenticator(cfg.Auth)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	apiHandler := api.NewHandler(api.Deps{
		Tracker: tracker.New(tracker.Config{
			MinBlocksHighConfidence: cfg.Tracker.MinBlocksHighConfidence,
		}),
		Analyzer:         scorer,
		Archive:          s.archive,
		Audit:            s.auditLog,
		AuditQuery:       s.auditQuerier(),
		DefaultSessionID: cfg.Tracker.DefaultSessionID,
		Version:          Version,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", s.checker.ReadinessHandler())
	mux.Handle("/docs/", httpSwagger.Handler())
	mux.Handle("/api/v1/", insighthttp.Chain(apiHandler,
		insighthttp.CORSMiddleware(cfg.Server.AllowedOrigins),
		insighthttp.TokenMiddleware(!cfg.Auth.AllowAnonymous),
		insighthttp.AuthenticateMiddleware(authenticator),
	))

	s.handler = mux
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// setupDatabase opens the archive database and applies migrations when
// configured. Without a database the service runs memory-only.
func (s *Server) setupDatabase() error {
	if !s.cfg.Database.Enabled {
		return nil
	}

	db, err := sql.Open("postgres", s.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.Database.MaxOpenConns)

	if s.cfg.Database.Migrate {
		if err := migrate.Run(db); err != nil {
			_ = db.Close()
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	s.db = db
	s.archive = trackerpg.New(db)
	s.checker.AddProbe("database", db.PingContext)
	return nil
}

// setupAudit selects the audit sink: postgres when a database is available,
// otherwise structured logs.
func (s *Server) setupAudit() {
	if !s.cfg.Audit.Enabled {
		return
	}

	if s.db != nil {
		store := auditpg.New(s.db, auditpg.Config{RetentionDays: s.cfg.Audit.RetentionDays})
		store.StartCleanupRoutine(auditCleanupInterval)
		s.auditStore = store
		s.auditLog = store
		return
	}
	s.auditLog = audit.NewSlogLogger(slog.Default())
}

// auditQuerier exposes the query surface of the audit sink. Only the
// database-backed store can answer queries.
func (s *Server) auditQuerier() audit.Querier {
	if s.auditStore == nil {
		return nil
	}
	return s.auditStore
}

// setupAnalyzer builds the screenshot analyzer when enabled.
func (s *Server) setupAnalyzer() (api.Scorer, error) {
	if !s.cfg.Analyzer.Enabled {
		return nil, nil
	}

	a, err := analyzer.NewFromAPIKey(s.cfg.Analyzer.APIKey, analyzer.Config{
		Model:         s.cfg.Analyzer.Model,
		MaxFileSizeMB: s.cfg.Analyzer.MaxImageSizeMB,
		MaxRetries:    s.cfg.Analyzer.MaxRetries,
		RetryDelay:    s.cfg.Analyzer.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	return a, nil
}

// buildAuthenticator assembles the authenticator chain from config.
func buildAuthenticator(cfg platform.AuthConfig) (auth.Authenticator, error) {
	var chain []auth.Authenticator

	if cfg.APIKeys.Enabled {
		a, err := auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{Keys: cfg.APIKeys.Keys})
		if err != nil {
			return nil, fmt.Errorf("configuring api key auth: %w", err)
		}
		chain = append(chain, a)
	}

	if cfg.JWT.Enabled {
		key, err := decodeSigningKey(cfg.JWT.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("configuring jwt auth: %w", err)
		}
		a, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:     cfg.JWT.Issuer,
			SigningKey: key,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring jwt auth: %w", err)
		}
		chain = append(chain, a)
	}

	if cfg.AllowAnonymous {
		chain = append(chain, &auth.NoopAuthenticator{})
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return auth.NewChainAuthenticator(chain...), nil
}

// decodeSigningKey accepts a base64-encoded HMAC key, falling back to the
// raw string when it is not valid base64.
func decodeSigningKey(key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("signing key is empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil {
		return decoded, nil
	}
	return []byte(key), nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until the context is canceled, then drains and shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "address", s.cfg.Server.Address, "version", Version)
		if s.cfg.Server.TLS.Enabled {
			errc <- s.httpServer.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
			return
		}
		errc <- s.httpServer.ListenAndServe()
	}()

	s.checker.SetReady()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	slog.Info("server: shutting down", "timeout", s.cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() error {
	s.closeResources()
	return nil
}

func (s *Server) closeResources() {
	if s.auditStore != nil {
		_ = s.auditStore.Close()
	}
	if s.archive != nil {
		_ = s.archive.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
