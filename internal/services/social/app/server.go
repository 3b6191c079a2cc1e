// Package server wires the social read API runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/skein/internal/platform/config"
	"github.com/louisbranch/skein/internal/services/social/api/httpapi"
	"github.com/louisbranch/skein/internal/services/social/query"
	"github.com/louisbranch/skein/internal/services/social/storage"
	"github.com/louisbranch/skein/internal/services/social/storage/postgres"
	"github.com/louisbranch/skein/internal/services/social/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type serverEnv struct {
	DBPath      string `env:"SKEIN_SOCIAL_DB_PATH"`
	PostgresDSN string `env:"SKEIN_SOCIAL_POSTGRES_DSN"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "social.db")
	}
	return cfg
}

// Server hosts the social HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      storage.Store
}

// New creates a configured social server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured social server for the provided address.
// The backing store comes from the environment: a PostgreSQL pool when
// SKEIN_SOCIAL_POSTGRES_DSN is set, an embedded SQLite file otherwise.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := openSocialStore(loadServerEnv())
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	httpapi.RegisterRoutes(mux, httpapi.NewHandler(query.NewService(store)))
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
	}, nil
}

func openSocialStore(env serverEnv) (storage.Store, error) {
	if strings.TrimSpace(env.PostgresDSN) != "" {
		store, err := postgres.Open(context.Background(), env.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}
	return sqlite.Open(env.DBPath)
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a social server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("social server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown social server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve social server: %w", err)
	}
}

// Close releases the listener and the backing store.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
