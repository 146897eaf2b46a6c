package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/htol/bookshelf/api"
	"github.com/htol/bookshelf/config"
	"github.com/htol/bookshelf/history"
	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/repo"
	"github.com/htol/bookshelf/seed"
	"github.com/htol/bookshelf/service"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	storage repo.Repository
	service *service.Service
	config  *config.Config
	handler http.Handler
}

// NewServer opens the configured store, seeds it and wires the HTTP handler
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	storage, err := openStorage(cfg.Store)
	if err != nil {
		return nil, err
	}

	if _, err := seed.Run(ctx, storage, cfg.Seed); err != nil {
		storage.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	h, err := history.New(cfg.Query.SearchHistorySize)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("search history: %w", err)
	}

	svc := service.New(storage, h)
	return &Server{
		storage: storage,
		service: svc,
		config:  cfg,
		handler: api.NewHandler(svc, api.Options{
			DefaultPerPage: cfg.Query.DefaultPerPage,
			MaxPerPage:     cfg.Query.MaxPerPage,
		}),
	}, nil
}

func openStorage(cfg config.StoreConfig) (repo.Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := repo.NewSQLite(cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Using SQLite store", "path", cfg.Path)
		return s, nil
	case config.DriverMemory, "":
		logger.Info("Using in-memory store")
		return repo.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(s.config.Server.Port)),
		Handler: s.handler,

		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", "port", s.config.Server.Port, "url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return err
		}
	}
	return nil
}
