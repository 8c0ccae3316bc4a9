// Package app wires configuration, the snapshot store, the pipeline and the
// HTTP front end for the entry points under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/platform-analytics/internal/api"
	"github.com/andresuchdata/platform-analytics/internal/cache"
	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/andresuchdata/platform-analytics/internal/pipeline"
	"github.com/andresuchdata/platform-analytics/internal/repository/postgres"
	"github.com/andresuchdata/platform-analytics/internal/service"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// App holds the long-lived components of one process.
type App struct {
	Config    *config.Config
	Options   pipeline.Options
	Store     cache.SnapshotStore
	Pipeline  *pipeline.Orchestrator
	Analytics *service.AnalyticsService

	db *postgres.DB
}

// New builds the components described by cfg. A database connection is only
// opened for the postgres snapshot backend.
func New(cfg *config.Config) (*App, error) {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}

	var db *postgres.DB
	if cfg.Cache.Backend == "postgres" {
		db, err = postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	store, err := cache.NewSnapshotStore(cfg.Cache, db)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	orchestrator := pipeline.NewOrchestrator(opts, store)
	return &App{
		Config:    cfg,
		Options:   opts,
		Store:     store,
		Pipeline:  orchestrator,
		Analytics: service.NewAnalyticsService(orchestrator),
		db:        db,
	}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Router builds the gin engine serving the analytics API.
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(&api.Services{Analytics: a.Analytics}, a.Config.Server.AllowedOrigins)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", a.Config.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
