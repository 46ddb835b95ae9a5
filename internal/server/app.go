// Package server initializes and runs the file storage server. It wires
// together the database, payload storage, download cache, business services,
// HTTP endpoint and the orphan sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mpavlovs/filestore/internal/filex"
	"github.com/mpavlovs/filestore/internal/logging"
	"github.com/mpavlovs/filestore/internal/server/cache"
	"github.com/mpavlovs/filestore/internal/server/config"
	"github.com/mpavlovs/filestore/internal/server/httpapi"
	"github.com/mpavlovs/filestore/internal/server/repositories/repomanager"
	"github.com/mpavlovs/filestore/internal/server/services"
	"github.com/mpavlovs/filestore/internal/server/storage"
	"github.com/mpavlovs/filestore/internal/server/sweep"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	cache       cache.Cache
	userService *services.UserService
	fileService *services.FileService
	sweeper     *sweep.Sweeper
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewDefault()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	dataDir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir error: %w", err)
	}
	resolver := storage.NewResolver(dataDir)
	writer := storage.NewWriter(int64(cfg.WriteWorkers), cfg.WriteTimeout)

	// The cache is best-effort: when it cannot be opened the service runs
	// without one.
	var c cache.Cache = cache.Noop{}
	if cfg.CacheDir != "" {
		cacheDir, err := filex.EnsureDir(cfg.CacheDir)
		if err == nil {
			if bc, err := cache.NewBadgerCache(cacheDir); err == nil {
				c = bc
			} else {
				logger.Warn(ctx, "cache disabled", "error", err)
			}
		} else {
			logger.Warn(ctx, "cache disabled", "error", err)
		}
	}

	us := services.NewUserService(db, m, cfg)
	fs := services.NewFileService(db, m, resolver, writer, c, cfg.CacheTTL, logger)
	sw := sweep.NewSweeper(db, m, resolver, cfg.SweepInterval, cfg.PendingMaxAge, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		cache:       c,
		userService: us,
		fileService: fs,
		sweeper:     sw,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(app.userService, app.fileService, []byte(app.config.SecretKey))
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.cache.Close(); err != nil {
		app.logger.Error(ctx, "cache close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
