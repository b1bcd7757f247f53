// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Corphon/ScriptRehearsal/internal/api"
	"github.com/Corphon/ScriptRehearsal/internal/config"
	"github.com/Corphon/ScriptRehearsal/internal/services"
	"github.com/Corphon/ScriptRehearsal/internal/storage"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = time.Minute
)

// App wires configuration, storage, services and the HTTP router.
type App struct {
	Config *config.Config
	Logger *utils.Logger

	DB           *gorm.DB
	Store        *storage.ScriptStore
	AudioStorage *storage.AudioStorage

	Scripts    *services.ScriptService
	Audio      *services.AudioService
	Rehearsals *services.RehearsalService

	Router  *gin.Engine
	handler *api.Handler
}

// New opens the database, migrates it and builds every service in
// dependency order.
func New(cfg *config.Config, logger *utils.Logger) (*App, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	db, err := storage.OpenDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	store := storage.NewScriptStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		storage.CloseDatabase(db)
		return nil, err
	}

	audioStorage, err := storage.NewAudioStorage(cfg.AudioDir)
	if err != nil {
		storage.CloseDatabase(db)
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Store:        store,
		AudioStorage: audioStorage,
	}
	a.Scripts = services.NewScriptService(store, logger)
	a.Audio = services.NewAudioService(audioStorage, cfg.RequiredAudioFiles, logger)
	a.Rehearsals = services.NewRehearsalService(a.Scripts, services.RehearsalOptions{
		AutoContinue:    cfg.AutoContinue,
		IdleTimeout:     cfg.SessionIdleTimeout(),
		CleanupInterval: cleanupInterval,
	}, logger)

	a.Router, a.handler = api.SetupRouter(api.Dependencies{
		Scripts:            a.Scripts,
		Audio:              a.Audio,
		Rehearsals:         a.Rehearsals,
		Logger:             logger,
		AudioDir:           cfg.AudioDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DebugMode:          cfg.DebugMode,
	})

	logger.Info("application initialized", map[string]interface{}{
		"database":  cfg.DatabaseURL,
		"audio_dir": cfg.AudioDir,
	})
	return a, nil
}

// Seed inserts the sample scripts into an empty database and makes sure the
// required audio placeholders exist. A lock file in the data directory keeps
// concurrent processes from seeding twice.
func (a *App) Seed(ctx context.Context) (bool, error) {
	seeded, err := storage.SeedLocked(ctx, a.Store, filepath.Join(a.Config.DataDir, "seed.lock"))
	if err != nil {
		return false, err
	}
	if seeded {
		a.Logger.Info("sample scripts seeded", nil)
	}
	a.Audio.EnsureRequired()
	return seeded, nil
}

// Run listens on the configured port until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", a.Config.Port, err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles HTTP requests on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", map[string]interface{}{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server", nil)
	// hijacked websocket connections are not tracked by Shutdown
	a.handler.WebSockets.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.Logger.Info("server stopped", nil)
	return nil
}

// Close ends every rehearsal session and closes the database.
func (a *App) Close() error {
	a.handler.WebSockets.Shutdown()
	a.Rehearsals.Shutdown()
	return storage.CloseDatabase(a.DB)
}
