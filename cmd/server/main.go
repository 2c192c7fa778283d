package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/handlers"
	"github.com/yukikurage/taskflow/internal/logging"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/services"
	"github.com/yukikurage/taskflow/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	slot, err := openSlot(cfg, logger)
	if err != nil {
		return err
	}

	taskService := services.NewTaskService(storage.NewAdapter(slot, logger), services.Options{
		StorageKey:      cfg.StorageKey,
		RetentionWindow: cfg.RetentionWindow,
		Logger:          logger,
	})

	sweeper := services.NewSweeper(taskService, services.SweeperConfig{
		AutoCompleteInterval:   cfg.AutoCompleteInterval,
		RetentionSweepInterval: cfg.RetentionSweepInterval,
	}, logger)

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	// Initialize AI service (nil when no key is configured)
	aiService := services.NewAIService(cfg.OpenAIAPIKey)
	if aiService == nil {
		logger.Info("AI drafting disabled: OPENAI_API_KEY not set")
	}

	router := handlers.NewRouter(
		handlers.NewTaskHandler(taskService, aiService, logger),
		handlers.NewPreferencesHandler(),
		logger,
		sessions.Sessions(constants.SessionName, sessionStore),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Start(ctx)
	defer sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
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

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// openSlot selects where the task collection is stored
func openSlot(cfg *config.Config, logger *slog.Logger) (storage.Slot, error) {
	if cfg.DBDriver == "file" {
		logger.Info("using file storage", "dir", cfg.DataDir)
		return storage.NewFileSlot(cfg.DataDir), nil
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		return nil, err
	}
	return storage.NewDatabaseSlot(repository.NewSnapshotRepository(db)), nil
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		s, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			redisAddr,
			"", // username (empty for default user)
			"", // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = s
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
