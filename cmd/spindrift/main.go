package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spindrift-media/spindrift/internal/api"
	"github.com/spindrift-media/spindrift/internal/config"
	"github.com/spindrift-media/spindrift/internal/database"
	"github.com/spindrift-media/spindrift/internal/indexer"
	"github.com/spindrift-media/spindrift/internal/indexer/definition"
	"github.com/spindrift-media/spindrift/internal/indexer/factory"
	"github.com/spindrift-media/spindrift/internal/indexer/store"
	"github.com/spindrift-media/spindrift/internal/logger"
	"github.com/spindrift-media/spindrift/internal/scheduler"
	"github.com/spindrift-media/spindrift/internal/websocket"
)

const defaultUsername = "admin"

func main() {
	// A local .env is convenient in development; ignore it when absent.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer log.Close()

	log.Info().
		Str("addr", cfg.Server.Address()).
		Str("db", cfg.Database.Path).
		Msg("Starting Spindrift")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx := context.Background()
	st := store.New(db.Conn(), log.Logger)
	userID, err := st.EnsureUser(ctx, defaultUsername)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve user")
	}

	defs := definition.NewRepository(cfg.Definitions.Dir, log.Logger)
	if err := defs.Load(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Definitions.Dir).Msg("Failed to load definitions")
	} else {
		log.Info().Int("count", defs.Count()).Msg("Loaded indexer definitions")
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	backendFactory := factory.New(defs, log.Logger)
	manager := indexer.NewManager(st, backendFactory, hub, log.Logger)
	if cfg.Search.CacheTTLSeconds > 0 {
		manager.SetCacheTTL(time.Duration(cfg.Search.CacheTTLSeconds) * time.Second)
	}
	if _, err := manager.LoadUserIndexers(ctx, userID); err != nil {
		log.Warn().Err(err).Msg("Failed to load indexers at startup")
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:          "definitions-refresh",
		Name:        "Refresh indexer definitions",
		Description: "Reloads the YAML definition directory",
		Cron:        cfg.Definitions.RefreshCron,
		Func: func(ctx context.Context) error {
			return defs.Load()
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register definitions refresh task")
	}
	sched.Start()

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Store:     st,
		Manager:   manager,
		Factory:   backendFactory,
		Defs:      defs,
		Hub:       hub,
		Scheduler: sched,
		UserID:    userID,
	}, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}
	log.Info().Msg("Goodbye")
}
