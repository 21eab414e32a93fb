package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/adaptive"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/cache"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/config"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/handlers"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/ranking"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories/postgres"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/validator"
	"github.com/LuisSoma75/SomaEdu-sub000/pkg"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), cfg, migrate)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().Bool("migrate", false, "Run schema migrations before serving")
}

func serve(parent context.Context, cfg *config.Config, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slogger := utils.NewSlog(cfg.LogLevel, cfg.Environment)
	logger := utils.NewSlogLogger(slogger)

	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		slogger.Info("Database migrated")
	}

	catalogCache, closeCache, err := openCatalogCache(ctx, cfg, slogger)
	if err != nil {
		// the catalog cache is optional
		slogger.Warn("Redis unavailable, catalog cache disabled", "error", err)
		catalogCache, closeCache = cache.NewNoopCache(), func() {}
	}
	defer closeCache()

	repo := postgres.NewRepository(db, catalogCache, cfg.Adaptive.CatalogCacheTTL, slogger)
	defer repo.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	ranker := ranking.NewClient(ranking.Config{
		BaseURL:  cfg.Ranking.BaseURL,
		Timeout:  cfg.Ranking.Timeout,
		Disabled: cfg.Ranking.Disabled,
	}, slogger)

	serviceManager := services.NewServiceManager(services.ServiceDeps{
		Repo:           repo,
		Ranker:         ranker,
		EventPublisher: publisher,
		Validator:      validator.New(),
		Engine: services.EngineConfig{
			DefaultMaxItems:         cfg.Adaptive.MaxItems,
			DefaultTimeLimitSeconds: cfg.Adaptive.TimeLimitSeconds,
			ActiveSeasonID:          cfg.Adaptive.ActiveSeasonID,
		},
		Scoring:        raschConfig(cfg.Scoring),
		RandomTieBreak: cfg.Adaptive.RandomTieBreak,
		Logger:         slogger,
	})

	handlerManager := handlers.NewHandlerManager(serviceManager, handlers.NewHeaderStudentResolver(), repo.Ping, logger)
	router := handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Production:     cfg.IsProduction(),
	}, handlerManager, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("Adaptive exam service listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"ranking_enabled", ranker.Enabled(),
			"events_enabled", cfg.Events.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func raschConfig(sc config.ScoringConfig) adaptive.RaschConfig {
	rasch := adaptive.DefaultRaschConfig()
	rasch.RITMid = sc.RITMid
	rasch.RITSlope = sc.RITSlope
	rasch.ThetaMin = sc.ThetaMin
	rasch.ThetaMax = sc.ThetaMax
	return rasch
}
