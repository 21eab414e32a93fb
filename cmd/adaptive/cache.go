package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/cache"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/config"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories/postgres"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
	"github.com/LuisSoma75/SomaEdu-sub000/pkg"
)

const cachePrefix = "adaptive"

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the catalog cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached area lists so the next request reads the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := utils.NewSlog(cfg.LogLevel, cfg.Environment)
		subjectID, _ := cmd.Flags().GetUint("subject")

		catalogCache, closeCache, err := openCatalogCache(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeCache()

		if err := postgres.ClearAreaCache(cmd.Context(), catalogCache, subjectID); err != nil {
			return fmt.Errorf("failed to clear catalog cache: %w", err)
		}
		logger.Info("Catalog cache cleared", "subject_id", subjectID)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Uint("subject", 0, "Only this subject (default every subject)")
	cacheCmd.AddCommand(cacheClearCmd)
}

// openCatalogCache returns the noop cache when REDIS_URL is unset.
func openCatalogCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.CacheService, func(), error) {
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return cache.NewNoopCache(), func() {}, nil
	}
	return cache.NewRedisCache(client, cachePrefix, logger), func() { client.Close() }, nil
}
