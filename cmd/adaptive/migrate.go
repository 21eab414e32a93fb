package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/config"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories/postgres"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
	"github.com/LuisSoma75/SomaEdu-sub000/pkg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := utils.NewSlog(cfg.LogLevel, cfg.Environment)

		db, err := pkg.InitDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := postgres.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info("Database migrated")

		// cached area lists may predate the migrated catalog
		catalogCache, closeCache, err := openCatalogCache(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Warn("Redis unavailable, catalog cache not cleared", "error", err)
			return nil
		}
		defer closeCache()
		if err := postgres.ClearAreaCache(cmd.Context(), catalogCache, 0); err != nil {
			logger.Warn("Failed to clear catalog cache", "error", err)
		}
		return nil
	},
}
