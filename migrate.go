package main

import (
	"errors"

	"yanote/config"
	"yanote/config/database"
	"yanote/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store != config.StoreSQL {
			return errors.New("migrate needs STORE=sql")
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db, cfg.DBDriver); err != nil {
			return err
		}
		logger.Sugar.Infof("Schema for %s is up to date", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
