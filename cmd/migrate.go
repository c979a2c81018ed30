package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ifc-service/internal/config"
	"ifc-service/internal/logging"
	"ifc-service/internal/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.OutOrStderr())
		if cfg.DBDriver != config.DriverPostgres {
			log.Info().Str("db_driver", cfg.DBDriver).Msg("nothing to migrate")
			return nil
		}

		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return errors.Wrap(err, "connect database")
		}
		if err := migrateDatabase(db); err != nil {
			return err
		}
		log.Info().Msg("database migrated")
		return nil
	},
}

func migrateDatabase(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(&models.Project{}, &models.Attachment{}, &models.IFCModel{}), "auto migrate")
}
