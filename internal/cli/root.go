package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nurpe/pointage/internal/config"
	"github.com/nurpe/pointage/internal/db"
	"github.com/nurpe/pointage/internal/excel"
	"github.com/nurpe/pointage/internal/logger"
	"github.com/nurpe/pointage/internal/pdf"
	"github.com/nurpe/pointage/internal/repository"
	"github.com/nurpe/pointage/internal/service"
)

// openFunc wires a timesheet service and returns a cleanup to run after use.
type openFunc func() (*service.TimesheetService, func(), error)

func NewRootCmd() *cobra.Command {
	return newRootCmd(openDatabaseService)
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "pointagectl",
		Short: "Administration tool for the pointage service",
		Long: `pointagectl prepares the pointage database and exports monthly
timesheets without going through the HTTP API.`,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newExportCmd(open))
	root.AddCommand(newTokenCmd())
	return root
}

func openDatabaseService() (*service.TimesheetService, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc := service.NewTimesheetService(repository.NewStateRepository(database), excel.NewGenerator(), pdf.NewGenerator(), log)
	return svc, func() { closeQuietly(database, log) }, nil
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.Environment), nil
}

func closeQuietly(database *gorm.DB, log zerolog.Logger) {
	if err := db.Close(database); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}
