package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/pointage/internal/config"
)

// New opens the Postgres pool, applies the pool limits and runs migrations.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.DB.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
		}
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("connected to postgres")

	if err := runMigrations(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate opens a connection only to apply the schema.
func Migrate(cfg *config.Config, log zerolog.Logger) error {
	database, err := New(cfg, log)
	if err != nil {
		return err
	}
	log.Info().Int("statements", len(migrationStatements)).Msg("schema is up to date")
	return Close(database)
}

// Monitor pings the pool every interval and returns the first failure.
// Losing the database is fatal for this service, so callers stop the
// process when Monitor returns an error.
func Monitor(ctx context.Context, database *gorm.DB, interval time.Duration, log zerolog.Logger) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := sqlDB.PingContext(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("postgres connection lost")
				return fmt.Errorf("database unreachable: %w", err)
			}
		}
	}
}

func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
