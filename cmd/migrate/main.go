package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/migration"
)

func main() {
	var (
		direction      string
		steps          int
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&direction, "direction", "up", "Migration direction: up, down or version")
	flag.IntVar(&steps, "steps", 0, "Number of migrations to apply in the given direction (0 = all)")
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: MIGRATIONS_PATH)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log := logger.New(logger.Config{Level: logLevel, Format: "console"})
	defer func() { _ = log.Sync() }()

	if err := run(log, direction, steps, migrationsPath); err != nil {
		log.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, direction string, steps int, migrationsPath string) error {
	if steps < 0 {
		return fmt.Errorf("-steps must not be negative, got %d", steps)
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbCfg.Driver != "postgres" {
		return fmt.Errorf("SQL migrations target postgres, DB_DRIVER is %q (sqlite schemas are created with DB_AUTO_MIGRATE)", dbCfg.Driver)
	}
	if migrationsPath == "" {
		migrationsPath = dbCfg.MigrationsPath
	}

	db, err := database.Open(dbCfg, log, "warn")
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	m, err := migration.New(sqlDB, migrationsPath, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	log.Info("Migration CLI started",
		zap.String("direction", direction),
		zap.Int("steps", steps),
		zap.String("migrations_path", migrationsPath),
	)

	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unknown direction %q (want up, down or version)", direction)
	}
}
