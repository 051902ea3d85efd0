package infra

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trip/internal/config"
	"trip/internal/models/db_models"
)

// OpenDatabase connects with the configured driver and migrates the schema.
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "trip.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, GormConfig(NewGormLogger(log, level)))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func GormConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                                   l,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&db_models.User{},
		&db_models.Tour{},
		&db_models.Review{},
		&db_models.Booking{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func CloseDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("get database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("close database", zap.Error(err))
	}
}
