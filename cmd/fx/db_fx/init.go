package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trip/internal/config"
	"trip/internal/infra"
	"trip/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	repositories.NewTransactionManager,
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := infra.OpenDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.CloseDatabase(db, logger)
			return nil
		},
	})
	return db, nil
}
