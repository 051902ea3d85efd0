package config_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"trip/internal/config"
	"trip/pkg/utils"
)

var Module = fx.Provide(
	config.Load,
	provideLogger,
	provideClock,
)

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func provideClock() utils.Clock {
	return utils.SystemClock
}
