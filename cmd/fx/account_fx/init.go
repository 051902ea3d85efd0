package account_fx

import (
	"go.uber.org/fx"

	"trip/internal/config"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/pkg/utils"
)

var Module = fx.Provide(
	repositories.NewUserRepository,
	provideTokenManager,
	provideImageService,
	services.NewAccountService,
	services.NewUserService,
)

func provideTokenManager(cfg *config.Config, now utils.Clock) *utils.TokenManager {
	return utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, now)
}

func provideImageService(cfg *config.Config, now utils.Clock) services.ImageService {
	return services.NewImageService(cfg.PublicDir, now)
}
