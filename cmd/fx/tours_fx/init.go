package tours_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"trip/internal/config"
	"trip/internal/infra"
	"trip/internal/repositories"
	"trip/internal/services"
)

var Module = fx.Provide(
	repositories.NewTourRepository,
	provideTourService,
)

func provideTourService(
	tourRepo repositories.TourRepository,
	images services.ImageService,
	cache infra.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) services.TourServiceInterface {
	return services.NewTourService(tourRepo, images, cache, cfg.StatsCacheTTL, logger)
}
