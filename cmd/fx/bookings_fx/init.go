package bookings_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"trip/internal/config"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/internal/websocket"
)

var Module = fx.Provide(
	repositories.NewBookingRepository,
	provideFeed,
	providePublisher,
	services.NewBookingService,
)

func providePublisher(hub *websocket.Hub) services.BookingPublisher {
	return hub
}

func provideFeed(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) *websocket.Hub {
	var origins []string
	if cfg.IsProduction() {
		origins = []string{cfg.ClientBaseURL}
	}
	hub := websocket.NewHub(logger.Named("feed"), origins...)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Stop()
			return nil
		},
	})
	return hub
}
