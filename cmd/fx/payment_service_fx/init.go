package payment_service_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"trip/internal/config"
	"trip/internal/repositories"
	"trip/internal/services"
)

var Module = fx.Provide(
	providePaymentService,
)

func providePaymentService(
	cfg *config.Config,
	tourRepo repositories.TourRepository,
	bookings services.BookingServiceInterface,
	logger *zap.Logger,
) services.PaymentService {
	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout sessions are disabled")
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_CHECKOUT_SECRET not set, every webhook is rejected")
	}
	return services.NewPaymentService(services.PaymentConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		ClientBaseURL: cfg.ClientBaseURL,
	}, services.NewStripeCheckoutSessions(cfg.StripeSecretKey), tourRepo, bookings, logger)
}
