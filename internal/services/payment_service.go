package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"trip/internal/models/db_models"
	"trip/internal/models/response_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	ClientBaseURL string
}

// CheckoutSessions is the slice of the provider API the checkout flow uses.
type CheckoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeCheckoutSessions returns nil when no secret key is configured.
func NewStripeCheckoutSessions(secretKey string) CheckoutSessions {
	if secretKey == "" {
		return nil
	}
	return client.New(secretKey, nil).CheckoutSessions
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, tourID uuid.UUID, user *db_models.User) (*response_models.CheckoutSessionResponse, error)
	// HandleWebhook verifies the signature of a provider event and books paid sessions.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	cfg      PaymentConfig
	sessions CheckoutSessions
	tourRepo repositories.TourRepository
	bookings BookingServiceInterface
	logger   *zap.Logger
}

func NewPaymentService(
	cfg PaymentConfig,
	sessions CheckoutSessions,
	tourRepo repositories.TourRepository,
	bookings BookingServiceInterface,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		cfg:      cfg,
		sessions: sessions,
		tourRepo: tourRepo,
		bookings: bookings,
		logger:   logger,
	}
}

func (p *paymentService) CreateCheckoutSession(ctx context.Context, tourID uuid.UUID, user *db_models.User) (*response_models.CheckoutSessionResponse, error) {
	tour, err := p.tourRepo.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, utils.ErrTourNotFound
	}
	if p.sessions == nil {
		return nil, utils.ErrPaymentsUnavailable
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.cfg.ClientBaseURL + "/bookings?booking=success"),
		CancelURL:          stripe.String(fmt.Sprintf("%s/tour/%s", p.cfg.ClientBaseURL, tour.Slug)),
		CustomerEmail:      stripe.String(user.Email),
		ClientReferenceID:  stripe.String(tour.ID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(PriceToMinor(tour.Price)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(tour.Name + " Tour"),
						Description: stripe.String(tour.Summary),
						Images: stripe.StringSlice([]string{
							fmt.Sprintf("%s/img/tours/%s", p.cfg.ClientBaseURL, tour.ImageCover),
						}),
					},
				},
			},
		},
	}
	params.Context = ctx

	session, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &response_models.CheckoutSessionResponse{SessionID: session.ID, SessionURL: session.URL}, nil
}

func (p *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	// an empty secret would let anyone sign events
	if p.cfg.WebhookSecret == "" {
		p.logger.Warn("webhook rejected, no signing secret configured")
		return utils.ErrWebhookSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		p.logger.Warn("webhook signature rejected", zap.Error(err))
		return &utils.AppError{
			StatusCode:    utils.ErrWebhookSignature.StatusCode,
			Message:       utils.ErrWebhookSignature.Message,
			IsOperational: true,
			Err:           err,
		}
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		p.logger.Debug("webhook event ignored", zap.String("type", string(event.Type)))
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	_, err = p.bookings.CreateFromCheckout(ctx, CompletedCheckout{
		SessionID:     session.ID,
		TourReference: session.ClientReferenceID,
		CustomerEmail: email,
		AmountTotal:   session.AmountTotal,
	})
	return err
}
