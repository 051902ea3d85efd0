package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

const BookingCreatedEvent = "booking.created"

// BookingPublisher fans created bookings out to live subscribers.
type BookingPublisher interface {
	Publish(eventType string, data any)
}

// CompletedCheckout is the part of a paid checkout session a booking is made from.
type CompletedCheckout struct {
	SessionID     string
	TourReference string
	CustomerEmail string
	// AmountTotal is in minor units (cents).
	AmountTotal int64
}

type BookingServiceInterface interface {
	MyBookings(ctx context.Context, userID uuid.UUID) ([]db_models.Booking, error)
	AllWithDetails(ctx context.Context) ([]db_models.Booking, error)
	CancelMine(ctx context.Context, bookingID, userID uuid.UUID) error
	// CreateFromCheckout records the booking for a paid session. A session seen before
	// returns the existing booking; an unknown buyer or tour returns nil, nil.
	CreateFromCheckout(ctx context.Context, checkout CompletedCheckout) (*db_models.Booking, error)
}

type BookingService struct {
	bookingRepo repositories.BookingRepository
	userRepo    repositories.UserRepository
	tourRepo    repositories.TourRepository
	txManager   repositories.TransactionManager
	feed        BookingPublisher
	logger      *zap.Logger
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	userRepo repositories.UserRepository,
	tourRepo repositories.TourRepository,
	txManager repositories.TransactionManager,
	feed BookingPublisher,
	logger *zap.Logger,
) BookingServiceInterface {
	return &BookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		tourRepo:    tourRepo,
		txManager:   txManager,
		feed:        feed,
		logger:      logger,
	}
}

func (s *BookingService) MyBookings(ctx context.Context, userID uuid.UUID) ([]db_models.Booking, error) {
	return s.bookingRepo.FindWithDetails(ctx, &userID)
}

func (s *BookingService) AllWithDetails(ctx context.Context) ([]db_models.Booking, error) {
	return s.bookingRepo.FindWithDetails(ctx, nil)
}

func (s *BookingService) CancelMine(ctx context.Context, bookingID, userID uuid.UUID) error {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return utils.ErrNoDocument
	}
	if booking.UserID != userID {
		return utils.ErrBookingNotOwned
	}
	return s.bookingRepo.Delete(ctx, booking)
}

func (s *BookingService) CreateFromCheckout(ctx context.Context, checkout CompletedCheckout) (*db_models.Booking, error) {
	log := s.logger.With(zap.String("session_id", checkout.SessionID))

	var created *db_models.Booking
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.bookingRepo.FindBySessionID(txCtx, checkout.SessionID)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info("checkout session already booked", zap.String("booking_id", existing.ID.String()))
			return nil
		}

		user, err := s.userRepo.FindByEmail(txCtx, normalizeEmail(checkout.CustomerEmail))
		if err != nil {
			return err
		}
		if user == nil {
			log.Warn("checkout completed for unknown customer, event dropped")
			return nil
		}

		tourID, err := uuid.Parse(checkout.TourReference)
		if err != nil {
			log.Warn("checkout completed with malformed tour reference, event dropped", zap.String("tour", checkout.TourReference))
			return nil
		}
		tour, err := s.tourRepo.FindByID(txCtx, tourID)
		if err != nil {
			return err
		}
		if tour == nil {
			log.Warn("checkout completed for unknown tour, event dropped", zap.String("tour", checkout.TourReference))
			return nil
		}

		sessionID := checkout.SessionID
		booking := &db_models.Booking{
			TourID:    tour.ID,
			UserID:    user.ID,
			Price:     MinorToPrice(checkout.AmountTotal),
			SessionID: &sessionID,
		}
		booking.ApplyDefaults()
		if err := s.bookingRepo.Create(txCtx, booking); err != nil {
			return err
		}
		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created == nil {
		return s.bookingRepo.FindBySessionID(ctx, checkout.SessionID)
	}
	s.feed.Publish(BookingCreatedEvent, created)
	return created, nil
}

// MinorToPrice converts cents to a price.
func MinorToPrice(minor int64) float64 {
	return decimal.NewFromInt(minor).Shift(-2).InexactFloat64()
}

// PriceToMinor converts a price to cents, rounding half away from zero.
func PriceToMinor(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}
