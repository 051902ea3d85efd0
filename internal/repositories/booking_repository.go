package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/internal/models/db_models"
)

type BookingRepository interface {
	Query(ctx context.Context) *gorm.DB
	Create(ctx context.Context, booking *db_models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*db_models.Booking, error)
	FindBySessionID(ctx context.Context, sessionID string) (*db_models.Booking, error)
	Update(ctx context.Context, booking *db_models.Booking) error
	Delete(ctx context.Context, booking *db_models.Booking) error

	// FindWithDetails lists bookings with tour and user expanded, newest first.
	// A nil userID lists every booking.
	FindWithDetails(ctx context.Context, userID *uuid.UUID) ([]db_models.Booking, error)
}

type bookingRepository struct {
	crudRepository[db_models.Booking]
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	r := &bookingRepository{crudRepository: newCrudRepository[db_models.Booking](db)}
	r.preloads["User"] = bookingUserColumns
	return r
}

func bookingUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "photo")
}

func (r *bookingRepository) FindBySessionID(ctx context.Context, sessionID string) (*db_models.Booking, error) {
	return r.findOne(r.Query(ctx), byColumn("session_id", sessionID))
}

func (r *bookingRepository) FindWithDetails(ctx context.Context, userID *uuid.UUID) ([]db_models.Booking, error) {
	q := r.withPreloads(r.Query(ctx), "Tour", "User").Order("created_at DESC")
	if userID != nil {
		q = q.Where(byColumn("user_id", *userID))
	}

	bookings := []db_models.Booking{}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
