package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/internal/models/db_models"
	"trip/internal/models/response_models"
)

type TourRepository interface {
	Query(ctx context.Context) *gorm.DB
	Create(ctx context.Context, tour *db_models.Tour) error
	FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*db_models.Tour, error)
	FindBySlug(ctx context.Context, slug string, preload ...string) (*db_models.Tour, error)
	Update(ctx context.Context, tour *db_models.Tour) error
	// Delete removes the tour with its reviews and bookings.
	Delete(ctx context.Context, tour *db_models.Tour) error

	List(ctx context.Context, columns ...string) ([]db_models.Tour, error)
	FindBookedBy(ctx context.Context, userID uuid.UUID) ([]db_models.Tour, error)
	Stats(ctx context.Context, minRating float64) ([]response_models.TourStats, error)
}

type tourRepository struct {
	crudRepository[db_models.Tour]
	tx TransactionManager
}

func NewTourRepository(db *gorm.DB) TourRepository {
	r := &tourRepository{
		crudRepository: newCrudRepository[db_models.Tour](db, publicTours),
		tx:             NewTransactionManager(db),
	}
	r.preloads["Reviews.Author"] = publicProfileColumns
	return r
}

func publicTours(db *gorm.DB) *gorm.DB {
	return db.Where(byColumn("secret_tour", false))
}

func (r *tourRepository) FindBySlug(ctx context.Context, slug string, preload ...string) (*db_models.Tour, error) {
	return r.findOne(r.withPreloads(r.Query(ctx), preload...), byColumn("slug", slug))
}

func (r *tourRepository) Delete(ctx context.Context, tour *db_models.Tour) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := GetDB(txCtx, r.db)
		noHooks := db.Session(&gorm.Session{SkipHooks: true})
		if err := noHooks.Where("tour_id = ?", tour.ID).Delete(&db_models.Review{}).Error; err != nil {
			return err
		}
		if err := db.Where("tour_id = ?", tour.ID).Delete(&db_models.Booking{}).Error; err != nil {
			return err
		}
		return db.Delete(tour).Error
	})
}

// List returns every public tour, loading only columns when given.
func (r *tourRepository) List(ctx context.Context, columns ...string) ([]db_models.Tour, error) {
	q := r.Query(ctx)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	var tours []db_models.Tour
	if err := q.Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) FindBookedBy(ctx context.Context, userID uuid.UUID) ([]db_models.Tour, error) {
	booked := r.conn(ctx).Model(&db_models.Booking{}).Select("tour_id").Where("user_id = ?", userID)

	tours := []db_models.Tour{}
	if err := r.Query(ctx).Where("id IN (?)", booked).Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

// Stats groups well rated tours by difficulty, cheapest group first.
func (r *tourRepository) Stats(ctx context.Context, minRating float64) ([]response_models.TourStats, error) {
	stats := []response_models.TourStats{}
	err := r.Query(ctx).
		Select(`difficulty,
			COUNT(*) AS num_tours,
			SUM(ratings_quantity) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ?", minRating).
		Group("difficulty").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
