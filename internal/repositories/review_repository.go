package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/internal/models/db_models"
)

type ReviewRepository interface {
	Query(ctx context.Context) *gorm.DB
	Create(ctx context.Context, review *db_models.Review) error
	FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*db_models.Review, error)
	Update(ctx context.Context, review *db_models.Review) error
	Delete(ctx context.Context, review *db_models.Review) error

	FindByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Review, error)
	FindByTour(ctx context.Context, tourID uuid.UUID) ([]db_models.Review, error)
}

type reviewRepository struct {
	crudRepository[db_models.Review]
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	r := &reviewRepository{crudRepository: newCrudRepository[db_models.Review](db, withAuthor)}
	return r
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", publicProfileColumns)
}

func (r *reviewRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Review, error) {
	return r.findAll(ctx, "user_id", userID)
}

func (r *reviewRepository) FindByTour(ctx context.Context, tourID uuid.UUID) ([]db_models.Review, error) {
	return r.findAll(ctx, "tour_id", tourID)
}

func (r *reviewRepository) findAll(ctx context.Context, column string, id uuid.UUID) ([]db_models.Review, error) {
	reviews := []db_models.Review{}
	err := r.Query(ctx).
		Where(byColumn(column, id)).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
