package services

import (
	"context"

	"github.com/google/uuid"

	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

type ReviewServiceInterface interface {
	MyReviews(ctx context.Context, userID uuid.UUID) ([]db_models.Review, error)
	ByTour(ctx context.Context, tourID uuid.UUID) ([]db_models.Review, error)
	// PrepareCreate sets the author and, when given, the tour from the URL.
	PrepareCreate(ctx context.Context, review *db_models.Review, author uuid.UUID, tourID *uuid.UUID) error
	// CanModify reports whether the caller may update or delete the review.
	CanModify(review *db_models.Review, callerID uuid.UUID, callerRole db_models.Role) error
}

type ReviewService struct {
	reviewRepo repositories.ReviewRepository
	tourRepo   repositories.TourRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, tourRepo repositories.TourRepository) ReviewServiceInterface {
	return &ReviewService{reviewRepo: reviewRepo, tourRepo: tourRepo}
}

func (s *ReviewService) MyReviews(ctx context.Context, userID uuid.UUID) ([]db_models.Review, error) {
	return s.reviewRepo.FindByUser(ctx, userID)
}

func (s *ReviewService) ByTour(ctx context.Context, tourID uuid.UUID) ([]db_models.Review, error) {
	tour, err := s.tourRepo.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, utils.ErrTourNotFound
	}
	return s.reviewRepo.FindByTour(ctx, tourID)
}

func (s *ReviewService) PrepareCreate(ctx context.Context, review *db_models.Review, author uuid.UUID, tourID *uuid.UUID) error {
	review.UserID = author
	if tourID != nil {
		review.TourID = *tourID
	}
	if review.TourID == uuid.Nil {
		return utils.NewValidationError("Review must belong to a tour")
	}

	tour, err := s.tourRepo.FindByID(ctx, review.TourID)
	if err != nil {
		return err
	}
	if tour == nil {
		return utils.ErrTourNotFound
	}
	return nil
}

func (s *ReviewService) CanModify(review *db_models.Review, callerID uuid.UUID, callerRole db_models.Role) error {
	if callerRole == db_models.RoleAdmin || review.UserID == callerID {
		return nil
	}
	return utils.ErrReviewNotOwned
}
