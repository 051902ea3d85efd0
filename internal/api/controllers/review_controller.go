package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/pkg/handlerfactory"
	"trip/pkg/utils"
)

type ReviewController struct {
	reviewService services.ReviewServiceInterface
	crud          *handlerfactory.Factory[db_models.Review]
}

func NewReviewController(reviewService services.ReviewServiceInterface, reviewRepo repositories.ReviewRepository, cfg *config.Config) *ReviewController {
	rc := &ReviewController{reviewService: reviewService}
	rc.crud = handlerfactory.New[db_models.Review](reviewRepo, handlerfactory.Options[db_models.Review]{
		ParentParam:  "id",
		ParentColumn: "tour_id",
		MaxLimit:     cfg.QueryMaxLimit,
		BeforeCreate: rc.prepareCreate,
		Authorize: func(c *gin.Context, review *db_models.Review) error {
			me := currentUser(c)
			return reviewService.CanModify(review, me.ID, me.Role)
		},
		Protect: func(stored, patched *db_models.Review) {
			patched.TourID = stored.TourID
			patched.UserID = stored.UserID
		},
	})
	return rc
}

// prepareCreate takes the tour from /tours/:id/reviews when nested, else from the body.
func (rc *ReviewController) prepareCreate(c *gin.Context, review *db_models.Review) error {
	var tourID *uuid.UUID
	if raw := c.Param("id"); raw != "" {
		id, err := handlerfactory.ParseID("id", raw)
		if err != nil {
			return err
		}
		tourID = &id
	}
	return rc.reviewService.PrepareCreate(c.Request.Context(), review, currentUser(c).ID, tourID)
}

// GetAllReviews godoc
// @Summary List reviews
// @Description Lists every review, or the reviews of one tour when nested under /tours/{id}/reviews
// @Tags Reviews
// @Produce json
// @Param sort query string false "Sort fields"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews [get]
// @Router /tours/{id}/reviews [get]
func (rc *ReviewController) GetAllReviews() gin.HandlerFunc { return rc.crud.GetAll() }

// GetReview godoc
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews/{id} [get]
func (rc *ReviewController) GetReview() gin.HandlerFunc { return rc.crud.GetOne() }

// CreateReview godoc
// @Summary Review a tour
// @Description One review per user and tour; the author is always the caller
// @Tags Reviews
// @Accept json
// @Produce json
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews [post]
// @Router /tours/{id}/reviews [post]
func (rc *ReviewController) CreateReview() gin.HandlerFunc { return rc.crud.CreateOne() }

// UpdateReview godoc
// @Summary Update a review
// @Description Users may only change their own reviews
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Review id"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews/{id} [patch]
func (rc *ReviewController) UpdateReview() gin.HandlerFunc { return rc.crud.UpdateOne() }

// DeleteReview godoc
// @Summary Delete a review
// @Tags Reviews
// @Param id path string true "Review id"
// @Success 204
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (rc *ReviewController) DeleteReview() gin.HandlerFunc { return rc.crud.DeleteOne() }

// GetMyReviews godoc
// @Summary Reviews written by the caller
// @Tags Reviews
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews/my-reviews [get]
func (rc *ReviewController) GetMyReviews(c *gin.Context) {
	reviews, err := rc.reviewService.MyReviews(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(reviews), reviews)
}

// GetTourReviews godoc
// @Summary Reviews of one tour
// @Tags Reviews
// @Produce json
// @Param tourId path string true "Tour id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /reviews/tour/{tourId} [get]
func (rc *ReviewController) GetTourReviews(c *gin.Context) {
	tourID, err := handlerfactory.ParseID("tourId", c.Param("tourId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reviews, err := rc.reviewService.ByTour(c.Request.Context(), tourID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(reviews), reviews)
}
