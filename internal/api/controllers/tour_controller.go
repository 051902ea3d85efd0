package controllers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/pkg/handlerfactory"
	"trip/pkg/utils"
)

const maxTourImages = 3

type TourController struct {
	tourService services.TourServiceInterface
	crud        *handlerfactory.Factory[db_models.Tour]
}

func NewTourController(tourService services.TourServiceInterface, tourRepo repositories.TourRepository, cfg *config.Config) *TourController {
	tc := &TourController{tourService: tourService}
	tc.crud = handlerfactory.New[db_models.Tour](tourRepo, handlerfactory.Options[db_models.Tour]{
		Preload:  []string{"Reviews.Author"},
		MaxLimit: cfg.QueryMaxLimit,
		BeforeCreate: func(c *gin.Context, tour *db_models.Tour) error {
			tour.RatingsAverage = 0
			tour.RatingsQuantity = 0
			return nil
		},
		Protect: func(stored, patched *db_models.Tour) {
			patched.RatingsAverage = stored.RatingsAverage
			patched.RatingsQuantity = stored.RatingsQuantity
		},
		Patch: tc.readPatch,
	})
	return tc
}

// AliasTopTours rewrites the query to the five best rated, cheapest tours.
func (tc *TourController) AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// GetAllTours godoc
// @Summary List tours
// @Description Filtering (price[gte]=500, difficulty=easy), sorting, projection and pagination
// @Tags Tours
// @Produce json
// @Param sort query string false "Sort fields, e.g. -ratingsAverage,price"
// @Param fields query string false "Projection, e.g. name,price"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /tours [get]
func (tc *TourController) GetAllTours() gin.HandlerFunc { return tc.crud.GetAll() }

// GetTour godoc
// @Summary Get a tour with its reviews
// @Tags Tours
// @Produce json
// @Param id path string true "Tour id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /tours/{id} [get]
func (tc *TourController) GetTour() gin.HandlerFunc { return tc.crud.GetOne() }

// CreateTour godoc
// @Summary Create a tour
// @Tags Tours
// @Accept json
// @Produce json
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tours [post]
func (tc *TourController) CreateTour() gin.HandlerFunc { return tc.crud.CreateOne() }

// UpdateTour godoc
// @Summary Update a tour
// @Description JSON body, or multipart with imageCover (1), images (up to 3) and the other fields as JSON in "data"
// @Tags Tours
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Tour id"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tours/{id} [patch]
func (tc *TourController) UpdateTour() gin.HandlerFunc { return tc.crud.UpdateOne() }

// DeleteTour godoc
// @Summary Delete a tour
// @Description Also removes its reviews and bookings
// @Tags Tours
// @Param id path string true "Tour id"
// @Success 204
// @Security BearerAuth
// @Router /tours/{id} [delete]
func (tc *TourController) DeleteTour() gin.HandlerFunc { return tc.crud.DeleteOne() }

// InvalidateStats runs after a successful tour or review mutation.
func (tc *TourController) InvalidateStats(c *gin.Context) {
	tc.tourService.InvalidateStats(c.Request.Context())
}

// GetTourStats godoc
// @Summary Statistics per difficulty
// @Description Tours rated 4.5 or better grouped by difficulty, sorted by average price
// @Tags Tours
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /tours/stats [get]
func (tc *TourController) GetTourStats(c *gin.Context) {
	stats, err := tc.tourService.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, gin.H{"stats": stats}, "")
}

// GetMonthlyPlan godoc
// @Summary Tour starts per month
// @Tags Tours
// @Produce json
// @Param year path int true "Year"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tours/monthly-plan/{year} [get]
func (tc *TourController) GetMonthlyPlan(c *gin.Context) {
	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		_ = c.Error(&utils.CastError{Field: "year", Value: raw, Err: err})
		return
	}

	plan, err := tc.tourService.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, gin.H{"plan": plan}, "")
}

// GetToursWithin godoc
// @Summary Tours starting within a radius
// @Tags Tours
// @Produce json
// @Param distance path number true "Radius"
// @Param latlng path string true "Center as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /tours/tours-within/{distance}/center/{latlng}/unit/{unit} [get]
func (tc *TourController) GetToursWithin(c *gin.Context) {
	raw := c.Param("distance")
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil || distance < 0 {
		_ = c.Error(&utils.CastError{Field: "distance", Value: raw, Err: err})
		return
	}

	tours, err := tc.tourService.ToursWithin(c.Request.Context(), distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(tours), tours)
}

// GetDistances godoc
// @Summary Distance from a point to every tour
// @Tags Tours
// @Produce json
// @Param latlng path string true "Point as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /tours/distances/{latlng}/unit/{unit} [get]
func (tc *TourController) GetDistances(c *gin.Context) {
	distances, err := tc.tourService.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, distances, "")
}

// GetTourBySlug godoc
// @Summary Get a tour by its slug
// @Tags Tours
// @Produce json
// @Param name path string true "Tour slug"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /tours/name/{name} [get]
func (tc *TourController) GetTourBySlug(c *gin.Context) {
	tour, err := tc.tourService.GetBySlug(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, tour, "")
}

// GetMyTours godoc
// @Summary Tours the caller booked
// @Tags Tours
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tours/bookings [get]
func (tc *TourController) GetMyTours(c *gin.Context) {
	tours, err := tc.tourService.BookedBy(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(tours), tours)
}

// readPatch accepts a plain JSON body, or a multipart form whose images are
// resized and merged into the JSON "data" part.
func (tc *TourController) readPatch(c *gin.Context) ([]byte, error) {
	if !isMultipart(c) {
		return c.GetRawData()
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if data := form.Value["data"]; len(data) > 0 && data[0] != "" {
		if err := json.Unmarshal([]byte(data[0]), &patch); err != nil {
			return nil, err
		}
	}

	var cover *multipart.FileHeader
	if files := form.File["imageCover"]; len(files) > 0 {
		if len(files) > 1 {
			return nil, utils.NewValidationError("Only one imageCover may be uploaded")
		}
		cover = files[0]
	}
	images := form.File["images"]
	if len(images) > maxTourImages {
		return nil, utils.NewValidationError("No more than 3 images may be uploaded")
	}

	id, err := handlerfactory.ParseID("id", c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := tc.tourService.UploadImages(id, patch, cover, images); err != nil {
		return nil, err
	}
	return json.Marshal(patch)
}
