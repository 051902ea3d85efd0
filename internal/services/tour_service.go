package services

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trip/internal/infra"
	"trip/internal/models/db_models"
	"trip/internal/models/response_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

const (
	statsCacheKey   = "tours:stats"
	statsMinRating  = 4.5
	monthlyPlanSize = 12
)

type TourServiceInterface interface {
	Stats(ctx context.Context) ([]response_models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]response_models.MonthlyPlan, error)
	ToursWithin(ctx context.Context, distance float64, latlng, unit string) ([]db_models.Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]response_models.TourDistance, error)
	GetBySlug(ctx context.Context, slug string) (*db_models.Tour, error)
	BookedBy(ctx context.Context, userID uuid.UUID) ([]db_models.Tour, error)
	// UploadImages resizes the uploaded files and sets them on the patch document.
	UploadImages(tourID uuid.UUID, patch map[string]any, cover *multipart.FileHeader, images []*multipart.FileHeader) error
	InvalidateStats(ctx context.Context)
}

type TourService struct {
	tourRepo repositories.TourRepository
	images   ImageService
	cache    infra.Cache
	statsTTL time.Duration
	logger   *zap.Logger
}

func NewTourService(
	tourRepo repositories.TourRepository,
	images ImageService,
	cache infra.Cache,
	statsTTL time.Duration,
	logger *zap.Logger,
) TourServiceInterface {
	return &TourService{
		tourRepo: tourRepo,
		images:   images,
		cache:    cache,
		statsTTL: statsTTL,
		logger:   logger,
	}
}

func (s *TourService) Stats(ctx context.Context) ([]response_models.TourStats, error) {
	if cached, _ := s.cache.Get(ctx, statsCacheKey); cached != nil {
		var stats []response_models.TourStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return stats, nil
		}
	}

	stats, err := s.tourRepo.Stats(ctx, statsMinRating)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, statsCacheKey, raw, s.statsTTL); err != nil {
			s.logger.Warn("cache tour stats", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *TourService) InvalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("invalidate tour stats", zap.Error(err))
	}
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]response_models.MonthlyPlan, error) {
	tours, err := s.tourRepo.List(ctx, "id", "name", "start_dates")
	if err != nil {
		return nil, err
	}

	byMonth := map[int]*response_models.MonthlyPlan{}
	for _, tour := range tours {
		for _, start := range tour.StartDates {
			if start.UTC().Year() != year {
				continue
			}
			month := int(start.UTC().Month())
			plan, ok := byMonth[month]
			if !ok {
				plan = &response_models.MonthlyPlan{Month: month, Tours: []string{}}
				byMonth[month] = plan
			}
			plan.NumTourStarts++
			plan.Tours = append(plan.Tours, tour.Name)
		}
	}

	plans := make([]response_models.MonthlyPlan, 0, len(byMonth))
	for _, plan := range byMonth {
		plans = append(plans, *plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].NumTourStarts != plans[j].NumTourStarts {
			return plans[i].NumTourStarts > plans[j].NumTourStarts
		}
		return plans[i].Month < plans[j].Month
	})
	if len(plans) > monthlyPlanSize {
		plans = plans[:monthlyPlanSize]
	}
	return plans, nil
}

// ToursWithin returns tours whose start location lies within distance (in unit) of latlng.
func (s *TourService) ToursWithin(ctx context.Context, distance float64, latlng, unit string) ([]db_models.Tour, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	radius, _, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}
	maxAngle := distance / radius

	tours, err := s.tourRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	within := []db_models.Tour{}
	for _, tour := range tours {
		start := tour.StartLocation.Data()
		if !start.Valid() {
			continue
		}
		if centralAngle(lat, lng, start.Lat(), start.Lng()) <= maxAngle {
			within = append(within, tour)
		}
	}
	return within, nil
}

// Distances lists every tour with its distance from latlng, nearest first.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]response_models.TourDistance, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	_, multiplier, err := earthRadius(unit)
	if err != nil {
		return nil, err
	}

	tours, err := s.tourRepo.List(ctx, "id", "name", "start_location")
	if err != nil {
		return nil, err
	}

	distances := make([]response_models.TourDistance, 0, len(tours))
	for _, tour := range tours {
		start := tour.StartLocation.Data()
		if !start.Valid() {
			continue
		}
		meters := centralAngle(lat, lng, start.Lat(), start.Lng()) * earthRadiusKm * 1000
		distances = append(distances, response_models.TourDistance{
			ID:       tour.ID,
			Name:     tour.Name,
			Distance: meters * multiplier,
		})
	}
	sort.SliceStable(distances, func(i, j int) bool { return distances[i].Distance < distances[j].Distance })
	return distances, nil
}

func (s *TourService) GetBySlug(ctx context.Context, slug string) (*db_models.Tour, error) {
	tour, err := s.tourRepo.FindBySlug(ctx, slug, "Reviews.Author")
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, utils.ErrTourNameNotFound
	}
	return tour, nil
}

func (s *TourService) BookedBy(ctx context.Context, userID uuid.UUID) ([]db_models.Tour, error) {
	return s.tourRepo.FindBookedBy(ctx, userID)
}

func (s *TourService) UploadImages(tourID uuid.UUID, patch map[string]any, cover *multipart.FileHeader, images []*multipart.FileHeader) error {
	if cover == nil && len(images) == 0 {
		return nil
	}
	coverName, imageNames, err := s.images.SaveTourImages(tourID, cover, images)
	if err != nil {
		return err
	}
	if coverName != "" {
		patch["imageCover"] = coverName
	}
	if len(imageNames) > 0 {
		patch["images"] = imageNames
	}
	return nil
}
