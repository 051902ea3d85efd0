package db_models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/pkg/utils"
)

// Ratings a tour falls back to once it has no reviews left.
const (
	EmptyRatingsAverage  = 4.0
	EmptyRatingsQuantity = 0
)

type Review struct {
	BaseModel
	Review string    `gorm:"not null" json:"review" validate:"required"`
	Rating float64   `gorm:"not null" json:"rating" validate:"required,gte=1,lte=5"`
	TourID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_tour,priority:2;index" json:"tour" validate:"required"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_tour,priority:1" json:"user" validate:"required"`

	Author *PublicProfile `gorm:"foreignKey:UserID;-:migration" json:"-"`
}

func (r *Review) BeforeSave(tx *gorm.DB) error {
	r.Review = strings.TrimSpace(r.Review)
	return utils.ValidateStruct(r)
}

func (r *Review) AfterSave(tx *gorm.DB) error {
	return CalcAverageRatings(tx, r.TourID)
}

func (r *Review) AfterDelete(tx *gorm.DB) error {
	return CalcAverageRatings(tx, r.TourID)
}

func (r Review) MarshalJSON() ([]byte, error) {
	type review Review
	out := struct {
		review
		User any `json:"user"`
	}{review: review(r), User: r.UserID}
	if r.Author != nil {
		out.User = r.Author
	}
	return json.Marshal(out)
}

// CalcAverageRatings recomputes the review count and mean rating stored on a tour.
// It runs on tx so the aggregate commits or rolls back with the review write.
func CalcAverageRatings(tx *gorm.DB, tourID uuid.UUID) error {
	db := tx.Session(&gorm.Session{NewDB: true})

	var stats struct {
		N   int64
		Avg *float64
	}
	if err := db.Model(&Review{}).
		Select("COUNT(*) AS n, AVG(rating) AS avg").
		Where("tour_id = ?", tourID).
		Scan(&stats).Error; err != nil {
		return err
	}

	quantity, average := int64(EmptyRatingsQuantity), EmptyRatingsAverage
	if stats.N > 0 && stats.Avg != nil {
		quantity = stats.N
		average = math.Round(*stats.Avg*10) / 10
	}

	return db.Model(&Tour{}).
		Where("id = ?", tourID).
		UpdateColumns(map[string]any{
			"ratings_quantity": quantity,
			"ratings_average":  average,
		}).Error
}
