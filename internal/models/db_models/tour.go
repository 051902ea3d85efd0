package db_models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trip/pkg/utils"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"

	DefaultRatingsAverage = 4.5
)

// Location is a GeoJSON point with optional address details. Coordinates are [lng, lat].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

func (l Location) Valid() bool {
	return len(l.Coordinates) == 2 &&
		l.Coordinates[0] >= -180 && l.Coordinates[0] <= 180 &&
		l.Coordinates[1] >= -90 && l.Coordinates[1] <= 90
}

func (l Location) Lng() float64 { return l.Coordinates[0] }
func (l Location) Lat() float64 { return l.Coordinates[1] }

type Tour struct {
	BaseModel
	Name            string                         `gorm:"uniqueIndex;not null" json:"name" validate:"required,min=10,max=40"`
	Slug            string                         `gorm:"index" json:"slug"`
	Duration        int                            `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                            `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty                     `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64                        `json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int                            `json:"ratingsQuantity" validate:"gte=0"`
	Price           float64                        `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64                       `json:"priceDiscount,omitempty"`
	Summary         string                         `json:"summary" validate:"required"`
	Description     string                         `json:"description"`
	ImageCover      string                         `json:"imageCover" validate:"required"`
	Images          datatypes.JSONSlice[string]    `json:"images"`
	StartDates      datatypes.JSONSlice[time.Time] `json:"startDates"`
	SecretTour      bool                           `gorm:"index" json:"secretTour"`
	StartLocation   datatypes.JSONType[Location]   `json:"startLocation"`
	Locations       datatypes.JSONSlice[Location]  `json:"locations"`
	Guides          datatypes.JSONSlice[uuid.UUID] `json:"guides"`

	GuideProfiles []PublicProfile `gorm:"-" json:"-"`
	Reviews       []Review        `gorm:"foreignKey:TourID;-:migration" json:"reviews,omitempty"`
}

func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if err := t.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	return nil
}

func (t *Tour) BeforeSave(tx *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Make(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}

	if err := utils.ValidateStruct(t); err != nil {
		return err
	}

	var msgs []string
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		msgs = append(msgs, fmt.Sprintf("Discount price (%g) should be below regular price", *t.PriceDiscount))
	}
	if loc := t.StartLocation.Data(); len(loc.Coordinates) > 0 && !loc.Valid() {
		msgs = append(msgs, "startLocation must have coordinates [lng, lat]")
	}
	for _, loc := range t.Locations {
		if !loc.Valid() {
			msgs = append(msgs, "locations must have coordinates [lng, lat]")
			break
		}
	}
	if len(msgs) > 0 {
		return utils.NewValidationError(msgs...)
	}
	return nil
}

// AfterFind expands the guide references into public profiles.
func (t *Tour) AfterFind(tx *gorm.DB) error {
	if len(t.Guides) == 0 {
		return nil
	}
	return tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "name", "email", "photo", "role").
		Where("id IN ? AND active = ?", []uuid.UUID(t.Guides), true).
		Find(&t.GuideProfiles).Error
}

func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

func (t Tour) MarshalJSON() ([]byte, error) {
	type tour Tour
	out := struct {
		tour
		DurationWeeks float64 `json:"durationWeeks"`
		Guides        any     `json:"guides"`
	}{tour: tour(t), DurationWeeks: t.DurationWeeks()}

	switch {
	case len(t.GuideProfiles) > 0:
		out.Guides = t.GuideProfiles
	case t.Guides != nil:
		out.Guides = t.Guides
	default:
		out.Guides = []uuid.UUID{}
	}
	return json.Marshal(out)
}
