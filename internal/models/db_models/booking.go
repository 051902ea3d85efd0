package db_models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/pkg/utils"
)

type Booking struct {
	BaseModel
	TourID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tour" validate:"required"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user" validate:"required"`
	Price     float64   `gorm:"not null" json:"price" validate:"required,gt=0"`
	Paid      bool      `json:"paid"`
	SessionID *string   `gorm:"uniqueIndex" json:"-"`

	Tour *Tour          `gorm:"foreignKey:TourID;-:migration" json:"-"`
	User *PublicProfile `gorm:"foreignKey:UserID;-:migration" json:"-"`
}

func (b *Booking) ApplyDefaults() {
	b.Paid = true
}

func (b *Booking) BeforeSave(tx *gorm.DB) error {
	return utils.ValidateStruct(b)
}

func (b Booking) MarshalJSON() ([]byte, error) {
	type booking Booking
	out := struct {
		booking
		Tour any `json:"tour"`
		User any `json:"user"`
	}{booking: booking(b), Tour: b.TourID, User: b.UserID}
	if b.Tour != nil {
		out.Tour = b.Tour
	}
	if b.User != nil {
		out.User = b.User
	}
	return json.Marshal(out)
}
