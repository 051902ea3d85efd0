package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Identity and SetIdentity let generic handlers keep id and createdAt out of client control.
func (b *BaseModel) Identity() (uuid.UUID, time.Time) {
	return b.ID, b.CreatedAt
}

func (b *BaseModel) SetIdentity(id uuid.UUID, createdAt time.Time) {
	b.ID = id
	b.CreatedAt = createdAt
}
