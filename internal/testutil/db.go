// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trip/internal/infra"
	"trip/internal/models/db_models"
	"trip/pkg/utils"
)

// Password is the plain password of every fixture user.
const Password = "pass1234"

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.BcryptCost = 4

	db, err := gorm.Open(sqlite.Open(":memory:"), infra.GormConfig(infra.NewGormLogger(zap.NewNop(), logger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.Migrate(db))
	return db
}

// CreateUser inserts an active user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, email string, role db_models.Role) *db_models.User {
	t.Helper()
	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)

	u := &db_models.User{Name: "User " + email, Email: email, Role: role, Password: hash}
	u.ApplyDefaults()
	require.NoError(t, db.Create(u).Error)
	return u
}

// TourFixture returns a valid, unsaved tour.
func TourFixture(name string, price float64) *db_models.Tour {
	return &db_models.Tour{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   db_models.DifficultyEasy,
		Price:        price,
		Summary:      "A tour for testing",
		ImageCover:   "tour-cover.jpg",
		StartDates:   datatypes.JSONSlice[time.Time]{time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		StartLocation: datatypes.NewJSONType(db_models.Location{
			Type:        "Point",
			Coordinates: []float64{-118.113491, 34.111745},
			Address:     "Los Angeles",
		}),
		Guides: datatypes.JSONSlice[uuid.UUID]{},
	}
}

func CreateTour(t *testing.T, db *gorm.DB, name string, price float64) *db_models.Tour {
	t.Helper()
	tour := TourFixture(name, price)
	require.NoError(t, db.Create(tour).Error)
	return tour
}

func CreateReview(t *testing.T, db *gorm.DB, user *db_models.User, tour *db_models.Tour, rating float64) *db_models.Review {
	t.Helper()
	r := &db_models.Review{Review: "Great tour", Rating: rating, TourID: tour.ID, UserID: user.ID}
	require.NoError(t, db.Create(r).Error)
	return r
}
