package db_models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"trip/internal/models/db_models"
	"trip/internal/testutil"
	"trip/pkg/utils"
)

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	u := &db_models.User{}

	assert.False(t, u.ChangedPasswordAfter(issued), "never changed")

	u.SetPassword("hash", issued.Add(time.Second))
	assert.False(t, u.ChangedPasswordAfter(issued), "changed in the same second as issue")

	u.SetPassword("hash", issued.Add(5*time.Second))
	assert.True(t, u.ChangedPasswordAfter(issued))
}

func TestPasswordResetToken(t *testing.T) {
	now := time.Now()
	u := &db_models.User{}

	raw, err := u.CreatePasswordResetToken(now)
	require.NoError(t, err)
	require.NotNil(t, u.PasswordResetToken)
	assert.Equal(t, utils.HashToken(raw), *u.PasswordResetToken)
	assert.NotEqual(t, raw, *u.PasswordResetToken)

	assert.True(t, u.ResetTokenValid(now.Add(9*time.Minute)))
	assert.False(t, u.ResetTokenValid(now.Add(10*time.Minute)))

	u.SetPassword("hash", now)
	assert.Nil(t, u.PasswordResetToken)
	assert.False(t, u.ResetTokenValid(now))
}

func TestUserValidationAndNormalisation(t *testing.T) {
	db := testutil.NewDB(t)

	u := &db_models.User{Name: " Jonas ", Email: " Jonas@Example.COM ", Password: "x"}
	u.ApplyDefaults()
	require.NoError(t, db.Create(u).Error)
	assert.Equal(t, "jonas@example.com", u.Email)
	assert.Equal(t, "Jonas", u.Name)
	assert.Equal(t, db_models.DefaultPhoto, u.Photo)
	assert.Equal(t, db_models.RoleUser, u.Role)

	bad := &db_models.User{Name: "x", Email: "not-an-email", Role: "wizard", Password: "x"}
	err := db.Create(bad).Error
	var valErr *utils.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Messages, 2)

	dup := &db_models.User{Name: "Other", Email: "jonas@example.com", Password: "x"}
	dup.ApplyDefaults()
	assert.True(t, utils.IsDuplicateKey(db.Create(dup).Error))
}

func TestTourValidation(t *testing.T) {
	db := testutil.NewDB(t)

	tour := testutil.TourFixture("  The Forest Hiker  ", 397)
	require.NoError(t, db.Create(tour).Error)
	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, db_models.DefaultRatingsAverage, tour.RatingsAverage)

	short := testutil.TourFixture("Short", 100)
	assert.ErrorAs(t, db.Create(short).Error, new(*utils.ValidationError))

	discount := 500.0
	pricey := testutil.TourFixture("The Discount Explorer", 400)
	pricey.PriceDiscount = &discount
	err := db.Create(pricey).Error
	var valErr *utils.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Messages[0], "should be below regular price")

	badDifficulty := testutil.TourFixture("The Impossible Climb", 100)
	badDifficulty.Difficulty = "extreme"
	assert.ErrorAs(t, db.Create(badDifficulty).Error, new(*utils.ValidationError))
}

func TestTourJSON(t *testing.T) {
	db := testutil.NewDB(t)
	guide := testutil.CreateUser(t, db, "guide@example.com", db_models.RoleGuide)

	tour := testutil.TourFixture("The Sea Explorer", 497)
	tour.Duration = 14
	tour.Guides = datatypes.JSONSlice[uuid.UUID]{guide.ID}
	require.NoError(t, db.Create(tour).Error)

	var loaded db_models.Tour
	require.NoError(t, db.First(&loaded, "id = ?", tour.ID).Error)
	require.Len(t, loaded.GuideProfiles, 1)

	raw, err := json.Marshal(loaded)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2.0, out["durationWeeks"])
	guides := out["guides"].([]any)
	require.Len(t, guides, 1)
	assert.Equal(t, guide.Name, guides[0].(map[string]any)["name"])
	assert.NotContains(t, out, "GuideProfiles")
	assert.Equal(t, "Point", out["startLocation"].(map[string]any)["type"])
}

func TestCalcAverageRatings(t *testing.T) {
	db := testutil.NewDB(t)
	tour := testutil.CreateTour(t, db, "The Snow Adventurer", 997)
	alice := testutil.CreateUser(t, db, "alice@example.com", db_models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@example.com", db_models.RoleUser)

	reload := func() db_models.Tour {
		var got db_models.Tour
		require.NoError(t, db.First(&got, "id = ?", tour.ID).Error)
		return got
	}

	r1 := testutil.CreateReview(t, db, alice, tour, 5)
	got := reload()
	assert.Equal(t, 1, got.RatingsQuantity)
	assert.Equal(t, 5.0, got.RatingsAverage)

	r2 := testutil.CreateReview(t, db, bob, tour, 4)
	got = reload()
	assert.Equal(t, 2, got.RatingsQuantity)
	assert.InDelta(t, 4.5, got.RatingsAverage, 0.001)

	r2.Rating = 2
	require.NoError(t, db.Model(r2).Select("*").Updates(r2).Error)
	got = reload()
	assert.InDelta(t, 3.5, got.RatingsAverage, 0.001)

	dup := &db_models.Review{Review: "Again", Rating: 3, TourID: tour.ID, UserID: alice.ID}
	assert.True(t, utils.IsDuplicateKey(db.Create(dup).Error))

	require.NoError(t, db.Delete(r1).Error)
	require.NoError(t, db.Delete(r2).Error)
	got = reload()
	assert.Equal(t, db_models.EmptyRatingsQuantity, got.RatingsQuantity)
	assert.Equal(t, db_models.EmptyRatingsAverage, got.RatingsAverage)
}

func TestReviewJSONExpandsAuthor(t *testing.T) {
	userID := uuid.New()
	r := db_models.Review{Review: "Nice", Rating: 4, UserID: userID}

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user":"`+userID.String()+`"`)

	r.Author = &db_models.PublicProfile{ID: userID, Name: "Lisa", Photo: "user-1.jpg"}
	raw, err = json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"Lisa"`)
}
