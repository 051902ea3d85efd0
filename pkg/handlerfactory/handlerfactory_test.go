package handlerfactory_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/internal/testutil"
	"trip/pkg/handlerfactory"
	"trip/pkg/middleware"
	"trip/pkg/utils"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Results *int            `json:"results"`
	Data    json.RawMessage `json:"data"`
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop(), false))
	return r
}

func call(t *testing.T, r *gin.Engine, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestTourCrud(t *testing.T) {
	db := testutil.NewDB(t)
	f := handlerfactory.New[db_models.Tour](repositories.NewTourRepository(db), handlerfactory.Options[db_models.Tour]{
		Protect: func(stored, patched *db_models.Tour) {
			patched.RatingsQuantity = stored.RatingsQuantity
		},
	})
	r := newEngine()
	r.POST("/tours", f.CreateOne())
	r.GET("/tours", f.GetAll())
	r.GET("/tours/:id", f.GetOne())
	r.PATCH("/tours/:id", f.UpdateOne())
	r.DELETE("/tours/:id", f.DeleteOne())

	forcedID := uuid.New()
	code, env := call(t, r, http.MethodPost, "/tours", gin.H{
		"id": forcedID, "name": "The City Wanderer", "duration": 9, "maxGroupSize": 20,
		"difficulty": "easy", "price": 1197, "summary": "Living the life of Wanderlust", "imageCover": "tour-4-cover.jpg",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created db_models.Tour
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEqual(t, forcedID, created.ID)
	assert.Equal(t, "the-city-wanderer", created.Slug)

	path := "/tours/" + created.ID.String()
	code, env = call(t, r, http.MethodPatch, path, gin.H{"price": 997, "ratingsQuantity": 50, "id": forcedID})
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated db_models.Tour
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.InDelta(t, 997.0, updated.Price, 0.001)
	assert.Equal(t, 0, updated.RatingsQuantity)
	assert.Equal(t, "The City Wanderer", updated.Name)

	code, env = call(t, r, http.MethodGet, "/tours?fields=name", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Results)
	assert.Equal(t, 1, *env.Results)
	var projected []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &projected))
	assert.Equal(t, []map[string]any{{"id": created.ID.String(), "name": "The City Wanderer"}}, projected)

	code, _ = call(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, env = call(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, utils.ErrNoDocument.Message, env.Message)

	code, env = call(t, r, http.MethodGet, "/tours/123", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid id: 123.", env.Message)
}

func TestCreateRunsModelValidation(t *testing.T) {
	db := testutil.NewDB(t)
	f := handlerfactory.New[db_models.Tour](repositories.NewTourRepository(db), handlerfactory.Options[db_models.Tour]{})
	r := newEngine()
	r.POST("/tours", f.CreateOne())

	code, env := call(t, r, http.MethodPost, "/tours", gin.H{"name": "Short", "price": 10})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", env.Status)
	assert.Contains(t, env.Message, "Invalid input data.")
}

func TestParentScopeAndAuthorize(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "author@example.com", db_models.RoleUser)
	other := testutil.CreateUser(t, db, "other@example.com", db_models.RoleUser)
	hiker := testutil.CreateTour(t, db, "The Forest Hiker", 397)
	explorer := testutil.CreateTour(t, db, "The Sea Explorer", 497)
	mine := testutil.CreateReview(t, db, author, hiker, 5)
	testutil.CreateReview(t, db, other, hiker, 3)
	testutil.CreateReview(t, db, other, explorer, 4)

	f := handlerfactory.New[db_models.Review](repositories.NewReviewRepository(db), handlerfactory.Options[db_models.Review]{
		ParentParam:  "tourId",
		ParentColumn: "tour_id",
		Authorize: func(c *gin.Context, review *db_models.Review) error {
			if review.UserID != author.ID {
				return utils.ErrReviewNotOwned
			}
			return nil
		},
	})
	r := newEngine()
	r.GET("/reviews", f.GetAll())
	r.GET("/tours/:tourId/reviews", f.GetAll())
	r.DELETE("/reviews/:id", f.DeleteOne())

	tests := []struct {
		name string
		path string
		want int
	}{
		{"all", "/reviews", 3},
		{"one tour", "/tours/" + hiker.ID.String() + "/reviews", 2},
		{"other tour", "/tours/" + explorer.ID.String() + "/reviews", 1},
		{"paginated", "/reviews?limit=2&page=2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, r, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, code, env.Message)
			require.NotNil(t, env.Results)
			assert.Equal(t, tt.want, *env.Results)
		})
	}

	code, _ := call(t, r, http.MethodGet, "/tours/nope/reviews", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var theirs db_models.Review
	require.NoError(t, db.Where("user_id = ? AND tour_id = ?", other.ID, explorer.ID).First(&theirs).Error)
	code, env := call(t, r, http.MethodDelete, "/reviews/"+theirs.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, utils.ErrReviewNotOwned.Message, env.Message)

	code, _ = call(t, r, http.MethodDelete, "/reviews/"+mine.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestCustomPatchReader(t *testing.T) {
	db := testutil.NewDB(t)
	tour := testutil.CreateTour(t, db, "The Wine Taster Tour", 1997)
	f := handlerfactory.New[db_models.Tour](repositories.NewTourRepository(db), handlerfactory.Options[db_models.Tour]{
		Patch: func(c *gin.Context) ([]byte, error) {
			return []byte(`{"imageCover":"tour-` + c.Param("id") + `-cover.jpeg"}`), nil
		},
	})
	r := newEngine()
	r.PATCH("/tours/:id", f.UpdateOne())

	code, env := call(t, r, http.MethodPatch, "/tours/"+tour.ID.String(), nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated db_models.Tour
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "tour-"+tour.ID.String()+"-cover.jpeg", updated.ImageCover)
}
