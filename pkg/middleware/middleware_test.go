package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trip/pkg/middleware"
	"trip/pkg/utils"
)

type fakeUser struct {
	id   uuid.UUID
	role string
}

func (u *fakeUser) PrincipalID() uuid.UUID { return u.id }
func (u *fakeUser) PrincipalRole() string  { return u.role }

func newEngine(verbose bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TraceIDMiddleware(), middleware.ErrorHandler(zap.NewNop(), verbose), middleware.Recovery())
	r.NoRoute(middleware.NotFound())
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtectAndRestrictTo(t *testing.T) {
	admin := &fakeUser{id: uuid.New(), role: "admin"}
	authenticate := func(_ context.Context, token string) (middleware.Principal, error) {
		switch token {
		case "admin-token":
			return admin, nil
		case "user-token":
			return &fakeUser{id: uuid.New(), role: "user"}, nil
		}
		return nil, utils.ErrUserGone
	}

	r := newEngine(false)
	r.GET("/secret", middleware.Protect(authenticate), middleware.RestrictTo("admin"), func(c *gin.Context) {
		u, ok := middleware.Current[*fakeUser](c)
		require.True(t, ok)
		utils.RespondSuccess(c, u.id, "")
	})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"logged out cookie", "", middleware.LoggedOutCookie, http.StatusUnauthorized},
		{"unknown user", "Bearer nobody", "", http.StatusUnauthorized},
		{"wrong role", "Bearer user-token", "", http.StatusForbidden},
		{"bearer header", "Bearer admin-token", "", http.StatusOK},
		{"cookie fallback", "", "admin-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: tt.cookie})
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status >= 400 {
				assert.Equal(t, "fail", decode(t, w).Status)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	boom := errors.New("connection reset by peer")

	t.Run("production hides unknown errors", func(t *testing.T) {
		r := newEngine(false)
		r.GET("/x", utils.Wrap(func(c *gin.Context) error { return boom }))

		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		body := decode(t, w)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, "Something went very wrong!", body.Message)
		assert.Empty(t, body.Error)
		assert.NotEmpty(t, body.TraceID)
		assert.Equal(t, body.TraceID, w.Header().Get(middleware.TraceHeader))
	})

	t.Run("development shows the raw error", func(t *testing.T) {
		r := newEngine(true)
		r.GET("/x", utils.Wrap(func(c *gin.Context) error { return boom }))

		body := decode(t, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)))
		assert.Equal(t, boom.Error(), body.Error)
	})

	t.Run("operational errors keep their message", func(t *testing.T) {
		r := newEngine(false)
		r.GET("/x", utils.Wrap(func(c *gin.Context) error {
			return &utils.CastError{Field: "id", Value: "abc"}
		}))

		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id: abc.", decode(t, w).Message)
	})

	t.Run("panics become 500 with a stack in development", func(t *testing.T) {
		r := newEngine(true)
		r.GET("/x", func(c *gin.Context) { panic("kaboom") })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		body := decode(t, w)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, body.Stack, "goroutine")
	})

	t.Run("unmatched route", func(t *testing.T) {
		r := newEngine(false)
		w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Can't find /api/v1/nowhere on this server!", decode(t, w).Message)
	})
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(false)
	r.POST("/x", middleware.BodyLimit(16, 1024), utils.Wrap(func(c *gin.Context) error {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			return err
		}
		utils.RespondSuccess(c, v, "")
		return nil
	}))

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"a very long value"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestTraceIDReusesCallerID(t *testing.T) {
	r := newEngine(false)
	r.GET("/x", func(c *gin.Context) { utils.RespondSuccess(c, nil, "ok") })

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.TraceHeader, id)
	w := serve(r, req)
	assert.Equal(t, id, w.Header().Get(middleware.TraceHeader))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.TraceHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Header().Get(middleware.TraceHeader))
}
