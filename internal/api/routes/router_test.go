package routes_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trip/internal/api/controllers"
	"trip/internal/api/routes"
	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/models/response_models"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/internal/testutil"
	"trip/internal/websocket"
	mem "trip/pkg/memcache"
	"trip/pkg/utils"
)

const webhookSecret = "whsec_test"

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type outbox struct {
	sent []services.Message
}

func (o *outbox) Send(_ context.Context, msg services.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	clock  *testClock
	mail   *outbox
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	clock := &testClock{t: time.Now()}
	mail := &outbox{}
	logger := zap.NewNop()
	cfg := &config.Config{
		Env:                 config.EnvDevelopment,
		JWTSecret:           "test-secret",
		JWTExpiresIn:        90 * 24 * time.Hour,
		JWTCookieExpiresIn:  90,
		StripeWebhookSecret: webhookSecret,
		ClientBaseURL:       "http://client",
		PublicDir:           t.TempDir(),
		StatsCacheTTL:       time.Minute,
	}

	userRepo := repositories.NewUserRepository(db)
	tourRepo := repositories.NewTourRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, clock.Now)
	images := services.NewImageService(cfg.PublicDir, clock.Now)
	feed := websocket.NewHub(logger)

	accountSvc := services.NewAccountService(userRepo, services.NewMailServiceWithTransport(mail, "Trip"), tokens, logger, clock.Now)
	tourSvc := services.NewTourService(tourRepo, images, mem.NewStore(), cfg.StatsCacheTTL, logger)
	bookingSvc := services.NewBookingService(bookingRepo, userRepo, tourRepo, repositories.NewTransactionManager(db), feed, logger)
	paymentSvc := services.NewPaymentService(services.PaymentConfig{WebhookSecret: webhookSecret, ClientBaseURL: cfg.ClientBaseURL}, nil, tourRepo, bookingSvc, logger)

	router := routes.NewRouter(cfg, logger, routes.Handlers{
		Account: controllers.NewAccountController(accountSvc, cfg),
		User:    controllers.NewUserController(services.NewUserService(userRepo, images), userRepo, cfg),
		Tour:    controllers.NewTourController(tourSvc, tourRepo, cfg),
		Review:  controllers.NewReviewController(services.NewReviewService(reviewRepo, tourRepo), reviewRepo, cfg),
		Booking: controllers.NewBookingController(bookingSvc, paymentSvc, bookingRepo, cfg),
		Payment: controllers.NewPaymentController(paymentSvc),
		Feed:    feed,
	})
	return &testApp{router: router, db: db, clock: clock, mail: mail}
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Results *int            `json:"results"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	w, body := a.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (a *testApp) userWithToken(t *testing.T, email string, role db_models.Role) (*db_models.User, string) {
	t.Helper()
	u := testutil.CreateUser(t, a.db, email, role)
	return u, a.login(t, email, testutil.Password)
}

func TestSignupLoginAndProtect(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"name": "Jonas Doe", "email": "jonas@example.com", "password": "secret123", "passwordConfirm": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "success", body.Status)
	assert.NotEmpty(t, body.Token)
	assert.NotContains(t, string(body.Data), "secret123")
	assert.NotContains(t, string(body.Data), `"password"`)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "jwt=")

	w, _ = app.do(t, http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"name": "Jonas Doe", "email": "other@example.com", "password": "secret123", "passwordConfirm": "different1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := app.login(t, "jonas@example.com", "secret123")
	w, body = app.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"email":"jonas@example.com"`)

	w, _ = app.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "jonas@example.com", "password": "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the admin user list is off limits to plain users
	w, _ = app.do(t, http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPasswordChangeInvalidatesOldToken(t *testing.T) {
	app := newTestApp(t)
	_, oldToken := app.userWithToken(t, "changer@example.com", db_models.RoleUser)

	app.clock.Advance(time.Hour)
	w, body := app.do(t, http.MethodPatch, "/api/v1/users/update-password", oldToken, gin.H{
		"passwordCurrent": testutil.Password, "newPassword": "brandnew123", "newPasswordConfirm": "brandnew123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	newToken := body.Token

	w, body = app.do(t, http.MethodGet, "/api/v1/users/me", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, utils.ErrPasswordChanged.Message, body.Message)

	w, _ = app.do(t, http.MethodGet, "/api/v1/users/me", newToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForgotAndResetPasswordFlow(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.db, "forgot@example.com", db_models.RoleUser)

	w, _ := app.do(t, http.MethodPost, "/api/v1/users/forgotPassword", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := app.do(t, http.MethodPost, "/api/v1/users/forgotPassword", "", gin.H{"email": "forgot@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Token sent to email!", body.Message)
	require.Len(t, app.mail.sent, 1)

	match := regexp.MustCompile(`/api/v1/users/resetPassword/(\w+)`).FindStringSubmatch(app.mail.sent[0].Text)
	require.Len(t, match, 2)
	resetPath := "/api/v1/users/resetPassword/" + match[1]
	payload := gin.H{"password": "resetpass1", "passwordConfirm": "resetpass1"}

	w, body = app.do(t, http.MethodPatch, resetPath, "", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body.Token)

	w, _ = app.do(t, http.MethodPatch, resetPath, "", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.login(t, "forgot@example.com", "resetpass1")
}

func TestNestedReviewsAndOwnership(t *testing.T) {
	app := newTestApp(t)
	_, authorToken := app.userWithToken(t, "author@example.com", db_models.RoleUser)
	_, otherToken := app.userWithToken(t, "other@example.com", db_models.RoleUser)
	_, guideToken := app.userWithToken(t, "guide@example.com", db_models.RoleGuide)
	tour := testutil.CreateTour(t, app.db, "The Forest Hiker", 397)
	nested := fmt.Sprintf("/api/v1/tours/%s/reviews", tour.ID)

	w, _ := app.do(t, http.MethodPost, nested, guideToken, gin.H{"review": "Nice", "rating": 4})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.do(t, http.MethodPost, nested, authorToken, gin.H{"review": "Loved it", "rating": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	w, body = app.do(t, http.MethodPost, nested, authorToken, gin.H{"review": "Again", "rating": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Duplicate field value. Please use another value!", body.Message)

	w, body = app.do(t, http.MethodGet, nested, otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Results)
	assert.Equal(t, 1, *body.Results)

	var stored db_models.Tour
	require.NoError(t, app.db.First(&stored, "id = ?", tour.ID).Error)
	assert.Equal(t, 1, stored.RatingsQuantity)
	assert.InDelta(t, 4.0, stored.RatingsAverage, 0.001)

	reviewPath := "/api/v1/reviews/" + created.ID
	w, _ = app.do(t, http.MethodPatch, reviewPath, otherToken, gin.H{"rating": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPatch, reviewPath, authorToken, gin.H{"rating": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, app.db.First(&stored, "id = ?", tour.ID).Error)
	assert.InDelta(t, 2.0, stored.RatingsAverage, 0.001)

	w, _ = app.do(t, http.MethodDelete, reviewPath, authorToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NoError(t, app.db.First(&stored, "id = ?", tour.ID).Error)
	assert.Equal(t, db_models.EmptyRatingsQuantity, stored.RatingsQuantity)
	assert.InDelta(t, db_models.EmptyRatingsAverage, stored.RatingsAverage, 0.001)
}

func TestTourQueries(t *testing.T) {
	app := newTestApp(t)
	for i, price := range []float64{300, 500, 700, 900, 1100, 1300} {
		testutil.CreateTour(t, app.db, fmt.Sprintf("Sample Tour Number %d", i+1), price)
	}

	w, body := app.do(t, http.MethodGet, "/api/v1/tours?price[gte]=700&sort=-price", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, body.Results)
	assert.Equal(t, 4, *body.Results)

	w, body = app.do(t, http.MethodGet, "/api/v1/tours/top-5-tours", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var top []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &top))
	require.Len(t, top, 5)
	assert.InDelta(t, 300.0, top[0]["price"], 0.001)
	assert.NotContains(t, top[0], "description")

	w, _ = app.do(t, http.MethodGet, "/api/v1/tours/tours-within/200/center/34.1,-118.1/unit/yards", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(t, http.MethodGet, "/api/v1/tours/tours-within/200/center/34.1,-118.1/unit/mi", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 6, *body.Results)

	w, _ = app.do(t, http.MethodGet, "/api/v1/tours/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffOnlyTourWrites(t *testing.T) {
	app := newTestApp(t)
	_, userToken := app.userWithToken(t, "plain@example.com", db_models.RoleUser)
	_, leadToken := app.userWithToken(t, "lead@example.com", db_models.RoleLeadGuide)
	tour := gin.H{
		"name": "The Park Camper Tour", "duration": 10, "maxGroupSize": 15, "difficulty": "medium",
		"price": 1497, "summary": "Breathing in nature", "imageCover": "tour-5-cover.jpg",
		"ratingsAverage": 1, "ratingsQuantity": 999,
	}

	w, _ := app.do(t, http.MethodPost, "/api/v1/tours", userToken, tour)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.do(t, http.MethodPost, "/api/v1/tours", leadToken, tour)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created db_models.Tour
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "the-park-camper-tour", created.Slug)
	assert.Equal(t, 0, created.RatingsQuantity)
	assert.InDelta(t, db_models.DefaultRatingsAverage, created.RatingsAverage, 0.001)

	w, body = app.do(t, http.MethodPatch, "/api/v1/tours/"+created.ID.String(), leadToken, gin.H{"price": 1200, "priceDiscount": 1300})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Message, "Discount price")

	w, _ = app.do(t, http.MethodGet, "/api/v1/tours/name/the-park-camper-tour", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeletingUserRefreshesTourStats(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.userWithToken(t, "admin@example.com", db_models.RoleAdmin)
	reviewer := testutil.CreateUser(t, app.db, "reviewer@example.com", db_models.RoleUser)
	tour := testutil.CreateTour(t, app.db, "The Snow Adventurer", 997)
	testutil.CreateReview(t, app.db, reviewer, tour, 5)

	stats := func() []response_models.TourStats {
		w, body := app.do(t, http.MethodGet, "/api/v1/tours/stats", adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var data struct {
			Stats []response_models.TourStats `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(body.Data, &data))
		return data.Stats
	}
	before := stats()
	require.Len(t, before, 1)
	assert.Equal(t, int64(1), before[0].NumRatings)

	w, _ := app.do(t, http.MethodDelete, "/api/v1/users/"+reviewer.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// the only review is gone, so the tour drops below the stats rating floor
	assert.Empty(t, stats())
}

func TestCreateUserPointsToSignup(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.userWithToken(t, "admin@example.com", db_models.RoleAdmin)

	w, body := app.do(t, http.MethodPost, "/api/v1/users", adminToken, gin.H{"name": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, utils.ErrUseSignup.Message, body.Message)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body.Status)
	assert.Contains(t, body.Message, "/api/v1/nowhere")
}

func signWebhook(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func (a *testApp) webhook(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestWebhookCheckout(t *testing.T) {
	app := newTestApp(t)
	buyer, buyerToken := app.userWithToken(t, "buyer@example.com", db_models.RoleUser)
	tour := testutil.CreateTour(t, app.db, "The Sea Explorer", 497)

	event := func(sessionID, email string) []byte {
		return []byte(fmt.Sprintf(`{
  "id": "evt_%[1]s",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": %[1]q,
    "object": "checkout.session",
    "client_reference_id": %[2]q,
    "customer_email": %[3]q,
    "amount_total": 49700
  }}
}`, sessionID, tour.ID.String(), email))
	}

	payload := event("cs_test_1", buyer.Email)
	w := app.webhook(t, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 2; i++ {
		w = app.webhook(t, payload, signWebhook(payload))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"received": true}`, w.Body.String())
	}

	stranger := event("cs_test_2", "stranger@example.com")
	w = app.webhook(t, stranger, signWebhook(stranger))
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, app.db.Model(&db_models.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, body := app.do(t, http.MethodGet, "/api/v1/bookings/bookings", buyerToken, nil)
	require.NotNil(t, body.Results)
	assert.Equal(t, 1, *body.Results)

	_, body = app.do(t, http.MethodGet, "/api/v1/tours/bookings", buyerToken, nil)
	require.NotNil(t, body.Results)
	assert.Equal(t, 1, *body.Results)
	assert.Contains(t, string(body.Data), "The Sea Explorer")
}

func TestCheckoutSessionWithoutProvider(t *testing.T) {
	app := newTestApp(t)
	_, token := app.userWithToken(t, "shopper@example.com", db_models.RoleUser)
	tour := testutil.CreateTour(t, app.db, "The Snow Adventurer", 997)

	w, _ := app.do(t, http.MethodGet, "/api/v1/bookings/checkout-session/"+tour.ID.String(), token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
