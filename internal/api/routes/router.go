package routes

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"trip/internal/api/controllers"
	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/websocket"
	"trip/pkg/middleware"
	"trip/pkg/utils"
)

const (
	jsonBodyLimit      = 20 << 10
	multipartBodyLimit = 10 << 20
	webhookBodyLimit   = 64 << 10
)

var (
	admin     = string(db_models.RoleAdmin)
	leadGuide = string(db_models.RoleLeadGuide)
	guide     = string(db_models.RoleGuide)
	user      = string(db_models.RoleUser)
)

type Handlers struct {
	Account *controllers.AccountController
	User    *controllers.UserController
	Tour    *controllers.TourController
	Review  *controllers.ReviewController
	Booking *controllers.BookingController
	Payment *controllers.PaymentController
	Feed    *websocket.Hub
}

func NewRouter(cfg *config.Config, logger *zap.Logger, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.UseJSONNamesForBinding()

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.ErrorHandler(logger, !cfg.IsProduction()))
	r.Use(middleware.Recovery())
	if !cfg.IsProduction() {
		r.Use(gin.Logger())
	}

	var origins []string
	if cfg.IsProduction() {
		origins = []string{cfg.ClientBaseURL}
	}
	r.Use(middleware.CORSMiddleware(origins...))

	r.Static("/img", filepath.Join(cfg.PublicDir, "img"))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// the raw body is needed for signature verification, so this stays outside /api/v1
	r.POST("/webhook-checkout", middleware.BodyLimit(webhookBodyLimit, webhookBodyLimit), h.Payment.WebhookCheckout)

	protect := middleware.Protect(h.Account.Authenticate)
	r.GET("/ws/bookings", protect, middleware.RestrictTo(admin), h.Feed.ServeWs)

	api := r.Group("/api/v1", middleware.BodyLimit(jsonBodyLimit, multipartBodyLimit))
	registerUserRoutes(api.Group("/users"), h, protect)
	registerTourRoutes(api.Group("/tours"), h, protect)
	registerReviewRoutes(api.Group("/reviews"), h, protect)
	registerBookingRoutes(api.Group("/bookings"), h, protect)

	r.NoRoute(middleware.NotFound())
	return r
}

func registerUserRoutes(g *gin.RouterGroup, h Handlers, protect gin.HandlerFunc) {
	g.POST("/signup", h.Account.Signup)
	g.POST("/login", h.Account.Login)
	g.GET("/logout", h.Account.Logout)
	g.POST("/forgotPassword", h.Account.ForgotPassword)
	g.PATCH("/resetPassword/:token", h.Account.ResetPassword)

	me := g.Group("", protect)
	me.PATCH("/update-password", h.Account.UpdatePassword)
	me.GET("/me", h.User.GetMe)
	me.PATCH("/update-me", h.User.UpdateMe)
	me.DELETE("/delete-me", h.User.DeleteMe)

	admins := g.Group("", protect, middleware.RestrictTo(admin))
	admins.GET("", h.User.GetAllUsers())
	admins.POST("", h.User.CreateUser)
	admins.GET("/:id", h.User.GetUser())
	admins.PATCH("/:id", h.User.UpdateUser())
	admins.DELETE("/:id", h.User.DeleteUser(), h.Tour.InvalidateStats)
}

func registerTourRoutes(g *gin.RouterGroup, h Handlers, protect gin.HandlerFunc) {
	invalidate := h.Tour.InvalidateStats

	g.GET("", h.Tour.GetAllTours())
	g.GET("/top-5-tours", h.Tour.AliasTopTours, h.Tour.GetAllTours())
	g.GET("/stats", h.Tour.GetTourStats)
	g.GET("/name/:name", h.Tour.GetTourBySlug)
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Tour.GetToursWithin)
	g.GET("/distances/:latlng/unit/:unit", h.Tour.GetDistances)
	g.GET("/:id", h.Tour.GetTour())

	g.GET("/bookings", protect, h.Tour.GetMyTours)
	g.GET("/monthly-plan/:year", protect, middleware.RestrictTo(admin, leadGuide, guide), h.Tour.GetMonthlyPlan)

	staff := g.Group("", protect, middleware.RestrictTo(admin, leadGuide))
	staff.POST("", h.Tour.CreateTour(), invalidate)
	staff.PATCH("/:id", h.Tour.UpdateTour(), invalidate)
	staff.DELETE("/:id", h.Tour.DeleteTour(), invalidate)

	nested := g.Group("/:id/reviews", protect)
	nested.GET("", h.Review.GetAllReviews())
	nested.POST("", middleware.RestrictTo(user), h.Review.CreateReview(), invalidate)
}

func registerReviewRoutes(g *gin.RouterGroup, h Handlers, protect gin.HandlerFunc) {
	invalidate := h.Tour.InvalidateStats
	g.Use(protect)

	g.GET("", h.Review.GetAllReviews())
	g.POST("", middleware.RestrictTo(user), h.Review.CreateReview(), invalidate)
	g.GET("/my-reviews", h.Review.GetMyReviews)
	g.GET("/tour/:tourId", middleware.RestrictTo(admin), h.Review.GetTourReviews)
	g.GET("/:id", h.Review.GetReview())
	g.PATCH("/:id", middleware.RestrictTo(user, admin), h.Review.UpdateReview(), invalidate)
	g.DELETE("/:id", middleware.RestrictTo(user, admin), h.Review.DeleteReview(), invalidate)
}

func registerBookingRoutes(g *gin.RouterGroup, h Handlers, protect gin.HandlerFunc) {
	g.Use(protect)

	g.GET("/checkout-session/:tourId", h.Booking.GetCheckoutSession)
	g.GET("/bookings", h.Booking.GetMyBookings)
	g.DELETE("/bookings/:id", h.Booking.CancelMyBooking)
	g.GET("/booked-tours", middleware.RestrictTo(admin), h.Booking.GetBookedTours)

	staff := g.Group("", middleware.RestrictTo(admin, leadGuide))
	staff.GET("", h.Booking.GetAllBookings())
	staff.POST("", h.Booking.CreateBooking())
	staff.GET("/:id", h.Booking.GetBooking())
	staff.PATCH("/:id", h.Booking.UpdateBooking())
	staff.DELETE("/:id", h.Booking.DeleteBooking())
}
