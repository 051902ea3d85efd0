package controllers

import (
	"github.com/gin-gonic/gin"

	"trip/internal/config"
	"trip/internal/models/db_models"
	"trip/internal/repositories"
	"trip/internal/services"
	"trip/pkg/handlerfactory"
	"trip/pkg/utils"
)

type BookingController struct {
	bookingService services.BookingServiceInterface
	paymentService services.PaymentService
	crud           *handlerfactory.Factory[db_models.Booking]
}

func NewBookingController(
	bookingService services.BookingServiceInterface,
	paymentService services.PaymentService,
	bookingRepo repositories.BookingRepository,
	cfg *config.Config,
) *BookingController {
	return &BookingController{
		bookingService: bookingService,
		paymentService: paymentService,
		crud: handlerfactory.New[db_models.Booking](bookingRepo, handlerfactory.Options[db_models.Booking]{
			Preload:  []string{"Tour", "User"},
			MaxLimit: cfg.QueryMaxLimit,
		}),
	}
}

// GetCheckoutSession godoc
// @Summary Start a hosted checkout for a tour
// @Tags Bookings
// @Produce json
// @Param tourId path string true "Tour id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/checkout-session/{tourId} [get]
func (b *BookingController) GetCheckoutSession(c *gin.Context) {
	tourID, err := handlerfactory.ParseID("tourId", c.Param("tourId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	session, err := b.paymentService.CreateCheckoutSession(c.Request.Context(), tourID, currentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondSuccess(c, session, "")
}

// GetMyBookings godoc
// @Summary Bookings of the caller
// @Tags Bookings
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/bookings [get]
func (b *BookingController) GetMyBookings(c *gin.Context) {
	bookings, err := b.bookingService.MyBookings(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(bookings), bookings)
}

// CancelMyBooking godoc
// @Summary Cancel one of the caller's bookings
// @Tags Bookings
// @Param id path string true "Booking id"
// @Success 204
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/bookings/{id} [delete]
func (b *BookingController) CancelMyBooking(c *gin.Context) {
	bookingID, err := handlerfactory.ParseID("id", c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := b.bookingService.CancelMine(c.Request.Context(), bookingID, currentUser(c).ID); err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondNoContent(c)
}

// GetBookedTours godoc
// @Summary Every booking with tour and user
// @Tags Bookings
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/booked-tours [get]
func (b *BookingController) GetBookedTours(c *gin.Context) {
	bookings, err := b.bookingService.AllWithDetails(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.RespondList(c, len(bookings), bookings)
}

// GetAllBookings godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings [get]
func (b *BookingController) GetAllBookings() gin.HandlerFunc { return b.crud.GetAll() }

// GetBooking godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/{id} [get]
func (b *BookingController) GetBooking() gin.HandlerFunc { return b.crud.GetOne() }

// CreateBooking godoc
// @Summary Create a booking manually
// @Tags Bookings
// @Accept json
// @Produce json
// @Success 201 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings [post]
func (b *BookingController) CreateBooking() gin.HandlerFunc { return b.crud.CreateOne() }

// UpdateBooking godoc
// @Summary Update a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /bookings/{id} [patch]
func (b *BookingController) UpdateBooking() gin.HandlerFunc { return b.crud.UpdateOne() }

// DeleteBooking godoc
// @Summary Delete a booking
// @Tags Bookings
// @Param id path string true "Booking id"
// @Success 204
// @Security BearerAuth
// @Router /bookings/{id} [delete]
func (b *BookingController) DeleteBooking() gin.HandlerFunc { return b.crud.DeleteOne() }
