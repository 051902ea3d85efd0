package controllers_fx

import (
	"go.uber.org/fx"

	"trip/internal/api/controllers"
)

var Module = fx.Provide(
	controllers.NewAccountController,
	controllers.NewUserController,
	controllers.NewTourController,
	controllers.NewReviewController,
	controllers.NewBookingController,
	controllers.NewPaymentController,
)
