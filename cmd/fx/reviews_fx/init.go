package reviews_fx

import (
	"go.uber.org/fx"

	"trip/internal/repositories"
	"trip/internal/services"
)

var Module = fx.Provide(
	repositories.NewReviewRepository,
	services.NewReviewService,
)
