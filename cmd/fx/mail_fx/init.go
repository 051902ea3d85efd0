package mail_fx

import (
	"go.uber.org/fx"

	"trip/internal/services"
)

var Module = fx.Provide(services.NewMailService)
