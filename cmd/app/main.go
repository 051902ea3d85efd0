// @title Trip API
// @version 1.0
// @description Tour booking REST API.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"trip/cmd/fx/account_fx"
	"trip/cmd/fx/bookings_fx"
	"trip/cmd/fx/config_fx"
	"trip/cmd/fx/controllers_fx"
	"trip/cmd/fx/db_fx"
	"trip/cmd/fx/mail_fx"
	"trip/cmd/fx/memcache_fx"
	"trip/cmd/fx/payment_service_fx"
	"trip/cmd/fx/reviews_fx"
	"trip/cmd/fx/tours_fx"
	_ "trip/docs"
	"trip/internal/api/controllers"
	"trip/internal/api/routes"
	"trip/internal/config"
	"trip/internal/websocket"
)

func main() {
	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		tours_fx.Module,
		reviews_fx.Module,
		bookings_fx.Module,
		payment_service_fx.Module,
		controllers_fx.Module,

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

type RouterParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Account *controllers.AccountController
	User    *controllers.UserController
	Tour    *controllers.TourController
	Review  *controllers.ReviewController
	Booking *controllers.BookingController
	Payment *controllers.PaymentController
	Feed    *websocket.Hub
}

func ProvideRouter(p RouterParams) *gin.Engine {
	return routes.NewRouter(p.Config, p.Logger, routes.Handlers{
		Account: p.Account,
		User:    p.User,
		Tour:    p.Tour,
		Review:  p.Review,
		Booking: p.Booking,
		Payment: p.Payment,
		Feed:    p.Feed,
	})
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("starting HTTP server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
