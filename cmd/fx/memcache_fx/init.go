package memcache_fx

import (
	"context"
	"io"

	"go.uber.org/fx"

	"trip/internal/config"
	"trip/internal/infra"
)

var Module = fx.Provide(provideCache)

func provideCache(lc fx.Lifecycle, cfg *config.Config) infra.Cache {
	cache := infra.NewCache(cfg)
	if closer, ok := cache.(io.Closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error { return closer.Close() },
		})
	}
	return cache
}
