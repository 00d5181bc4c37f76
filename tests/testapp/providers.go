package testapp

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/persistence/redis/redislock"
	"github.com/sergeii/mcscan/internal/persistence/redis/repositories/servers"
)

type Persistence struct {
	fx.Out

	Redis   *redis.Client
	Servers repositories.ServerRepository
}

func ProvidePersistence(lc fx.Lifecycle, clock clockwork.Clock, logger *zerolog.Logger) (Persistence, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return Persistence{}, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			defer mr.Close()
			return rdb.Close()
		},
	})

	return Persistence{
		Redis:   rdb,
		Servers: servers.New(rdb, redislock.NewManager(rdb, clock, logger)),
	}, nil
}

func NoLogging() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
