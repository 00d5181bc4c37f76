package persistence

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/persistence"
)

type Config = persistence.Config

func Provide(
	lc fx.Lifecycle,
	cfg Config,
	clock clockwork.Clock,
	logger *zerolog.Logger,
) (repositories.ServerRepository, error) {
	p, err := persistence.New(context.Background(), cfg, clock, logger)
	if err != nil {
		logger.Error().Err(err).Str("storage", cfg.Storage).Msg("Failed to set up storage")
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if closeErr := p.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Str("storage", cfg.Storage).Msg("Failed to close storage")
				return closeErr
			}
			return nil
		},
	})

	logger.Debug().Str("storage", cfg.Storage).Msg("Storage is ready")

	return p.Servers, nil
}
