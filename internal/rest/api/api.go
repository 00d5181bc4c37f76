package api

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/cmd/mcscan/container"
)

type API struct {
	container container.Container
	clock     clockwork.Clock
	startedAt time.Time
	logger    *zerolog.Logger
}

type Error struct {
	Error string `json:"error"`
}

func New(
	container container.Container,
	clock clockwork.Clock,
	logger *zerolog.Logger,
) *API {
	return &API{
		container: container,
		clock:     clock,
		startedAt: clock.Now(),
		logger:    logger,
	}
}
