package serverobserver

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/metrics"
)

type Opts struct {
	// Servers probed longer than this ago are not reported.
	// Zero reports every stored server
	ServerLiveness time.Duration
}

type ServerObserver struct {
	opts       Opts
	serverRepo repositories.ServerRepository
	clock      clockwork.Clock
	logger     *zerolog.Logger
}

func New(
	collector *metrics.Collector,
	serverRepo repositories.ServerRepository,
	clock clockwork.Clock,
	logger *zerolog.Logger,
	opts Opts,
) ServerObserver {
	observer := ServerObserver{
		serverRepo: serverRepo,
		clock:      clock,
		logger:     logger,
		opts:       opts,
	}
	collector.AddObserver(&observer)
	return observer
}

func (o ServerObserver) Observe(ctx context.Context, m *metrics.Collector) {
	o.observeServerRepoSize(ctx, m)
	o.observeLiveServers(ctx, m)
}

func (o ServerObserver) observeServerRepoSize(ctx context.Context, m *metrics.Collector) {
	count, err := o.serverRepo.Count(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("Unable to observe server count")
		return
	}
	m.ServerRepositorySize.Set(float64(count))
	o.logger.Debug().Int("count", count).Msg("Observed server count")
}

func (o ServerObserver) observeLiveServers(ctx context.Context, m *metrics.Collector) {
	players := make(map[string]int)
	allServers := make(map[string]int)
	playedServers := make(map[string]int)

	fs := filterset.NewServerFilterSet()
	if o.opts.ServerLiveness > 0 {
		fs = fs.ProbedAfter(o.clock.Now().Add(-o.opts.ServerLiveness))
	}
	liveServers, err := o.serverRepo.List(ctx, fs)
	if err != nil {
		o.logger.Error().Err(err).Msg("Unable to observe live server count")
		return
	}

	for _, s := range liveServers {
		version := status.VersionSlug(s.VersionName)
		allServers[version]++
		if s.OnlinePlayers > 0 {
			players[version] += s.OnlinePlayers
			playedServers[version]++
		}
	}

	// versions that went away since the previous observation must not linger
	m.GamePlayers.Reset()
	m.GameServers.Reset()
	m.GamePlayedServers.Reset()

	for version, playerCount := range players {
		m.GamePlayers.WithLabelValues(version).Set(float64(playerCount))
	}
	for version, serverCount := range allServers {
		m.GameServers.WithLabelValues(version).Set(float64(serverCount))
	}
	for version, serverCount := range playedServers {
		m.GamePlayedServers.WithLabelValues(version).Set(float64(serverCount))
	}

	o.logger.Debug().
		Int("versions", len(allServers)).Int("servers", len(liveServers)).
		Msg("Observed live server count")
}
