package observer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/application"
	"github.com/sergeii/mcscan/cmd/mcscan/commander"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/metrics/observers/serverobserver"
)

type Config struct {
	ObserveInterval time.Duration
	ServerLiveness  time.Duration
}

type Component struct{}

// observe collects metrics right away and then on every tick until ctx is cancelled
func observe(
	ctx context.Context,
	clock clockwork.Clock,
	collector *metrics.Collector,
	interval time.Duration,
) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	collector.Observe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			collector.Observe(ctx)
		}
	}
}

func New(
	lc fx.Lifecycle,
	cfg Config,
	clock clockwork.Clock,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) *Component {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info().
				Dur("interval", cfg.ObserveInterval).Dur("liveness", cfg.ServerLiveness).
				Msg("Starting observer")
			go func() {
				defer close(stopped)
				observe(ctx, clock, collector, cfg.ObserveInterval)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-stopped
			logger.Info().Msg("Observer stopped")
			return nil
		},
	})

	return &Component{}
}

type command struct {
	MetricObserveInterval time.Duration `default:"10s" help:"Sets how often metrics are collected"`
	ServerLiveness        time.Duration `default:"0s"  help:"Limits game metrics to servers probed within this duration (0 keeps all)"` // nolint:lll
}

func (c *command) Run(_ *commander.Globals, builder *application.Builder) error {
	app := builder.
		Add(
			fx.Supply(Config{
				ObserveInterval: c.MetricObserveInterval,
				ServerLiveness:  c.ServerLiveness,
			}),
			Module,
			fx.Invoke(func(_ *Component) {}),
		).
		WithExporter().
		Build()
	app.Run()
	return nil
}

type CLI struct {
	Observer command `cmd:"" help:"Start observer"`
}

type Opts struct {
	fx.Out

	ServerObserverOpts serverobserver.Opts
}

func provideObserverConfigs(cfg Config) Opts {
	return Opts{
		ServerObserverOpts: serverobserver.Opts{
			ServerLiveness: cfg.ServerLiveness,
		},
	}
}

var Module = fx.Module("observer",
	fx.Provide(fx.Private, provideObserverConfigs),
	fx.Invoke(serverobserver.New),
	fx.Provide(New),
)
