package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/application"
	"github.com/sergeii/mcscan/cmd/mcscan/commander"
	"github.com/sergeii/mcscan/cmd/mcscan/container"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/usecases/scanservers"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/prober/probers"
	"github.com/sergeii/mcscan/internal/prober/probers/statusprober"
	"github.com/sergeii/mcscan/internal/prober/scanner"
)

const stdout = "-"

type Config struct {
	File         string
	Output       string
	PoolSize     int
	ProbeTimeout time.Duration
	Retries      int
	RetryBackoff time.Duration
	Rate         float64
	RateBurst    int
	Protocol     int
}

type Component struct {
	done chan struct{}
}

// Done is closed once the scan has finished and its results are written
func (c *Component) Done() <-chan struct{} {
	return c.done
}

func provideProber(
	cfg Config,
	validate *validator.Validate,
	clock clockwork.Clock,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) probers.Prober {
	var p probers.Prober = statusprober.New(
		validate,
		clock,
		collector,
		logger,
		statusprober.Opts{Protocol: cfg.Protocol},
	)
	p = probers.WithRetries(p, cfg.Retries, cfg.RetryBackoff, clock, collector)
	return probers.WithRateLimit(p, probers.NewLimiter(cfg.Rate, cfg.RateBurst))
}

func provideScanner(
	cfg Config,
	prober probers.Prober,
	collector *metrics.Collector,
	logger *zerolog.Logger,
) *scanner.Scanner {
	return scanner.New(prober, collector, logger, scanner.Opts{
		PoolSize:     cfg.PoolSize,
		ProbeTimeout: cfg.ProbeTimeout,
	})
}

func run(
	ctx context.Context,
	cfg Config,
	uc scanservers.UseCase,
	scnr *scanner.Scanner,
	logger *zerolog.Logger,
) int {
	logger.Info().
		Str("file", cfg.File).
		Int("pool", cfg.PoolSize).
		Dur("timeout", cfg.ProbeTimeout).
		Int("retries", cfg.Retries).
		Float64("rate", cfg.Rate).
		Msg("Starting scan")

	resp, err := uc.Execute(ctx, scanservers.NewRequest(cfg.File, scnr))
	if err != nil {
		logger.Error().Err(err).Str("file", cfg.File).Msg("Unable to scan servers")
		return 1
	}

	stats := resp.Report.Stats
	logger.Info().
		Int("targets", stats.Targets).
		Int("workers", stats.Workers).
		Int("succeeded", stats.Succeeded).
		Int("unreachable", stats.Unreachable).
		Int("protocol", stats.ProtocolFailures).
		Int("failures", stats.Failures).
		Int("skipped", stats.Skipped).
		Int("discarded", stats.Discarded).
		Int("worker_failures", stats.WorkerFailures).
		Int("stored", resp.Stored).
		Int("store_errors", resp.StoreErrors).
		Msg("Scan finished")

	if err = writeServers(cfg.Output, resp.Report.Servers); err != nil {
		logger.Error().Err(err).Str("output", cfg.Output).Msg("Unable to write scan results")
		return 1
	}

	return 0
}

func writeServers(output string, servers []status.ServerStatus) error {
	switch output {
	case "":
		return nil
	case stdout:
		return encodeServers(os.Stdout, servers)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err = encodeServers(f, servers); err != nil {
		f.Close() // nolint: errcheck
		return err
	}
	return f.Close()
}

func encodeServers(w io.Writer, servers []status.ServerStatus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(servers); err != nil {
		return fmt.Errorf("encode scan results: %w", err)
	}
	return nil
}

func New(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg Config,
	container container.Container,
	scnr *scanner.Scanner,
	logger *zerolog.Logger,
) *Component {
	ctx, cancel := context.WithCancel(context.Background())
	component := &Component{
		done: make(chan struct{}),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(component.done)
				exitCode := run(ctx, cfg, container.ScanServers, scnr, logger)
				// the app is already being stopped
				if ctx.Err() != nil {
					return
				}
				if shutErr := shutdowner.Shutdown(fx.ExitCode(exitCode)); shutErr != nil {
					logger.Error().Err(shutErr).Msg("Failed to shut down after scan")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-component.done:
			case <-stopCtx.Done():
				logger.Error().Err(stopCtx.Err()).Msg("Scan did not stop in time")
				return stopCtx.Err()
			}
			logger.Info().Msg("Scanner stopped")
			return nil
		},
	})

	return component
}

type command struct {
	File         string        `arg:""          help:"Path to the scanner results file (JSON array of {ip|address, timestamp} records)"` // nolint:lll
	Output       string        `default:"-"     help:"Where to write reachable servers as JSON (- for stdout, empty to disable)"`         // nolint:lll
	PoolSize     int           `default:"32"    help:"Sets the number of concurrent scan workers"`
	ProbeTimeout time.Duration `default:"3s"    help:"Sets the maximum time a single status query may take"`
	Retries      int           `default:"0"     help:"Specifies how many times an unreachable server is retried"`
	RetryBackoff time.Duration `default:"250ms" help:"Sets the delay before the first retry, doubled on every next one"`          // nolint:lll
	Rate         float64       `default:"0"     help:"Limits the number of new connections per second across all workers (0 is unlimited)"` // nolint:lll
	RateBurst    int           `default:"1"     help:"Sets how many connections may be opened at once when rate limited"`          // nolint:lll
	Protocol     int           `default:"0"     help:"Protocol version announced in the handshake (0 uses the client default)"`    // nolint:lll
	Exporter     bool          `default:"false" help:"Serves prometheus metrics while the scan is running"`
}

func (c *command) Run(_ *commander.Globals, builder *application.Builder) error {
	builder.
		Add(
			fx.Supply(Config{
				File:         c.File,
				Output:       c.Output,
				PoolSize:     c.PoolSize,
				ProbeTimeout: c.ProbeTimeout,
				Retries:      c.Retries,
				RetryBackoff: c.RetryBackoff,
				Rate:         c.Rate,
				RateBurst:    c.RateBurst,
				Protocol:     c.Protocol,
			}),
			Module,
			fx.Invoke(func(_ *Component) {}),
		)
	if c.Exporter {
		builder.WithExporter()
	}
	app := builder.Build()
	app.Run()
	return nil
}

type CLI struct {
	Scan command `cmd:"" help:"Probe the addresses found by a network scanner for Minecraft servers"`
}

var Module = fx.Module("scan",
	fx.Provide(fx.Private, provideProber),
	fx.Provide(fx.Private, provideScanner),
	fx.Provide(New),
)
