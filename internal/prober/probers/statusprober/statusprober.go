package statusprober

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/internal/core/entities/addr"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/pkg/minecraft/slp"
)

var (
	ErrUnreachable = errors.New("server is unreachable")
	ErrProtocol    = errors.New("server responded with invalid status")
)

// Result labels used in probe metrics
const (
	ResultSuccess     = "success"
	ResultUnreachable = "unreachable"
	ResultProtocol    = "protocol"
)

type Opts struct {
	// Protocol is the protocol version announced in the handshake.
	// Zero leaves the client default
	Protocol int
}

type StatusProber struct {
	opts     Opts
	validate *validator.Validate
	clock    clockwork.Clock
	metrics  *metrics.Collector
	logger   *zerolog.Logger
}

func New(
	validate *validator.Validate,
	clock clockwork.Clock,
	metrics *metrics.Collector,
	logger *zerolog.Logger,
	opts Opts,
) StatusProber {
	return StatusProber{
		opts:     opts,
		validate: validate,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Probe performs a single status exchange with the target within the timeout.
// Connection failures and timeouts are reported as ErrUnreachable,
// anything wrong with the exchange itself as ErrProtocol
func (p StatusProber) Probe(
	ctx context.Context,
	tgt target.Target,
	timeout time.Duration,
) (status.ServerStatus, error) {
	started := time.Now()
	svrStatus, err := p.probe(ctx, tgt, timeout)

	var result string
	switch {
	case err == nil:
		result = ResultSuccess
	case errors.Is(err, ErrUnreachable):
		result = ResultUnreachable
	default:
		result = ResultProtocol
	}
	p.metrics.ProbeResults.WithLabelValues(result).Inc()
	p.metrics.ProbeDurations.WithLabelValues(result).Observe(time.Since(started).Seconds())

	return svrStatus, err
}

func (p StatusProber) probe(
	ctx context.Context,
	tgt target.Target,
	timeout time.Duration,
) (status.ServerStatus, error) {
	svrAddr, err := addr.Parse(tgt.Address)
	if err != nil {
		// the address cannot be dialed at all
		return status.Blank, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	queryStarted := time.Now()

	conn, err := slp.Dial(ctx, svrAddr.Host, svrAddr.Port, p.dialOpts()...)
	if err != nil {
		p.logger.Debug().
			Err(err).Dur("timeout", timeout).Stringer("addr", svrAddr).
			Msg("Failed to connect to server")
		return status.Blank, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer conn.Close() // nolint: errcheck

	resp, err := conn.Status(ctx)
	if err != nil {
		p.logger.Debug().
			Err(err).Dur("timeout", timeout).Stringer("addr", svrAddr).Stringer("remote", conn.RemoteAddr()).
			Msg("Failed to query server status")
		return status.Blank, classifyQueryErr(ctx, err)
	}

	queryDur := time.Since(queryStarted).Seconds()
	p.metrics.QueryDurations.Observe(queryDur)

	svrStatus, dropped := status.NewFromResponse(tgt, resp, p.clock.Now())
	if dropped > 0 {
		p.metrics.ProbeSampleDropped.Add(float64(dropped))
		p.logger.Debug().
			Stringer("addr", svrAddr).Int("dropped", dropped).
			Msg("Dropped player sample entries with invalid ids")
	}

	if validateErr := svrStatus.Validate(p.validate); validateErr != nil {
		p.logger.Info().
			Err(validateErr).Stringer("addr", svrAddr).
			Msg("Failed to validate status response")
		return status.Blank, fmt.Errorf("%w: %w", ErrProtocol, validateErr)
	}

	p.logger.Debug().
		Stringer("addr", svrAddr).Stringer("remote", conn.RemoteAddr()).Float64("duration", queryDur).
		Str("version", svrStatus.VersionName).Int("players", svrStatus.OnlinePlayers).
		Msg("Successfully queried server")

	return svrStatus, nil
}

func (p StatusProber) dialOpts() []slp.Option {
	if p.opts.Protocol == 0 {
		return nil
	}
	return []slp.Option{slp.WithProtocol(p.opts.Protocol)}
}

func classifyQueryErr(ctx context.Context, err error) error {
	// an exchange cut short by the deadline or by cancellation is a timeout
	if errors.Is(err, os.ErrDeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return fmt.Errorf("%w: %w", ErrProtocol, err)
}
