package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/prober/probers"
	"github.com/sergeii/mcscan/internal/prober/probers/statusprober"
	"github.com/sergeii/mcscan/pkg/slice"
)

var ErrWorkerPanic = errors.New("scan worker panicked")

type Opts struct {
	PoolSize     int
	ProbeTimeout time.Duration
}

type Stats struct {
	Targets          int `json:"targets"`
	Workers          int `json:"workers"`
	Succeeded        int `json:"succeeded"`
	Unreachable      int `json:"unreachable"`
	ProtocolFailures int `json:"protocol_failures"`
	Failures         int `json:"failures"`
	// Skipped counts targets never probed because the scan was cancelled
	// or because their worker terminated abnormally before reaching them
	Skipped int `json:"skipped"`
	// Discarded counts successful probes dropped along with the results of a failed worker
	Discarded      int `json:"discarded"`
	WorkerFailures int `json:"worker_failures"`
}

func (s Stats) probed() int {
	return s.Succeeded + s.Unreachable + s.ProtocolFailures + s.Failures
}

func (s *Stats) merge(other Stats) {
	s.Succeeded += other.Succeeded
	s.Unreachable += other.Unreachable
	s.ProtocolFailures += other.ProtocolFailures
	s.Failures += other.Failures
	s.Skipped += other.Skipped
	s.Discarded += other.Discarded
	s.WorkerFailures += other.WorkerFailures
}

type Report struct {
	Servers []status.ServerStatus `json:"servers"`
	Stats   Stats                 `json:"stats"`
}

type Scanner struct {
	opts    Opts
	prober  probers.Prober
	metrics *metrics.Collector
	logger  *zerolog.Logger
}

func New(
	prober probers.Prober,
	metrics *metrics.Collector,
	logger *zerolog.Logger,
	opts Opts,
) *Scanner {
	return &Scanner{
		opts:    opts,
		prober:  prober,
		metrics: metrics,
		logger:  logger,
	}
}

type workerResult struct {
	servers []status.ServerStatus
	stats   Stats
}

// Scan probes every target using a pool of workers.
// Targets are split into contiguous groups, one per worker,
// and each worker probes its group sequentially.
// The returned servers follow group order, then order within the group
func (s *Scanner) Scan(ctx context.Context, targets []target.Target) Report {
	groups := slice.Partition(targets, s.opts.PoolSize)
	report := Report{
		Servers: make([]status.ServerStatus, 0),
		Stats: Stats{
			Targets: len(targets),
			Workers: len(groups),
		},
	}
	if len(groups) == 0 {
		s.logger.Info().Msg("No targets to scan")
		return report
	}

	s.logger.Info().
		Int("targets", len(targets)).Int("workers", len(groups)).Dur("timeout", s.opts.ProbeTimeout).
		Msg("Starting scan")

	before := time.Now()
	s.metrics.ScannerTargets.Add(float64(len(targets)))

	results := make([]workerResult, len(groups))
	wg := &sync.WaitGroup{}
	for i, group := range groups {
		wg.Add(1)
		go func(idx int, group []target.Target) {
			defer wg.Done()
			results[idx] = s.runWorker(ctx, idx, group)
		}(i, group)
	}
	wg.Wait()

	for _, res := range results {
		report.Servers = append(report.Servers, res.servers...)
		report.Stats.merge(res.stats)
	}

	elapsed := time.Since(before)
	s.metrics.ScannerScans.Inc()
	s.metrics.ScannerDurations.Observe(elapsed.Seconds())
	s.logger.Info().
		Int("targets", report.Stats.Targets).Int("succeeded", report.Stats.Succeeded).
		Int("unreachable", report.Stats.Unreachable).Int("protocol", report.Stats.ProtocolFailures).
		Int("failures", report.Stats.Failures).Int("skipped", report.Stats.Skipped).
		Int("discarded", report.Stats.Discarded).Int("worker_failures", report.Stats.WorkerFailures).Dur("elapsed", elapsed).
		Msg("Finished scan")

	return report
}

func (s *Scanner) runWorker(ctx context.Context, idx int, group []target.Target) (res workerResult) {
	s.metrics.ScannerWorkersBusy.Inc()
	defer s.metrics.ScannerWorkersBusy.Dec()

	res = workerResult{
		servers: make([]status.ServerStatus, 0, len(group)),
	}

	// a worker that panics contributes no servers.
	// Outcomes of the targets it has already probed are kept,
	// while the rest of its group, the panicking target included, is skipped
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%w: %v", ErrWorkerPanic, rec)
			s.metrics.ScannerWorkerFailures.Inc()
			s.logger.Error().
				Err(err).Int("worker", idx).Int("targets", len(group)).Int("probed", res.stats.probed()).
				Bytes("stack", debug.Stack()).
				Msg("Scan worker failed")
			res.stats.Skipped = len(group) - res.stats.probed()
			res.stats.Discarded = res.stats.Succeeded
			res.stats.Succeeded = 0
			res.stats.WorkerFailures = 1
			res.servers = nil
		}
	}()

	s.work(ctx, idx, group, &res)

	return res
}

func (s *Scanner) work(ctx context.Context, idx int, group []target.Target, res *workerResult) {
	for i, tgt := range group {
		if ctx.Err() != nil {
			res.stats.Skipped += len(group) - i
			s.logger.Debug().
				Int("worker", idx).Int("skipped", len(group)-i).
				Msg("Scan cancelled, worker is stopping")
			return
		}

		svrStatus, err := s.prober.Probe(ctx, tgt, s.opts.ProbeTimeout)
		if err != nil {
			s.countFailure(&res.stats, tgt, err)
			continue
		}
		res.stats.Succeeded++
		res.servers = append(res.servers, svrStatus)
	}
}

func (s *Scanner) countFailure(stats *Stats, tgt target.Target, err error) {
	switch {
	case errors.Is(err, statusprober.ErrUnreachable):
		stats.Unreachable++
	case errors.Is(err, statusprober.ErrProtocol):
		stats.ProtocolFailures++
	default:
		stats.Failures++
		s.logger.Warn().Err(err).Stringer("target", tgt).Msg("Probe failed unexpectedly")
	}
}
