package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	mutex     sync.Mutex
	registry  *prometheus.Registry
	observers []Observer

	ScannerScans          prometheus.Counter
	ScannerTargets        prometheus.Counter
	ScannerWorkersBusy    prometheus.Gauge
	ScannerWorkerFailures prometheus.Counter
	ScannerDurations      prometheus.Histogram

	ProbeResults       *prometheus.CounterVec
	ProbeDurations     *prometheus.HistogramVec
	ProbeRetries       prometheus.Counter
	ProbeSampleDropped prometheus.Counter
	QueryDurations     prometheus.Histogram

	RepositoryErrors     *prometheus.CounterVec
	ServerRepositorySize prometheus.Gauge

	GameServers       *prometheus.GaugeVec
	GamePlayedServers *prometheus.GaugeVec
	GamePlayers       *prometheus.GaugeVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	c := &Collector{
		registry: registry,

		ScannerScans: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "The total number of completed scans",
		}),
		ScannerTargets: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "scanner_targets_total",
			Help: "The total number of targets submitted for scanning",
		}),
		ScannerWorkersBusy: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "scanner_busy_workers",
			Help: "The number of scan workers currently probing their partitions",
		}),
		ScannerWorkerFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "scanner_worker_failures_total",
			Help: "The total number of scan workers that terminated abnormally",
		}),
		ScannerDurations: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_duration_seconds",
			Help:    "Duration of scans",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		ProbeResults: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "probe_results_total",
			Help: "The total number of performed probes by result",
		}, []string{"result"}),
		ProbeDurations: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name: "probe_duration_seconds",
			Help: "Duration of probes by result",
		}, []string{"result"}),
		ProbeRetries: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "probe_retries_total",
			Help: "The total number of retried probes",
		}),
		ProbeSampleDropped: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "probe_sample_dropped_total",
			Help: "The total number of player sample entries dropped due to invalid ids",
		}),
		QueryDurations: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name: "probe_query_duration_seconds",
			Help: "Duration of successful status queries",
		}),
		RepositoryErrors: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "repo_errors_total",
			Help: "The total number of failed repository operations",
		}, []string{"op"}),
		ServerRepositorySize: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "repo_servers_size",
			Help: "The number of servers stored in the repository",
		}),
		GameServers: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "game_servers",
			Help: "The number of stored game servers",
		}, []string{"version"}),
		GamePlayedServers: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "game_played_servers",
			Help: "The number of stored game servers with at least 1 player",
		}, []string{"version"}),
		GamePlayers: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "game_players",
			Help: "The number of players online on stored servers",
		}, []string{"version"}),
	}
	return c
}

func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) AddObserver(observer Observer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.observers = append(c.observers, observer)
}

func (c *Collector) Observe(ctx context.Context) {
	c.mutex.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mutex.Unlock()

	for _, observer := range observers {
		go observer.Observe(ctx, c)
	}
}
