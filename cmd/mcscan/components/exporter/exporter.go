package exporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/serving"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/pkg/http/httpserver"
)

type Config httpserver.Config

type Component struct{}

func newHandler(collector *metrics.Collector) http.Handler {
	registry := collector.GetRegistry()
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.InstrumentMetricHandler(
		registry,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func New(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg Config,
	logger *zerolog.Logger,
	collector *metrics.Collector,
) *Component {
	svr := httpserver.New(httpserver.Config(cfg), newHandler(collector))
	serving.Bind(lc, shutdowner, logger, "exporter", svr)
	return &Component{}
}

var Module = fx.Module("exporter",
	fx.Provide(New),
)
