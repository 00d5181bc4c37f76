package application

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/components/exporter"
	"github.com/sergeii/mcscan/cmd/mcscan/container"
	"github.com/sergeii/mcscan/cmd/mcscan/logging"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/validation"
)

type Builder struct {
	opts []fx.Option
}

func NewBuilder(opts ...fx.Option) *Builder {
	return &Builder{
		opts: opts,
	}
}

func (b *Builder) Add(opts ...fx.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *Builder) WithExporter() *Builder {
	return b.Add(
		fx.Invoke(func(*exporter.Component) {}),
	)
}

func (b *Builder) Build() *fx.App {
	return fx.New(b.opts...)
}

var Module = fx.Module("application",
	fx.Invoke(logging.NoGlobal),
	fx.Provide(clockwork.NewRealClock),
	fx.Provide(validation.New),
	fx.Provide(metrics.New),
	container.Module,
)
