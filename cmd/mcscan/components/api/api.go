package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/application"
	"github.com/sergeii/mcscan/cmd/mcscan/build"
	"github.com/sergeii/mcscan/cmd/mcscan/commander"
	"github.com/sergeii/mcscan/cmd/mcscan/serving"
	"github.com/sergeii/mcscan/internal/rest"
	"github.com/sergeii/mcscan/internal/rest/api"
	"github.com/sergeii/mcscan/pkg/http/httpserver"
)

type Config httpserver.Config

type Component struct{}

func New(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	router *gin.Engine,
	cfg Config,
	logger *zerolog.Logger,
) *Component {
	svr := httpserver.New(httpserver.Config(cfg), router)
	serving.Bind(lc, shutdowner, logger, "api", svr)
	return &Component{}
}

type command struct {
	HTTPListenAddress   string        `default:":8080" help:"Sets the address where the API server listens for incoming http requests"`         // nolint:lll
	HTTPReadTimeout     time.Duration `default:"5s"    help:"Sets the maximum duration to read a request before timing out"`                    // nolint:lll
	HTTPWriteTimeout    time.Duration `default:"5s"    help:"Sets the maximum duration to write a response after reading the request body"`     // nolint:lll
	HTTPShutdownTimeout time.Duration `default:"10s"   help:"Defines how long the server waits to gracefully close connections before exiting"` // nolint:lll
}

func (c *command) Run(_ *commander.Globals, builder *application.Builder) error {
	app := builder.
		Add(
			fx.Supply(
				Config{
					ListenAddr:      c.HTTPListenAddress,
					ReadTimeout:     c.HTTPReadTimeout,
					WriteTimeout:    c.HTTPWriteTimeout,
					ShutdownTimeout: c.HTTPShutdownTimeout,
				},
			),
			Module,
			fx.Invoke(func(logger *zerolog.Logger, _ *Component) {
				logger.Info().
					Str("version", build.Version).
					Str("commit", build.Commit).
					Str("built", build.Time).
					Str("address", c.HTTPListenAddress).
					Msg("Starting API server for scanned servers")
			}),
		).
		WithExporter().
		Build()
	app.Run()
	return nil
}

type CLI struct {
	API command `cmd:"" help:"Start API server"`
}

var Module = fx.Module("api",
	fx.Provide(fx.Private, api.New),
	fx.Provide(rest.NewRouter),
	fx.Provide(New),
)
