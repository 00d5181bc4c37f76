package main

import (
	"github.com/alecthomas/kong"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/cmd/mcscan/application"
	"github.com/sergeii/mcscan/cmd/mcscan/commander"
	"github.com/sergeii/mcscan/cmd/mcscan/components/api"
	"github.com/sergeii/mcscan/cmd/mcscan/components/exporter"
	"github.com/sergeii/mcscan/cmd/mcscan/components/observer"
	"github.com/sergeii/mcscan/cmd/mcscan/components/scan"
	"github.com/sergeii/mcscan/cmd/mcscan/logging"
	"github.com/sergeii/mcscan/cmd/mcscan/persistence"
)

func main() {
	cli := commander.CLI{}
	cli.Run.Plugins = kong.Plugins{
		&scan.CLI{},
		&api.CLI{},
		&observer.CLI{},
	}
	ctx := kong.Parse(
		&cli,
		kong.Name("mcscan"),
		kong.Description("Minecraft server status scanner"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Summary:   true,
			Tree:      true,
			FlagsLast: true,
		}),
	)

	builder := application.NewBuilder(
		fx.Supply(persistence.Config{
			Storage:    cli.Globals.Storage,
			RedisURL:   cli.Globals.RedisURL,
			SQLitePath: cli.Globals.SQLitePath,
		}),
		fx.Provide(persistence.Provide),
		application.Module,
		fx.Supply(logging.Config{
			LogLevel:  cli.Globals.LogLevel,
			LogOutput: cli.Globals.LogOutput,
		}),
		fx.Provide(logging.Provide),
		fx.WithLogger(logging.FxLogger),
		fx.Supply(exporter.Config{
			ListenAddr:      cli.Globals.ExporterHTTPListenAddress,
			ReadTimeout:     cli.Globals.ExporterHTTPReadTimeout,
			WriteTimeout:    cli.Globals.ExporterHTTPWriteTimeout,
			ShutdownTimeout: cli.Globals.ExporterHTTPShutdownTimeout,
		}),
		exporter.Module,
	)

	if err := ctx.Run(&cli.Globals, builder); err != nil {
		ctx.FatalIfErrorf(err)
	}
}
