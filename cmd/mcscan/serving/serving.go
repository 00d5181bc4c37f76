package serving

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/pkg/http/httpserver"
)

// Bind ties the http server to the app lifecycle.
// A server that stops serving on its own shuts the app down with a non-zero exit code.
func Bind(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	logger *zerolog.Logger,
	name string,
	svr *httpserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := svr.Start(); err != nil {
				logger.Error().Err(err).Str("server", name).Msg("Failed to start server")
				return err
			}
			logger.Info().
				Str("server", name).Stringer("addr", svr.Addr()).
				Msg("Server is ready to accept connections")

			go func() {
				<-svr.Done()
				if serveErr := svr.Err(); serveErr != nil {
					logger.Warn().Err(serveErr).Str("server", name).Msg("Server exited prematurely")
					if shutErr := shutdowner.Shutdown(fx.ExitCode(1)); shutErr != nil {
						logger.Error().Err(shutErr).Str("server", name).Msg("Failed to handle premature server shutdown")
					}
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			if err := svr.Stop(stopCtx); err != nil {
				logger.Error().Err(err).Str("server", name).Msg("Failed to stop server gracefully")
				return err
			}
			logger.Info().Str("server", name).Msg("Server stopped")
			return nil
		},
	})
}
