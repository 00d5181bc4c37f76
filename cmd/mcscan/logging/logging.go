package logging

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx/fxevent"

	"github.com/sergeii/mcscan/pkg/logutils"
)

var (
	ErrInvalidLogOutput = errors.New("logging: unknown output format")
	ErrInvalidLogLevel  = errors.New("logging: unknown level")
)

type Config struct {
	LogOutput string
	LogLevel  string
}

// newWriter picks the log destination.
// stdout is reserved for scan reports unless asked for explicitly.
func newWriter(output string) (io.Writer, error) {
	switch output {
	case "console", "":
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, nil
	case "stdout":
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339, NoColor: true}, nil
	case "stderr":
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}, nil
	case "json":
		return os.Stderr, nil
	default:
		return nil, ErrInvalidLogOutput
	}
}

func Provide(cfg Config) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, ErrInvalidLogLevel
	}

	output, err := newWriter(cfg.LogOutput)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	zerolog.DurationFieldUnit = time.Second
	zerolog.CallerMarshalFunc = logutils.ShortCallerFormatter
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(output).With().Timestamp().Caller().Logger()
	return &logger, nil
}

func NoGlobal() {
	log.Logger = zerolog.Nop()
}

type fxLogger struct {
	logger *zerolog.Logger
}

// FxLogger reports dependency graph failures as errors
// and the lifecycle progress at debug level.
func FxLogger(logger *zerolog.Logger) fxevent.Logger {
	return &fxLogger{logger: logger}
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("constructor", e.ConstructorName).Msg("Failed to provide dependency")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("function", e.FunctionName).Msg("Failed to invoke function")
		}
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("Start hook failed")
		} else {
			l.logger.Debug().Str("callee", e.FunctionName).Dur("runtime", e.Runtime).Msg("Start hook executed")
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("Stop hook failed")
		} else {
			l.logger.Debug().Str("callee", e.FunctionName).Dur("runtime", e.Runtime).Msg("Stop hook executed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("Application failed to start")
		} else {
			l.logger.Debug().Msg("Application started")
		}
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("Application failed to stop cleanly")
		}
	}
}
