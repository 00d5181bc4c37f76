package scanservers

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/prober/scanner"
	"github.com/sergeii/mcscan/internal/scanfile"
)

type Scanner interface {
	Scan(context.Context, []target.Target) scanner.Report
}

type Request struct {
	Path    string
	Scanner Scanner
}

func NewRequest(path string, scanner Scanner) Request {
	return Request{
		Path:    path,
		Scanner: scanner,
	}
}

type Response struct {
	Report scanner.Report
	// Stored is the number of servers saved to the repository
	Stored      int
	StoreErrors int
}

type UseCase struct {
	serverRepo repositories.ServerRepository
	validate   *validator.Validate
	metrics    *metrics.Collector
	logger     *zerolog.Logger
}

func New(
	serverRepo repositories.ServerRepository,
	validate *validator.Validate,
	metrics *metrics.Collector,
	logger *zerolog.Logger,
) UseCase {
	return UseCase{
		serverRepo: serverRepo,
		validate:   validate,
		metrics:    metrics,
		logger:     logger,
	}
}

// Execute loads the targets, scans them and stores the reachable servers.
// Only a failure to load the targets is returned as an error
func (uc UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	targets, err := scanfile.LoadFile(req.Path, uc.validate)
	if err != nil {
		uc.logger.Error().Err(err).Str("path", req.Path).Msg("Failed to load scan targets")
		return Response{}, fmt.Errorf("scan servers: %w", err)
	}
	uc.logger.Info().Str("path", req.Path).Int("targets", len(targets)).Msg("Loaded scan targets")

	report := req.Scanner.Scan(ctx, targets)
	resp := Response{Report: report}

	// the results are kept even if the scan was interrupted
	storeCtx := context.WithoutCancel(ctx)
	for _, svr := range report.Servers {
		if err := uc.serverRepo.Save(storeCtx, svr); err != nil {
			resp.StoreErrors++
			uc.metrics.RepositoryErrors.WithLabelValues("save").Inc()
			uc.logger.Error().Err(err).Stringer("server", svr).Msg("Failed to store server")
			continue
		}
		resp.Stored++
	}

	uc.logger.Info().
		Int("stored", resp.Stored).Int("errors", resp.StoreErrors).
		Msg("Stored scanned servers")

	return resp, nil
}
