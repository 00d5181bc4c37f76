package listservers

import (
	"context"
	"errors"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
)

var ErrUnableToObtainServers = errors.New("unable to obtain servers from repository")

type UseCase struct {
	serverRepo repositories.ServerRepository
}

type Request struct {
	minPlayers int
	version    string
}

func New(
	serverRepo repositories.ServerRepository,
) UseCase {
	return UseCase{
		serverRepo: serverRepo,
	}
}

// NewRequest builds a listing request.
// Zero minPlayers and an empty version do not filter anything
func NewRequest(
	minPlayers int,
	version string,
) Request {
	return Request{
		minPlayers: minPlayers,
		version:    version,
	}
}

func (uc *UseCase) Execute(ctx context.Context, req Request) ([]status.ServerStatus, error) {
	fs := filterset.NewServerFilterSet()
	if req.minPlayers > 0 {
		fs = fs.MinPlayers(req.minPlayers)
	}
	if req.version != "" {
		fs = fs.Version(req.version)
	}

	servers, err := uc.serverRepo.List(ctx, fs)
	if err != nil {
		return nil, ErrUnableToObtainServers
	}

	return servers, nil
}
