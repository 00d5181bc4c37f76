package getserver

import (
	"context"
	"errors"

	"github.com/sergeii/mcscan/internal/core/entities/addr"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
)

var (
	ErrInvalidAddress       = errors.New("invalid server address")
	ErrServerNotFound       = errors.New("server not found")
	ErrUnableToObtainServer = errors.New("unable to obtain server from repository")
)

type UseCase struct {
	serverRepo repositories.ServerRepository
}

func New(
	serverRepo repositories.ServerRepository,
) UseCase {
	return UseCase{
		serverRepo: serverRepo,
	}
}

// Execute looks the server up by the address it was scanned with.
// A bare host is also looked up with the default port appended, and vice versa
func (uc *UseCase) Execute(ctx context.Context, address string) (status.ServerStatus, error) {
	svrAddr, err := addr.Parse(address)
	if err != nil {
		return status.Blank, ErrInvalidAddress
	}

	for _, candidate := range lookupKeys(address, svrAddr) {
		svr, err := uc.serverRepo.Get(ctx, candidate)
		if err != nil {
			if errors.Is(err, repositories.ErrServerNotFound) {
				continue
			}
			return status.Blank, ErrUnableToObtainServer
		}
		return svr, nil
	}

	return status.Blank, ErrServerNotFound
}

func lookupKeys(address string, svrAddr addr.Addr) []string {
	keys := []string{address}
	if canonical := svrAddr.String(); canonical != address {
		keys = append(keys, canonical)
	}
	if svrAddr.Port == addr.DefaultPort && svrAddr.Host != address {
		keys = append(keys, svrAddr.Host)
	}
	return keys
}
