package servers

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
)

type Repository struct {
	servers map[string]status.ServerStatus // address -> latest status
	mutex   sync.RWMutex
}

func New() *Repository {
	return &Repository{
		servers: make(map[string]status.ServerStatus),
	}
}

func (mr *Repository) Save(_ context.Context, svr status.ServerStatus) error {
	mr.mutex.Lock()
	defer mr.mutex.Unlock()
	mr.servers[svr.Address] = clone(svr)
	return nil
}

func (mr *Repository) Get(_ context.Context, address string) (status.ServerStatus, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()
	svr, ok := mr.servers[address]
	if !ok {
		return status.Blank, repositories.ErrServerNotFound
	}
	return clone(svr), nil
}

func (mr *Repository) List(_ context.Context, fs filterset.ServerFilterSet) ([]status.ServerStatus, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	filtered := make([]status.ServerStatus, 0, len(mr.servers))
	for _, svr := range mr.servers {
		if fs.Match(svr) {
			filtered = append(filtered, clone(svr))
		}
	}

	slices.SortFunc(filtered, func(a, b status.ServerStatus) int {
		if c := b.ProbedAt.Compare(a.ProbedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Address, b.Address)
	})

	return filtered, nil
}

func (mr *Repository) Count(context.Context) (int, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()
	return len(mr.servers), nil
}

// clone detaches the stored status from the caller's copy of the players slice
func clone(svr status.ServerStatus) status.ServerStatus {
	svr.Players = slices.Clone(svr.Players)
	if svr.Players == nil {
		svr.Players = []status.Player{}
	}
	return svr
}
