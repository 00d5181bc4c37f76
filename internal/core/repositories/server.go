package repositories

import (
	"context"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
)

// ServerRepository keeps the latest known status of every server, keyed by address.
// Saving a server with an existing address replaces the stored status
type ServerRepository interface {
	Save(ctx context.Context, svr status.ServerStatus) error
	Get(ctx context.Context, address string) (status.ServerStatus, error)
	// List returns the matching servers, most recently probed first
	List(ctx context.Context, fs filterset.ServerFilterSet) ([]status.ServerStatus, error)
	Count(ctx context.Context) (int, error)
}
