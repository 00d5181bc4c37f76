package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sergeii/mcscan/internal/core/repositories"
	memservers "github.com/sergeii/mcscan/internal/persistence/memory/servers"
	"github.com/sergeii/mcscan/internal/persistence/redis/redislock"
	redisservers "github.com/sergeii/mcscan/internal/persistence/redis/repositories/servers"
	"github.com/sergeii/mcscan/internal/persistence/sqlite"
	sqliteservers "github.com/sergeii/mcscan/internal/persistence/sqlite/repositories/servers"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

var ErrUnknownStorage = errors.New("unknown storage backend")

type Config struct {
	Storage    string
	RedisURL   string
	SQLitePath string
}

// Persistence holds the repositories of the configured storage backend
// along with whatever needs to be released once they are no longer used
type Persistence struct {
	Servers repositories.ServerRepository
	closer  func() error
}

func (p Persistence) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

func New(ctx context.Context, cfg Config, clock clockwork.Clock, logger *zerolog.Logger) (Persistence, error) {
	switch cfg.Storage {
	case StorageMemory, "":
		return Persistence{Servers: memservers.New()}, nil
	case StorageRedis:
		return newRedis(ctx, cfg.RedisURL, clock, logger)
	case StorageSQLite:
		return newSQLite(ctx, cfg.SQLitePath)
	default:
		return Persistence{}, fmt.Errorf("%w: %s", ErrUnknownStorage, cfg.Storage)
	}
}

func newRedis(ctx context.Context, url string, clock clockwork.Clock, logger *zerolog.Logger) (Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return Persistence{}, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close() // nolint: errcheck
		return Persistence{}, fmt.Errorf("unable to connect to redis: %w", err)
	}
	locker := redislock.NewManager(client, clock, logger)
	return Persistence{
		Servers: redisservers.New(client, locker),
		closer:  client.Close,
	}, nil
}

func newSQLite(ctx context.Context, path string) (Persistence, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return Persistence{}, err
	}
	return Persistence{
		Servers: sqliteservers.New(db),
		closer:  db.Close,
	}, nil
}
