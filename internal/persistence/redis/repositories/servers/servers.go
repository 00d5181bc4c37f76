package servers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/persistence/redis/redislock"
)

const (
	itemsKey      = "servers:items"
	probesKey     = "servers:probed"
	versionKeyFmt = "servers:version:%s"
	lockKeyFmt    = "servers:lock:%s"
)

type Repository struct {
	client *redis.Client
	locker *redislock.Manager
}

func New(client *redis.Client, locker *redislock.Manager) *Repository {
	return &Repository{
		client: client,
		locker: locker,
	}
}

func (r *Repository) Save(ctx context.Context, svr status.ServerStatus) error {
	return r.updateExclusive(ctx, svr.Address, func(tx *redis.Tx) error {
		return r.save(ctx, tx, svr)
	})
}

func (r *Repository) save(ctx context.Context, tx *redis.Tx, svr status.ServerStatus) error {
	// the server may have changed its version since it was last saved
	prevVersionSlug := ""
	existing, err := r.Get(ctx, svr.Address)
	switch {
	case err == nil:
		prevVersionSlug = status.VersionSlug(existing.VersionName)
	case !errors.Is(err, repositories.ErrServerNotFound):
		return fmt.Errorf("save: %w", err)
	}

	item, err := json.Marshal(svr)
	if err != nil {
		return fmt.Errorf("save: marshal: %w", err)
	}

	versionSlug := status.VersionSlug(svr.VersionName)
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, itemsKey, svr.Address, item)
		pipe.ZAdd(ctx, probesKey, redis.Z{
			Score:  float64(svr.ProbedAt.UnixNano()),
			Member: svr.Address,
		})
		if prevVersionSlug != versionSlug {
			pipe.SRem(ctx, fmt.Sprintf(versionKeyFmt, prevVersionSlug), svr.Address)
		}
		pipe.SAdd(ctx, fmt.Sprintf(versionKeyFmt, versionSlug), svr.Address)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save: redis pipeline: %w", err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, address string) (status.ServerStatus, error) {
	item, err := r.client.HGet(ctx, itemsKey, address).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return status.Blank, repositories.ErrServerNotFound
		}
		return status.Blank, fmt.Errorf("get: %w", err)
	}
	return decodeServer(item)
}

func (r *Repository) List(ctx context.Context, fs filterset.ServerFilterSet) ([]status.ServerStatus, error) {
	keys, err := r.filterServerKeys(ctx, fs)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	servers := make([]status.ServerStatus, 0, len(keys))
	if len(keys) == 0 {
		return servers, nil
	}

	items, err := r.client.HMGet(ctx, itemsKey, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list: get items: %w", err)
	}

	for _, item := range items {
		// the server is gone since the keys were fetched
		if item == nil {
			continue
		}
		svr, err := decodeServer(item)
		if err != nil {
			return nil, fmt.Errorf("list: decode server: %w", err)
		}
		// player count is not indexed
		if fs.Match(svr) {
			servers = append(servers, svr)
		}
	}

	return servers, nil
}

// filterServerKeys returns addresses of the servers, most recently probed first,
// narrowed down by the indexed filters
func (r *Repository) filterServerKeys(ctx context.Context, fs filterset.ServerFilterSet) ([]string, error) {
	var probedCmd *redis.StringSliceCmd
	var versionCmd *redis.StringSliceCmd

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if probedAfter, ok := fs.GetProbedAfter(); ok {
			probedCmd = pipe.ZRevRangeByScore(ctx, probesKey, &redis.ZRangeBy{
				Min: strconv.FormatInt(probedAfter.UnixNano(), 10), // inclusive
				Max: "+inf",
			})
		} else {
			probedCmd = pipe.ZRevRange(ctx, probesKey, 0, -1)
		}
		if versionSlug, ok := fs.GetVersionSlug(); ok {
			versionCmd = pipe.SMembers(ctx, fmt.Sprintf(versionKeyFmt, versionSlug))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}

	keys, err := probedCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("filter keys: probed: %w", err)
	}
	if versionCmd == nil {
		return keys, nil
	}

	versionKeys, err := versionCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("filter keys: version: %w", err)
	}
	withVersion := make(map[string]struct{}, len(versionKeys))
	for _, key := range versionKeys {
		withVersion[key] = struct{}{}
	}

	filtered := make([]string, 0, len(versionKeys))
	for _, key := range keys {
		if _, ok := withVersion[key]; ok {
			filtered = append(filtered, key)
		}
	}
	return filtered, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.client.HLen(ctx, itemsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(count), nil
}

func (r *Repository) updateExclusive(
	ctx context.Context,
	address string,
	op func(tx *redis.Tx) error,
) error {
	if err := r.locker.Guard(ctx, fmt.Sprintf(lockKeyFmt, address), op); err != nil {
		return fmt.Errorf("update %s: %w", address, err)
	}
	return nil
}

func decodeServer(val any) (status.ServerStatus, error) {
	var svr status.ServerStatus
	encoded, ok := val.(string)
	if !ok {
		return status.Blank, fmt.Errorf("unmashal: unexpected type: %T", val)
	}
	if err := json.Unmarshal([]byte(encoded), &svr); err != nil {
		return status.Blank, fmt.Errorf("unmashal: %w", err)
	}
	if svr.Players == nil {
		svr.Players = []status.Player{}
	}
	return svr, nil
}
