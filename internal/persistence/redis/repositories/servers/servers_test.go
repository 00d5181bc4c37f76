package servers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/persistence/redis/redislock"
	"github.com/sergeii/mcscan/internal/persistence/redis/repositories/servers"
	tu "github.com/sergeii/mcscan/internal/testutils"
	"github.com/sergeii/mcscan/internal/testutils/testredis"
)

var then = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) // nolint: gochecknoglobals

type probed struct {
	Addr string
	Time float64
}

type storageState struct {
	Probes   []probed
	Versions map[string][]string
	Items    map[string]status.ServerStatus
}

func collectStorageState(ctx context.Context, rdb *redis.Client) storageState {
	zProbedMembers := tu.Must(rdb.ZRangeWithScores(ctx, "servers:probed", 0, -1).Result())
	probes := make([]probed, 0, len(zProbedMembers))
	for _, m := range zProbedMembers {
		probes = append(probes, probed{Addr: m.Member.(string), Time: m.Score}) // nolint:forcetypeassert
	}

	versions := make(map[string][]string)
	versionKeys := tu.Must(rdb.Keys(ctx, "servers:version:*").Result())
	for _, k := range versionKeys {
		members := tu.Must(rdb.SMembers(ctx, k).Result())
		if len(members) > 0 {
			versions[k] = members
		}
	}

	hItems := tu.Must(rdb.HGetAll(ctx, "servers:items").Result())
	items := make(map[string]status.ServerStatus)
	for k, v := range hItems {
		var item status.ServerStatus
		tu.MustNoErr(json.Unmarshal([]byte(v), &item))
		items[k] = item
	}

	return storageState{
		Probes:   probes,
		Versions: versions,
		Items:    items,
	}
}

type testState struct {
	Redis *redis.Client
	Repo  *servers.Repository
}

func setup(t *testing.T) testState {
	rdb := testredis.MakeClient(t)
	logger := zerolog.Nop()
	locker := redislock.NewManager(rdb, clockwork.NewRealClock(), &logger)
	repo := servers.New(rdb, locker)
	return testState{Redis: rdb, Repo: repo}
}

func buildServer(address string, version string, online int, probedAt time.Time) status.ServerStatus {
	return status.ServerStatus{
		Address:       address,
		VersionName:   version,
		Protocol:      767,
		MOTD:          "A Minecraft Server",
		MaxPlayers:    20,
		OnlinePlayers: online,
		Players:       []status.Player{},
		DiscoveredAt:  "1727784000",
		ProbedAt:      probedAt,
	}
}

func TestServersRedisRepo_SaveGet_OK(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	svr := buildServer("1.1.1.1:25565", "Paper 1.20.4", 1, then)
	svr.Players = []status.Player{{Username: "Notch", ID: uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")}}
	require.NoError(t, ts.Repo.Save(ctx, svr))

	got, err := ts.Repo.Get(ctx, "1.1.1.1:25565")
	require.NoError(t, err)
	assert.Equal(t, svr, got)

	state := collectStorageState(ctx, ts.Redis)
	assert.Equal(t, []probed{{Addr: "1.1.1.1:25565", Time: float64(then.UnixNano())}}, state.Probes)
	assert.Equal(t, map[string][]string{"servers:version:paper-1-20-4": {"1.1.1.1:25565"}}, state.Versions)
	assert.Len(t, state.Items, 1)

	// the lock is released
	err = ts.Redis.Get(ctx, "servers:lock:1.1.1.1:25565").Err()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestServersRedisRepo_Save_Replaces(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	require.NoError(t, ts.Repo.Save(ctx, buildServer("1.1.1.1:25565", "Paper 1.20.4", 1, then)))
	require.NoError(t, ts.Repo.Save(ctx, buildServer("2.2.2.2:25565", "Paper 1.20.4", 1, then)))
	require.NoError(t, ts.Repo.Save(ctx, buildServer("1.1.1.1:25565", "1.21.1", 5, then.Add(time.Hour))))

	got, err := ts.Repo.Get(ctx, "1.1.1.1:25565")
	require.NoError(t, err)
	assert.Equal(t, "1.21.1", got.VersionName)
	assert.Equal(t, 5, got.OnlinePlayers)

	state := collectStorageState(ctx, ts.Redis)
	assert.Equal(t, map[string][]string{
		"servers:version:paper-1-20-4": {"2.2.2.2:25565"},
		"servers:version:1-21-1":       {"1.1.1.1:25565"},
	}, state.Versions)
	assert.Equal(t, []probed{
		{Addr: "2.2.2.2:25565", Time: float64(then.UnixNano())},
		{Addr: "1.1.1.1:25565", Time: float64(then.Add(time.Hour).UnixNano())},
	}, state.Probes)

	count, err := ts.Repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServersRedisRepo_Get_NotFound(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	require.NoError(t, ts.Repo.Save(ctx, buildServer("1.1.1.1:25565", "1.21.1", 1, then)))

	_, err := ts.Repo.Get(ctx, "1.1.1.1:25566")
	assert.ErrorIs(t, err, repositories.ErrServerNotFound)
}

func TestServersRedisRepo_Get_Corrupted(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	tu.MustNoErr(ts.Redis.HSet(ctx, "servers:items", "1.1.1.1:25565", "{invalid").Err())

	_, err := ts.Repo.Get(ctx, "1.1.1.1:25565")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrServerNotFound)
}

func TestServersRedisRepo_List(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	require.NoError(t, ts.Repo.Save(ctx, buildServer("1.1.1.1:25565", "Paper 1.20.4", 0, then)))
	require.NoError(t, ts.Repo.Save(ctx, buildServer("2.2.2.2:25565", "1.21.1", 10, then.Add(time.Minute))))
	require.NoError(t, ts.Repo.Save(ctx, buildServer("3.3.3.3:25565", "Paper 1.20.4", 3, then.Add(time.Hour))))
	require.NoError(t, ts.Repo.Save(ctx, buildServer("4.4.4.4:25565", "1.21.1", 3, then.Add(time.Second))))

	tests := []struct {
		name string
		fs   filterset.ServerFilterSet
		want []string
	}{
		{
			"no filters",
			filterset.NewServerFilterSet(),
			[]string{"3.3.3.3:25565", "2.2.2.2:25565", "4.4.4.4:25565", "1.1.1.1:25565"},
		},
		{
			"min players",
			filterset.NewServerFilterSet().MinPlayers(3),
			[]string{"3.3.3.3:25565", "2.2.2.2:25565", "4.4.4.4:25565"},
		},
		{
			"version",
			filterset.NewServerFilterSet().Version("Paper 1.20.4"),
			[]string{"3.3.3.3:25565", "1.1.1.1:25565"},
		},
		{
			"unknown version",
			filterset.NewServerFilterSet().Version("1.8.9"),
			[]string{},
		},
		{
			"probed after",
			filterset.NewServerFilterSet().ProbedAfter(then.Add(time.Minute)),
			[]string{"3.3.3.3:25565", "2.2.2.2:25565"},
		},
		{
			"combined",
			filterset.NewServerFilterSet().Version("1.21.1").MinPlayers(5),
			[]string{"2.2.2.2:25565"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ts.Repo.List(ctx, tt.fs)
			require.NoError(t, err)
			addrs := make([]string, 0, len(items))
			for _, item := range items {
				addrs = append(addrs, item.Address)
			}
			assert.Equal(t, tt.want, addrs)
		})
	}
}

func TestServersRedisRepo_List_Empty(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	items, err := ts.Repo.List(ctx, filterset.NewServerFilterSet())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestServersRedisRepo_Save_Concurrent(t *testing.T) {
	ctx := context.TODO()
	ts := setup(t)

	wg := &sync.WaitGroup{}
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			address := fmt.Sprintf("10.0.0.%d:25565", i%5)
			errs <- ts.Repo.Save(ctx, buildServer(address, "1.21.1", i, then.Add(time.Duration(i)*time.Second)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := ts.Repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	state := collectStorageState(ctx, ts.Redis)
	assert.Len(t, state.Versions["servers:version:1-21-1"], 5)
}

func TestServersRedisRepo_Save_LockedByOther(t *testing.T) {
	ctx := context.TODO()
	rdb := testredis.MakeClient(t)
	logger := zerolog.Nop()
	repo := servers.New(rdb, redislock.NewManager(rdb, clockwork.NewRealClock(), &logger, redislock.WithRetries(3, time.Millisecond)))

	// another writer holds the server's lock
	require.NoError(t, rdb.Set(ctx, "servers:lock:1.1.1.1:25565", "other", time.Minute).Err())

	err := repo.Save(ctx, buildServer("1.1.1.1:25565", "Paper 1.20.4", 1, then))
	require.ErrorIs(t, err, redislock.ErrNotAcquired)

	_, err = repo.Get(ctx, "1.1.1.1:25565")
	assert.ErrorIs(t, err, repositories.ErrServerNotFound)

	// other servers are not affected
	require.NoError(t, repo.Save(ctx, buildServer("2.2.2.2:25565", "Paper 1.20.4", 1, then)))
	assert.Equal(t, "other", rdb.Get(ctx, "servers:lock:1.1.1.1:25565").Val())
}
