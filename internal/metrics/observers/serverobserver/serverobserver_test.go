package serverobserver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
	"github.com/sergeii/mcscan/internal/metrics"
	"github.com/sergeii/mcscan/internal/metrics/observers/serverobserver"
)

type MockServerRepository struct {
	mock.Mock
	repositories.ServerRepository
}

func (m *MockServerRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Get(0).(int), args.Error(1) // nolint: forcetypeassert
}

func (m *MockServerRepository) List(ctx context.Context, fs filterset.ServerFilterSet) ([]status.ServerStatus, error) {
	args := m.Called(ctx, fs)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).([]status.ServerStatus), nil // nolint: forcetypeassert
}

func TestServerObserver_Observe_OK(t *testing.T) {
	ctx := context.TODO()
	logger := zerolog.Nop()
	clock := clockwork.NewFakeClock()

	collector := metrics.New()

	liveServers := []status.ServerStatus{
		{Address: "1.1.1.1", VersionName: "Paper 1.20.4", OnlinePlayers: 0},
		{Address: "2.2.2.2", VersionName: "Paper 1.20.4", OnlinePlayers: 15},
		{Address: "3.3.3.3", VersionName: "1.8.9", OnlinePlayers: 5},
	}

	serverRepo := new(MockServerRepository)
	serverRepo.On("Count", ctx).Return(37, nil)
	serverRepo.On("List", ctx, mock.Anything).Return(liveServers, nil)

	opts := serverobserver.Opts{
		ServerLiveness: time.Hour,
	}
	observer := serverobserver.New(collector, serverRepo, clock, &logger, opts)
	observer.Observe(ctx, collector)

	assert.Equal(t, float64(37), testutil.ToFloat64(collector.ServerRepositorySize))

	assert.Equal(t, float64(15), testutil.ToFloat64(collector.GamePlayers.WithLabelValues("paper-1-20-4")))
	assert.Equal(t, float64(5), testutil.ToFloat64(collector.GamePlayers.WithLabelValues("1-8-9")))

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.GameServers.WithLabelValues("paper-1-20-4")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.GameServers.WithLabelValues("1-8-9")))

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.GamePlayedServers.WithLabelValues("paper-1-20-4")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.GamePlayedServers.WithLabelValues("1-8-9")))

	serverRepo.AssertExpectations(t)
	serverRepo.AssertCalled(
		t,
		"List",
		ctx,
		mock.MatchedBy(func(fs filterset.ServerFilterSet) bool {
			probedAfter, ok := fs.GetProbedAfter()
			return ok && probedAfter.Equal(clock.Now().Add(-time.Hour))
		}),
	)
}

func TestServerObserver_Observe_NoLiveness(t *testing.T) {
	ctx := context.TODO()
	logger := zerolog.Nop()

	collector := metrics.New()

	serverRepo := new(MockServerRepository)
	serverRepo.On("Count", ctx).Return(1, nil)
	serverRepo.On("List", ctx, filterset.NewServerFilterSet()).Return([]status.ServerStatus{
		{Address: "1.1.1.1", VersionName: "Velocity", OnlinePlayers: 3},
	}, nil)

	observer := serverobserver.New(collector, serverRepo, clockwork.NewFakeClock(), &logger, serverobserver.Opts{})
	observer.Observe(ctx, collector)

	assert.Equal(t, float64(3), testutil.ToFloat64(collector.GamePlayers.WithLabelValues("velocity")))
	serverRepo.AssertExpectations(t)
}

func TestServerObserver_Observe_GoneVersionsAreReset(t *testing.T) {
	ctx := context.TODO()
	logger := zerolog.Nop()

	collector := metrics.New()

	serverRepo := new(MockServerRepository)
	serverRepo.On("Count", ctx).Return(1, nil)
	serverRepo.On("List", ctx, mock.Anything).Return([]status.ServerStatus{
		{Address: "1.1.1.1", VersionName: "1.19", OnlinePlayers: 2},
	}, nil).Once()
	serverRepo.On("List", ctx, mock.Anything).Return([]status.ServerStatus{
		{Address: "1.1.1.1", VersionName: "1.20", OnlinePlayers: 4},
	}, nil).Once()

	observer := serverobserver.New(collector, serverRepo, clockwork.NewFakeClock(), &logger, serverobserver.Opts{})
	observer.Observe(ctx, collector)
	assert.Equal(t, 1, testutil.CollectAndCount(collector.GameServers))

	observer.Observe(ctx, collector)
	assert.Equal(t, 1, testutil.CollectAndCount(collector.GameServers))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.GameServers.WithLabelValues("1-20")))
	assert.Equal(t, float64(4), testutil.ToFloat64(collector.GamePlayers.WithLabelValues("1-20")))

	serverRepo.AssertExpectations(t)
}

func TestServerObserver_Observe_RepoFailure(t *testing.T) {
	ctx := context.TODO()
	logger := zerolog.Nop()
	clock := clockwork.NewFakeClock()

	collector := metrics.New()

	serverRepo := new(MockServerRepository)
	serverRepo.On("Count", ctx).Return(0, errors.New("repo error"))
	serverRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("repo error"))

	opts := serverobserver.Opts{
		ServerLiveness: time.Hour,
	}
	observer := serverobserver.New(collector, serverRepo, clock, &logger, opts)
	observer.Observe(ctx, collector)

	assert.Equal(t, float64(0), testutil.ToFloat64(collector.ServerRepositorySize))
	assert.Equal(t, 0, testutil.CollectAndCount(collector.GameServers))
	assert.Equal(t, 0, testutil.CollectAndCount(collector.GamePlayers))
	assert.Equal(t, 0, testutil.CollectAndCount(collector.GamePlayedServers))

	serverRepo.AssertExpectations(t)
}
