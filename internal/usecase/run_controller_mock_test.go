package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunRepository struct {
	mock.Mock
}

func (m *mockRunRepository) Create(ctx context.Context, record syncrun.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRunRepository) Finalize(ctx context.Context, record syncrun.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRunRepository) Get(ctx context.Context, id string) (syncrun.Record, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(syncrun.Record), args.Bool(1), args.Error(2)
}

func (m *mockRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Record, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]syncrun.Record), args.Error(1)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Lock(ctx context.Context, competitionCode string) (func(), error) {
	args := m.Called(ctx, competitionCode)
	unlock, _ := args.Get(0).(func())
	return unlock, args.Error(1)
}

func exclusiveRunSpec() RunSpec {
	spec := testRunSpec()
	spec.Type = syncrun.TypeCompetitionImport
	spec.Exclusive = true
	return spec
}

func TestRunControllerExecute_CreateFailureSkipsBody(t *testing.T) {
	t.Parallel()

	runs := new(mockRunRepository)
	runs.On("Create", mock.Anything, mock.AnythingOfType("syncrun.Record")).Return(errors.New("connection refused"))

	controller := NewRunController(runs, nil, RunControllerConfig{}, logging.NewNop())
	called := false
	_, err := controller.Execute(context.Background(), testRunSpec(), func(context.Context, *Run) error {
		called = true
		return nil
	})

	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got=%v", err)
	}
	assert.False(t, called)
	runs.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
	runs.AssertExpectations(t)
}

func TestRunControllerExecute_LockedCompetitionAborts(t *testing.T) {
	t.Parallel()

	runs := new(mockRunRepository)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.MatchedBy(func(record syncrun.Record) bool {
		return record.Status == syncrun.StatusAborted && record.Counts.UpstreamCalls == 0
	})).Return(nil)

	locker := new(mockLocker)
	locker.On("Lock", mock.Anything, "premier-league").Return(nil, syncrun.ErrCompetitionLocked)

	controller := NewRunController(runs, locker, RunControllerConfig{}, logging.NewNop())
	record, err := controller.Execute(context.Background(), exclusiveRunSpec(), func(context.Context, *Run) error {
		t.Fatalf("body must not run while the competition is locked")
		return nil
	})

	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got=%v", err)
	}
	assert.Equal(t, syncrun.StatusAborted, record.Status)
	runs.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestRunControllerExecute_LockBackendFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	runs := new(mockRunRepository)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	locker := new(mockLocker)
	locker.On("Lock", mock.Anything, "premier-league").Return(nil, errors.New("pool exhausted"))

	controller := NewRunController(runs, locker, RunControllerConfig{}, logging.NewNop())
	_, err := controller.Execute(context.Background(), exclusiveRunSpec(), func(context.Context, *Run) error {
		return nil
	})

	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got=%v", err)
	}
	if errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected lock backend failure not to read as run in progress")
	}
}

func TestRunControllerExecute_ReleasesLock(t *testing.T) {
	t.Parallel()

	runs := new(mockRunRepository)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	released := 0
	locker := new(mockLocker)
	locker.On("Lock", mock.Anything, "premier-league").Return(func() { released++ }, nil).Once()

	controller := NewRunController(runs, locker, RunControllerConfig{}, logging.NewNop())
	record, err := controller.Execute(context.Background(), exclusiveRunSpec(), func(context.Context, *Run) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, syncrun.StatusCompleted, record.Status)
	assert.Equal(t, 1, released)
	locker.AssertExpectations(t)
}
