package upgrade_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/prasastie/munggah/pkg/dblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVersions struct {
	code       upgrade.VersionPair
	codeErr    error
	running    upgrade.VersionPair
	found      bool
	runningErr error
}

func (f *fakeVersions) CodeVersions(_ context.Context) (upgrade.VersionPair, error) {
	return f.code, f.codeErr
}

func (f *fakeVersions) RunningVersions(_ context.Context) (upgrade.VersionPair, bool, error) {
	return f.running, f.found, f.runningErr
}

type fakeLocker struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (f *fakeLocker) Acquire(_ context.Context, _, _ int64) (dblock.ReleaseFunc, error) {
	f.mu.Lock()
	f.acquired++

	return func(_ context.Context) error {
		f.released++
		f.mu.Unlock()
		return nil
	}, nil
}

type fakeStore struct {
	records []upgrade.RecordInput
	err     error
}

func (f *fakeStore) Record(_ context.Context, in upgrade.RecordInput) error {
	if f.err != nil {
		return f.err
	}

	f.records = append(f.records, in)
	return nil
}

// journal records executed step function names in order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) fn(name string, err error) upgrade.StepFunc {
	return upgrade.StepFunc{
		Name: name,
		Run: func(_ context.Context) error {
			j.mu.Lock()
			j.calls = append(j.calls, name)
			j.mu.Unlock()
			return err
		},
	}
}

func catalogSteps(j *journal, failAt string, failErr error) []upgrade.Step {
	ranges := [][2]string{
		{"0.0.1", "0.0.2"},
		{"0.0.2", "0.0.3"},
		{"0.0.3", "0.0.4"},
		{"0.0.4", "0.0.5"},
	}

	steps := make([]upgrade.Step, 0, len(ranges))
	for _, r := range ranges {
		name := "fix_" + r[0] + "_" + r[1]

		var err error
		if name == failAt {
			err = failErr
		}

		steps = append(steps, upgrade.Step{
			From:  r[0],
			To:    r[1],
			Funcs: []upgrade.StepFunc{j.fn(name, err)},
		})
	}

	return steps
}

func newCoordinator(t *testing.T, versions *fakeVersions, store *fakeStore, steps []upgrade.Step) *upgrade.Coordinator {
	t.Helper()

	coord, err := upgrade.New(upgrade.Config{
		Versions: versions,
		Locker:   &fakeLocker{},
		Store:    store,
		Steps:    steps,
	})
	require.NoError(t, err)
	return coord
}

func TestNew(t *testing.T) {
	t.Run("missing collaborators", func(t *testing.T) {
		_, err := upgrade.New(upgrade.Config{})
		assert.Error(t, err)
	})

	t.Run("descending step range", func(t *testing.T) {
		_, err := upgrade.New(upgrade.Config{
			Versions: &fakeVersions{},
			Locker:   &fakeLocker{},
			Store:    &fakeStore{},
			Steps:    []upgrade.Step{{From: "0.0.2", To: "0.0.1"}},
		})
		assert.Error(t, err)
	})

	t.Run("unparseable version", func(t *testing.T) {
		_, err := upgrade.New(upgrade.Config{
			Versions: &fakeVersions{},
			Locker:   &fakeLocker{},
			Store:    &fakeStore{},
			Steps:    []upgrade.Step{{From: "abc", To: "0.0.2"}},
		})
		assert.Error(t, err)
	})
}

func TestRunUpgradeConfigurationError(t *testing.T) {
	versions := &fakeVersions{code: upgrade.VersionPair{ServiceVersion: "1.0.0"}}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, nil)

	_, err := coord.RunUpgrade(context.Background())
	assert.ErrorIs(t, err, upgrade.ErrConfiguration)
	assert.Empty(t, store.records)
}

func TestRunUpgradeNotNeeded(t *testing.T) {
	t.Run("running versions absent", func(t *testing.T) {
		j := &journal{}
		versions := &fakeVersions{
			code:  upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
			found: false,
		}
		store := &fakeStore{}
		coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

		res, err := coord.RunUpgrade(context.Background())
		require.NoError(t, err)
		assert.Equal(t, upgrade.StatusNotNeeded, res.Status)
		assert.Equal(t, 0, res.ExitCode())
		assert.Empty(t, j.calls)
		assert.Empty(t, store.records)
	})

	t.Run("store uninitialized", func(t *testing.T) {
		versions := &fakeVersions{
			code:       upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
			runningErr: upgrade.ErrStoreUninitialized,
		}
		store := &fakeStore{}
		coord := newCoordinator(t, versions, store, nil)

		res, err := coord.RunUpgrade(context.Background())
		require.NoError(t, err)
		assert.Equal(t, upgrade.StatusNotNeeded, res.Status)
		assert.Empty(t, store.records)
	})

	t.Run("versions equal", func(t *testing.T) {
		j := &journal{}
		versions := &fakeVersions{
			code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
			running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
			found:   true,
		}
		store := &fakeStore{}
		coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

		res, err := coord.RunUpgrade(context.Background())
		require.NoError(t, err)
		assert.Equal(t, upgrade.StatusNotNeeded, res.Status)
		assert.Empty(t, j.calls)
		assert.Empty(t, store.records)
	})
}

func TestRunUpgradeDowngradeRejected(t *testing.T) {
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "1.1.0", DBVersion: "0.0.6"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	_, err := coord.RunUpgrade(context.Background())
	assert.ErrorIs(t, err, upgrade.ErrDowngrade)
	assert.Empty(t, j.calls, "no mutation on downgrade")
	assert.Empty(t, store.records)
}

func TestRunUpgradeStepSelection(t *testing.T) {
	// current=(1.0.0,0.0.3), target=(1.0.0,0.0.5): only the last two steps
	// execute, in order, and the persisted db version is 0.0.5.
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.3"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	res, err := coord.RunUpgrade(context.Background())
	require.NoError(t, err)

	assert.Equal(t, upgrade.StatusCompleted, res.Status)
	assert.Equal(t, []string{"fix_0.0.3_0.0.4", "fix_0.0.4_0.0.5"}, j.calls)

	require.Len(t, store.records, 1)
	assert.Equal(t, "0.0.5", store.records[0].DBVersion)
	assert.Equal(t, "1.0.0", store.records[0].ServiceVersion)
}

func TestRunUpgradeFullWalk(t *testing.T) {
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "0.9.0", DBVersion: "0.0.1"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	res, err := coord.RunUpgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, upgrade.StatusCompleted, res.Status)
	assert.Equal(t, []string{
		"fix_0.0.1_0.0.2",
		"fix_0.0.2_0.0.3",
		"fix_0.0.3_0.0.4",
		"fix_0.0.4_0.0.5",
	}, j.calls)
}

func TestRunUpgradePartialFailure(t *testing.T) {
	// a failure at step k stops every later function and keeps the version
	// record untouched
	boom := errors.New("alter table failed")
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.1"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "fix_0.0.2_0.0.3", boom))

	_, err := coord.RunUpgrade(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stepErr *upgrade.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fix_0.0.2_0.0.3", stepErr.Name)
	assert.Equal(t, "0.0.2", stepErr.From)
	assert.Equal(t, "0.0.3", stepErr.To)

	assert.Equal(t, []string{"fix_0.0.1_0.0.2", "fix_0.0.2_0.0.3"}, j.calls)
	assert.Empty(t, store.records, "version record must not advance on failure")
}

func TestRunUpgradeTargetUnreachable(t *testing.T) {
	// step table ends at 0.0.5 but code wants 0.0.7: partial progress made,
	// then the run fails loudly and nothing is recorded as complete
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.7"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.4"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	_, err := coord.RunUpgrade(context.Background())
	assert.ErrorIs(t, err, upgrade.ErrTargetUnreachable)
	assert.Equal(t, []string{"fix_0.0.4_0.0.5"}, j.calls)
	assert.Empty(t, store.records)
}

func TestRunUpgradeIdempotent(t *testing.T) {
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.3"},
		found:   true,
	}
	store := &fakeStore{}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	res, err := coord.RunUpgrade(context.Background())
	require.NoError(t, err)
	require.Equal(t, upgrade.StatusCompleted, res.Status)

	// simulate the persisted record now matching code
	versions.running = versions.code

	for i := 0; i < 3; i++ {
		res, err = coord.RunUpgrade(context.Background())
		require.NoError(t, err)
		assert.Equal(t, upgrade.StatusNotNeeded, res.Status)
	}

	assert.Len(t, store.records, 1, "re-runs perform no writes")
	assert.Len(t, j.calls, 2)
}

func TestRunUpgradeSingleWriter(t *testing.T) {
	// two concurrent invocations never both reach the execute-steps phase,
	// the second blocks until the first fully releases the lock
	var (
		inStep  int32
		overlap bool
		mu      sync.Mutex
	)

	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.2"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.1"},
		found:   true,
	}

	steps := []upgrade.Step{{
		From: "0.0.1",
		To:   "0.0.2",
		Funcs: []upgrade.StepFunc{{
			Name: "slow_fix",
			Run: func(_ context.Context) error {
				mu.Lock()
				inStep++
				if inStep > 1 {
					overlap = true
				}
				mu.Unlock()

				time.Sleep(50 * time.Millisecond)

				mu.Lock()
				inStep--
				mu.Unlock()
				return nil
			},
		}},
	}}

	locker := &fakeLocker{}
	coord, err := upgrade.New(upgrade.Config{
		Versions: versions,
		Locker:   locker,
		Store:    &fakeStore{},
		Steps:    steps,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = coord.RunUpgrade(context.Background())
		}()
	}
	wg.Wait()

	assert.False(t, overlap, "step execution overlapped across two runs")
	assert.Equal(t, 2, locker.acquired)
	assert.Equal(t, 2, locker.released, "lock released on all exit paths")
}

func TestRunUpgradeRecordWriteFailure(t *testing.T) {
	j := &journal{}
	versions := &fakeVersions{
		code:    upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.5"},
		running: upgrade.VersionPair{ServiceVersion: "1.0.0", DBVersion: "0.0.4"},
		found:   true,
	}
	store := &fakeStore{err: errors.New("connection reset")}
	coord := newCoordinator(t, versions, store, catalogSteps(j, "", nil))

	_, err := coord.RunUpgrade(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "version record write failed")
}
