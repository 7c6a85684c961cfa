package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/db"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/IAMVanilka/Mnemy/internal/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"game.exe":  "game",
		"Game.EXE":  "game",
		"GAME":      "game",
		"game.":     "game",
		"Launcher":  "launcher",
		"run.exe.":  "run.exe", // only one trailing marker is stripped
		"saves.exe": "saves",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "input %q", in)
	}
}

func TestMatch_CaseAndExtensionInsensitive(t *testing.T) {
	bindings := []Binding{{ExeName: "game"}}

	// A process literally named "GAME" (no extension) must match a
	// binding created from "game.exe".
	procs := []ProcessEntry{
		{PID: 10, Name: "systemd"},
		{PID: 42, Name: "GAME"},
	}

	b, pid, found := match(bindings, procs)
	require.True(t, found)
	assert.Equal(t, "game", b.ExeName)
	assert.Equal(t, int32(42), pid)
}

func TestMatch_NoHit(t *testing.T) {
	bindings := []Binding{{ExeName: "game"}}
	procs := []ProcessEntry{{PID: 1, Name: "init"}}

	_, _, found := match(bindings, procs)
	assert.False(t, found)
}

type recordingSyncer struct {
	mu     sync.Mutex
	synced []string
	err    error
}

func (r *recordingSyncer) Sync(ctx context.Context, name string) (syncer.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, name)
	return syncer.Outcome{Direction: syncer.DirectionUpload}, r.err
}

func (r *recordingSyncer) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.synced...)
}

func newRepo(t *testing.T) *repository.GameRepository {
	t.Helper()

	gdb, err := db.Open(":memory:")
	require.NoError(t, err)

	return repository.NewGameRepositoryWith(gdb)
}

func TestRebuildBindings_SkipsGamesWithoutExecutable(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Add("NoExe", t.TempDir(), "")
	require.NoError(t, err)
	_, err = repo.Add("WithExe", t.TempDir(), "C:/Games/Hades/Hades.exe")
	require.NoError(t, err)

	w := New(repo, &recordingSyncer{}, nil, time.Second, time.Second)

	bindings := w.rebuildBindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, "hades", bindings[0].ExeName)
	assert.Equal(t, "WithExe", bindings[0].Game.Name)
}

func TestWatcher_SyncsAfterProcessExit(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Add("Hades", t.TempDir(), "/games/hades/Hades.exe")
	require.NoError(t, err)

	gs := &recordingSyncer{}
	w := New(repo, gs, nil, 10*time.Millisecond, 10*time.Millisecond)

	var mu sync.Mutex
	running := true

	w.listProcesses = func() ([]ProcessEntry, error) {
		mu.Lock()
		defer mu.Unlock()
		if running {
			return []ProcessEntry{{PID: 777, Name: "HADES"}}, nil
		}
		return nil, nil
	}
	w.pidAlive = func(pid int32) bool {
		mu.Lock()
		defer mu.Unlock()
		return running
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Let the watcher lock onto the fake process, then kill it.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	running = false
	mu.Unlock()

	require.Eventually(t, func() bool {
		return len(gs.names()) >= 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, "Hades", gs.names()[0])

	snap := w.State().Snapshot()
	assert.Equal(t, 1, snap.Synced)
	assert.Zero(t, snap.Failed)
}

func TestWatcher_IterationSurvivesSyncError(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Add("Hades", t.TempDir(), "Hades.exe")
	require.NoError(t, err)

	gs := &recordingSyncer{err: assert.AnError}
	w := New(repo, gs, nil, 10*time.Millisecond, 10*time.Millisecond)

	var mu sync.Mutex
	running := true

	w.listProcesses = func() ([]ProcessEntry, error) {
		mu.Lock()
		defer mu.Unlock()
		if running {
			return []ProcessEntry{{PID: 1, Name: "hades"}}, nil
		}
		return nil, nil
	}
	w.pidAlive = func(pid int32) bool {
		mu.Lock()
		defer mu.Unlock()
		return running
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	running = false
	mu.Unlock()

	require.Eventually(t, func() bool {
		return w.State().Snapshot().Failed >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The loop must keep scanning after a failed sync.
	require.Eventually(t, func() bool {
		phase := w.State().Snapshot().Phase
		return phase == PhaseWaitingForStart || phase == PhaseScanningBindings
	}, 3*time.Second, 20*time.Millisecond)
}
