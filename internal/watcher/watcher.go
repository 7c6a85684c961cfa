package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/IAMVanilka/Mnemy/internal/model"
	"github.com/IAMVanilka/Mnemy/internal/notify"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/IAMVanilka/Mnemy/internal/syncer"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Binding ties a normalized executable name to the game it belongs
// to. The set is rebuilt from the metadata store on every polling
// cycle so newly added games are picked up without a restart.
type Binding struct {
	ExeName string
	Game    model.Game
}

// ProcessEntry is one running process as the watcher sees it.
type ProcessEntry struct {
	PID  int32
	Name string
}

type GameSyncer interface {
	Sync(ctx context.Context, name string) (syncer.Outcome, error)
}

// Watcher is the background loop: it waits for any tracked executable
// to start, locks onto that process, waits for it to exit, then
// triggers a sync for the bound game.
type Watcher struct {
	repo      *repository.GameRepository
	syncer    GameSyncer
	notifier  notify.Notifier
	state     *State
	startPoll time.Duration
	exitPoll  time.Duration

	// injectable for tests
	listProcesses func() ([]ProcessEntry, error)
	pidAlive      func(pid int32) bool
}

func New(repo *repository.GameRepository, gs GameSyncer, notifier notify.Notifier, startPoll, exitPoll time.Duration) *Watcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Watcher{
		repo:          repo,
		syncer:        gs,
		notifier:      notifier,
		state:         NewState(),
		startPoll:     startPoll,
		exitPoll:      exitPoll,
		listProcesses: systemProcesses,
		pidAlive:      pidAlive,
	}
}

func (w *Watcher) State() *State {
	return w.state
}

// NormalizeName strips a .exe suffix or a trailing dot and lowercases,
// so "Game.exe", "GAME" and "game." all compare equal.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".exe") {
		lower = lower[:len(lower)-4]
	} else if strings.HasSuffix(lower, ".") {
		lower = lower[:len(lower)-1]
	}

	return lower
}

// Run loops until ctx is cancelled. Each cycle is isolated: a panic
// or error inside one iteration is logged and the loop carries on
// with the next scan.
func (w *Watcher) Run(ctx context.Context) {
	logger.Log.Info("process watcher started")

	for ctx.Err() == nil {
		w.cycle(ctx)
	}

	logger.Log.Info("process watcher stopped")
}

func (w *Watcher) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("watcher iteration panicked",
				zap.Any("panic", r))
		}
	}()

	w.state.SetPhase(PhaseScanningBindings, "", 0)

	binding, pid, ok := w.waitForStart(ctx)
	if !ok {
		return
	}

	logger.Log.Info("tracked process detected",
		zap.String("game", binding.Game.Name),
		zap.String("exe", binding.ExeName),
		zap.Int32("pid", pid))

	w.state.SetPhase(PhaseWaitingForExit, binding.Game.Name, pid)
	if !w.waitForExit(ctx, binding.ExeName, pid) {
		return
	}

	logger.Log.Info("tracked process exited",
		zap.String("game", binding.Game.Name),
		zap.Int32("pid", pid))

	w.state.SetPhase(PhaseSyncing, binding.Game.Name, 0)
	w.syncAfterExit(ctx, binding.Game)
}

// waitForStart polls the process list until any bound executable
// shows up, returning the binding and the matched PID. False means
// ctx was cancelled.
func (w *Watcher) waitForStart(ctx context.Context) (Binding, int32, bool) {
	ticker := time.NewTicker(w.startPoll)
	defer ticker.Stop()

	for {
		bindings := w.rebuildBindings()
		w.state.SetPhase(PhaseWaitingForStart, "", 0)

		if len(bindings) > 0 {
			procs, err := w.listProcesses()
			if err != nil {
				logger.Log.Warn("failed to list processes", zap.Error(err))
			} else if binding, pid, found := match(bindings, procs); found {
				return binding, pid, true
			}
		}

		logger.Log.Debug("waiting for a tracked process to start",
			zap.Int("bindings", len(bindings)))

		select {
		case <-ctx.Done():
			return Binding{}, 0, false
		case <-ticker.C:
		}
	}
}

// waitForExit waits for the locked-on PID to die. Name-based matching
// only got us the initial detection; from here the PID is the truth,
// so two games sharing an executable name cannot confuse the exit
// check. If the PID probe fails we fall back to a name scan for that
// round.
func (w *Watcher) waitForExit(ctx context.Context, exeName string, pid int32) bool {
	ticker := time.NewTicker(w.exitPoll)
	defer ticker.Stop()

	for {
		if !w.pidAlive(pid) && !w.nameRunning(exeName) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (w *Watcher) nameRunning(exeName string) bool {
	procs, err := w.listProcesses()
	if err != nil {
		return false
	}

	for _, p := range procs {
		if NormalizeName(p.Name) == exeName {
			return true
		}
	}

	return false
}

func (w *Watcher) syncAfterExit(ctx context.Context, game model.Game) {
	_ = w.notifier.Notify("Mnemy",
		fmt.Sprintf("%s finished. Syncing saves...", game.Name))

	_, err := w.syncer.Sync(ctx, game.Name)

	switch {
	case errors.Is(err, syncer.ErrFirstSync):
		// The daemon never picks a first-sync direction for the user.
		logger.Log.Warn("first sync requires a manual decision",
			zap.String("game", game.Name))
		_ = w.notifier.Notify("Mnemy",
			fmt.Sprintf("%s has never been synced. Run 'mnemy sync %s --push' or '--pull'.", game.Name, game.Name))

	case err != nil:
		logger.Log.Error("sync after exit failed",
			zap.String("game", game.Name),
			zap.Error(err))
		w.state.RecordSync(err)
		_ = w.notifier.Notify("Mnemy",
			fmt.Sprintf("Sync for %s failed: %v", game.Name, err))

	default:
		w.state.RecordSync(nil)
		_ = w.notifier.Notify("Mnemy",
			fmt.Sprintf("Sync for %s finished!", game.Name))
	}
}

// rebuildBindings re-reads the metadata store. Games without an
// executable path cannot be watched and are skipped. The repository
// returns games name-sorted, which makes first-match-wins
// deterministic when two games share an executable name.
func (w *Watcher) rebuildBindings() []Binding {
	games, err := w.repo.GetAll()
	if err != nil {
		logger.Log.Warn("failed to load games", zap.Error(err))
		return nil
	}

	bindings := make([]Binding, 0, len(games))
	for _, game := range games {
		if game.GamePath == "" {
			continue
		}

		exe := NormalizeName(filepath.Base(filepath.FromSlash(game.GamePath)))
		bindings = append(bindings, Binding{ExeName: exe, Game: game})
	}

	w.state.SetBindings(len(bindings))
	return bindings
}

func match(bindings []Binding, procs []ProcessEntry) (Binding, int32, bool) {
	for _, b := range bindings {
		for _, p := range procs {
			if NormalizeName(p.Name) == b.ExeName {
				return b, p.PID, true
			}
		}
	}

	return Binding{}, 0, false
}

func systemProcesses() ([]ProcessEntry, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	entries := make([]ProcessEntry, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// Process may have died or be inaccessible; skip it.
			continue
		}

		entries = append(entries, ProcessEntry{PID: p.Pid, Name: name})
	}

	return entries, nil
}

func pidAlive(pid int32) bool {
	alive, err := process.PidExists(pid)
	return err == nil && alive
}
