package watcher

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseScanningBindings Phase = "SCANNING_BINDINGS"
	PhaseWaitingForStart  Phase = "WAITING_FOR_START"
	PhaseWaitingForExit   Phase = "WAITING_FOR_EXIT"
	PhaseSyncing          Phase = "SYNCING"
)

// State is the watcher's mutable status, safe for concurrent reads
// from the control API.
type State struct {
	mu        sync.RWMutex
	phase     Phase
	game      string
	pid       int32
	bindings  int
	synced    int
	failed    int
	lastSync  *time.Time
	lastError string
	startedAt time.Time
}

type Snapshot struct {
	Phase     Phase      `json:"phase"`
	Game      string     `json:"game,omitempty"`
	PID       int32      `json:"pid,omitempty"`
	Bindings  int        `json:"bindings"`
	Synced    int        `json:"synced"`
	Failed    int        `json:"failed"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
}

func NewState() *State {
	return &State{
		phase:     PhaseScanningBindings,
		startedAt: time.Now(),
	}
}

func (s *State) SetPhase(phase Phase, game string, pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.game = game
	s.pid = pid
}

func (s *State) SetBindings(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = n
}

func (s *State) RecordSync(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.failed++
		s.lastError = err.Error()
		return
	}

	now := time.Now()
	s.synced++
	s.lastSync = &now
	s.lastError = ""
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Phase:     s.phase,
		Game:      s.game,
		PID:       s.pid,
		Bindings:  s.bindings,
		Synced:    s.synced,
		Failed:    s.failed,
		LastSync:  s.lastSync,
		LastError: s.lastError,
		StartedAt: s.startedAt,
	}
}
