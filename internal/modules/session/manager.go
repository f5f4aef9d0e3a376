// Package session holds the mutable per-participant progress records and
// the manager that owns them.
//
// A session is created on first contact, keyed by a locally generated
// id, and lives in memory for the duration of the study. Snapshots are
// written to disk so a process restart does not lose in-flight sessions.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager owns all live sessions. Sessions are independent; the lock
// only protects the map itself and per-session single-writer access.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State

	numTasks      int
	initialAmount float64
	logger        zerolog.Logger
}

// NewManager creates a session manager for a study with the given task
// count and starting balance.
func NewManager(numTasks int, initialAmount float64, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:      make(map[string]*State),
		numTasks:      numTasks,
		initialAmount: initialAmount,
		logger:        logger.With().Str("component", "session").Logger(),
	}
}

// Start creates a new session, or returns the existing one unchanged
// when the id is already known. The returned bool reports whether a new
// session was created.
func (m *Manager) Start(id string) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if existing, ok := m.sessions[id]; ok {
			existing.LastSeen = time.Now()
			return existing, false
		}
	}

	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now()
	state := &State{
		ID:            id,
		Page:          flow.PageConsent,
		Balance:       m.initialAmount,
		TaskPointer:   1,
		TaskOrder:     randomTaskOrder(m.numTasks),
		TutorialsSeen: make(map[string]bool),
		Responses:     make(map[int]TaskResponse),
		PurchasedInfo: make(map[InfoKey]bool),
		StartedAt:     now,
		LastSeen:      now,
	}
	m.sessions[id] = state

	m.logger.Info().
		Str("session_id", id).
		Ints("task_order", state.TaskOrder).
		Msg("Session started")

	return state, true
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	return state, ok
}

// Touch updates the last-seen timestamp for a session.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.sessions[id]; ok {
		state.LastSeen = time.Now()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// All returns the live sessions. Callers must treat the states as
// shared; mutation requires the session's own locking discipline.
func (m *Manager) All() []*State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*State, 0, len(m.sessions))
	for _, state := range m.sessions {
		out = append(out, state)
	}
	return out
}

// Sweep removes sessions idle for longer than maxIdle and returns how
// many were removed. Completed sessions are swept on the same schedule.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, state := range m.sessions {
		if state.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info().
			Int("removed", removed).
			Int("remaining", len(m.sessions)).
			Msg("Swept idle sessions")
	}

	return removed
}

// Restore re-registers a session snapshot, typically after a process
// restart. An existing live session with the same id is not replaced.
func (m *Manager) Restore(state *State) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("cannot restore session without an id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[state.ID]; ok {
		return fmt.Errorf("session %s is already live", state.ID)
	}
	if len(state.TaskOrder) != m.numTasks {
		return fmt.Errorf("snapshot task order length %d does not match study size %d", len(state.TaskOrder), m.numTasks)
	}

	// Transient per-task state is not snapshotted; re-initialize it
	state.PurchasedInfo = make(map[InfoKey]bool)
	state.Pending = nil
	if state.TutorialsSeen == nil {
		state.TutorialsSeen = make(map[string]bool)
	}
	if state.Responses == nil {
		state.Responses = make(map[int]TaskResponse)
	}
	state.LastSeen = time.Now()

	m.sessions[state.ID] = state
	return nil
}

// randomTaskOrder generates a uniformly random permutation of 1..n,
// seeded from the operating system's entropy source. The order is fixed
// for the lifetime of the session.
func randomTaskOrder(n int) []int {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// Entropy read failures are effectively impossible on supported
		// platforms; fall back to the clock rather than aborting a session.
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}

	rng := mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
	order := make([]int, n)
	for i, v := range rng.Perm(n) {
		order[i] = v + 1
	}
	return order
}
