package session

import (
	"testing"
	"time"

	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(14, 1000, zerolog.Nop())
}

func TestStart_NewSession(t *testing.T) {
	m := newTestManager()

	state, created := m.Start("")
	require.True(t, created)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, flow.PageConsent, state.Page)
	assert.Equal(t, 1000.0, state.Balance)
	assert.Equal(t, 1, state.TaskPointer)
	assert.Len(t, state.TaskOrder, 14)
}

func TestStart_Idempotent(t *testing.T) {
	m := newTestManager()

	first, created := m.Start("")
	require.True(t, created)
	first.Balance = 750

	// Starting again with the same id is a no-op returning the existing
	// session unchanged
	second, created := m.Start(first.ID)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 750.0, second.Balance)
}

func TestTaskOrder_IsPermutation(t *testing.T) {
	m := newTestManager()

	// Every generated order must be a permutation of 1..14
	for i := 0; i < 50; i++ {
		state, _ := m.Start("")
		require.Len(t, state.TaskOrder, 14)

		seen := make(map[int]bool)
		for _, id := range state.TaskOrder {
			assert.GreaterOrEqual(t, id, 1)
			assert.LessOrEqual(t, id, 14)
			assert.False(t, seen[id], "duplicate task id %d in order", id)
			seen[id] = true
		}
	}
}

func TestTaskOrder_StableAcrossLookups(t *testing.T) {
	m := newTestManager()
	state, _ := m.Start("")

	state.TaskPointer = 3
	first, ok := state.CurrentTaskRef()
	require.True(t, ok)

	// Intervening submissions on other pointers must not change what
	// display number 3 resolves to
	state.TaskPointer = 5
	state.TaskPointer = 3
	second, ok := state.CurrentTaskRef()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestCurrentTaskRef_OutOfRange(t *testing.T) {
	m := newTestManager()
	state, _ := m.Start("")

	state.TaskPointer = 15
	_, ok := state.CurrentTaskRef()
	assert.False(t, ok)

	state.TaskPointer = 0
	_, ok = state.CurrentTaskRef()
	assert.False(t, ok)
}

func TestClearTaskInfo(t *testing.T) {
	m := newTestManager()
	state, _ := m.Start("")

	state.PurchasedInfo[InfoKey{InfoType: catalog.InfoShowMore, StockIndex: 0}] = true
	state.Pending = &PendingInfoRequest{InfoType: catalog.InfoShowWeek, TaskRef: "3", Cost: 10}

	state.ClearTaskInfo()

	assert.Empty(t, state.PurchasedInfo)
	assert.Nil(t, state.Pending)
	assert.False(t, state.HasPurchased(catalog.InfoShowMore, 0))
}

func TestTutorialDone(t *testing.T) {
	m := newTestManager()
	state, _ := m.Start("")

	state.TutorialDone("tutorial_1", 2)
	assert.False(t, state.TutorialCompleted)

	// Repeating the same round does not complete the tutorial
	state.TutorialDone("tutorial_1", 2)
	assert.False(t, state.TutorialCompleted)

	state.TutorialDone("tutorial_2", 2)
	assert.True(t, state.TutorialCompleted)
}

func TestSweep(t *testing.T) {
	m := newTestManager()

	stale, _ := m.Start("")
	stale.LastSeen = time.Now().Add(-2 * time.Hour)
	fresh, _ := m.Start("")

	removed := m.Sweep(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Count())
}

func TestRestore(t *testing.T) {
	m := newTestManager()

	snapshot := &State{
		ID:          "restored-session",
		Page:        flow.PageTask,
		Balance:     640,
		TaskPointer: 4,
		TaskOrder:   []int{3, 1, 4, 2, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
	}
	require.NoError(t, m.Restore(snapshot))

	got, ok := m.Get("restored-session")
	require.True(t, ok)
	assert.Equal(t, 640.0, got.Balance)

	// A live session is never replaced by a snapshot
	assert.Error(t, m.Restore(snapshot))

	// Task order must match the study size
	assert.Error(t, m.Restore(&State{ID: "short", TaskOrder: []int{1, 2}}))
	assert.Error(t, m.Restore(&State{}))
}
