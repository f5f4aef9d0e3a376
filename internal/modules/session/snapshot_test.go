package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	state := &State{
		ID:            "snap-1",
		ParticipantID: "participant-abc",
		Page:          flow.PageTask,
		Balance:       812.50,
		TaskPointer:   5,
		TaskOrder:     []int{2, 14, 7, 1, 9, 3, 11, 5, 13, 4, 8, 6, 12, 10},
		ConsentGiven:  true,
		DemographicsComplete: true,
		Responses: map[int]TaskResponse{
			1: {Investments: []float64{100}, Total: 100},
		},
		Portfolio: []PortfolioEntry{
			{TaskNumber: 1, TaskRef: "2", StockName: "GreenEnergy Co.", Ticker: "GREN", Invested: 100, ReturnPercent: -2.1, FinalValue: 97.9, ProfitLoss: -2.1},
		},
		InfoCostSpent: 15,
		StartedAt:     time.Now().Add(-10 * time.Minute).Truncate(time.Second),
		LastSeen:      time.Now().Truncate(time.Second),
	}

	require.NoError(t, store.Save(state))

	loaded, err := store.Load("snap-1")
	require.NoError(t, err)
	assert.Equal(t, state.ParticipantID, loaded.ParticipantID)
	assert.Equal(t, state.Balance, loaded.Balance)
	assert.Equal(t, state.TaskOrder, loaded.TaskOrder)
	assert.Equal(t, state.Responses, loaded.Responses)
	assert.Equal(t, state.Portfolio, loaded.Portfolio)
	assert.Equal(t, state.InfoCostSpent, loaded.InfoCostSpent)
}

func TestSnapshot_LoadMissing(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

func TestSnapshot_LoadAllSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&State{ID: "good-1", TaskOrder: []int{1, 2, 3}}))
	require.NoError(t, store.Save(&State{ID: "good-2", TaskOrder: []int{3, 2, 1}}))

	// A corrupt snapshot must not prevent the others from restoring
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.msgpack"), []byte("not msgpack at all"), 0644))

	states, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestSnapshot_Delete(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&State{ID: "gone"}))
	require.NoError(t, store.Delete("gone"))

	_, err = store.Load("gone")
	assert.Error(t, err)

	// Deleting twice is fine
	require.NoError(t, store.Delete("gone"))
}
