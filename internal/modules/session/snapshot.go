package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotStore persists session state to disk so in-flight sessions
// survive a process restart. One file per session, msgpack-encoded.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the snapshot directory if needed.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

// Save writes one session snapshot, replacing any previous one. The
// write goes through a temp file and rename so a crash mid-write never
// leaves a truncated snapshot.
func (s *SnapshotStore) Save(state *State) error {
	data, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	final := s.path(state.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to finalize session snapshot: %w", err)
	}

	return nil
}

// Load reads one session snapshot by id.
func (s *SnapshotStore) Load(id string) (*State, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session snapshot: %w", err)
	}

	var state State
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
	}

	return &state, nil
}

// LoadAll reads every snapshot in the directory. Corrupt snapshots are
// skipped, not fatal; the remaining sessions still restore.
func (s *SnapshotStore) LoadAll() ([]*State, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory: %w", err)
	}

	var states []*State
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".msgpack") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".msgpack")
		state, err := s.Load(id)
		if err != nil {
			continue
		}
		states = append(states, state)
	}

	return states, nil
}

// Delete removes one session snapshot. Missing files are not an error.
func (s *SnapshotStore) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) path(id string) string {
	return filepath.Join(s.dir, id+".msgpack")
}
