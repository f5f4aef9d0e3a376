package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/mindset/internal/modules/session"
)

// SessionSweepJob removes sessions that have been idle past the
// configured window. Each swept session's snapshot is removed as well,
// so abandoned browsers cannot resurrect a stale study state.
type SessionSweepJob struct {
	sessions  *session.Manager
	snapshots *session.SnapshotStore
	maxIdle   time.Duration
	log       zerolog.Logger
}

// NewSessionSweepJob creates a new session sweep job
func NewSessionSweepJob(
	sessions *session.Manager,
	snapshots *session.SnapshotStore,
	maxIdle time.Duration,
	log zerolog.Logger,
) *SessionSweepJob {
	return &SessionSweepJob{
		sessions:  sessions,
		snapshots: snapshots,
		maxIdle:   maxIdle,
		log:       log.With().Str("job", "session_sweep").Logger(),
	}
}

// Run executes the sweep
func (j *SessionSweepJob) Run() error {
	before := make(map[string]bool)
	for _, state := range j.sessions.All() {
		before[state.ID] = true
	}

	removed := j.sessions.Sweep(j.maxIdle)
	if removed == 0 {
		return nil
	}

	// Delete snapshots for sessions that no longer exist
	for _, state := range j.sessions.All() {
		delete(before, state.ID)
	}
	for id := range before {
		if j.snapshots == nil {
			continue
		}
		if err := j.snapshots.Delete(id); err != nil {
			j.log.Warn().Err(err).Str("session_id", id).Msg("Failed to delete session snapshot")
		}
	}

	j.log.Info().Int("removed", removed).Msg("Session sweep completed")
	return nil
}

// Name returns the job name for scheduler
func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

// SessionSnapshotJob persists all live sessions to disk so in-progress
// participants survive a process restart.
type SessionSnapshotJob struct {
	sessions  *session.Manager
	snapshots *session.SnapshotStore
	log       zerolog.Logger
}

// NewSessionSnapshotJob creates a new session snapshot job
func NewSessionSnapshotJob(
	sessions *session.Manager,
	snapshots *session.SnapshotStore,
	log zerolog.Logger,
) *SessionSnapshotJob {
	return &SessionSnapshotJob{
		sessions:  sessions,
		snapshots: snapshots,
		log:       log.With().Str("job", "session_snapshot").Logger(),
	}
}

// Run snapshots every live session
func (j *SessionSnapshotJob) Run() error {
	states := j.sessions.All()
	saved := 0
	for _, state := range states {
		if err := j.snapshots.Save(state); err != nil {
			j.log.Warn().Err(err).Str("session_id", state.ID).Msg("Failed to snapshot session")
			continue
		}
		saved++
	}

	if saved > 0 {
		j.log.Debug().Int("saved", saved).Msg("Session snapshots written")
	}
	return nil
}

// Name returns the job name for scheduler
func (j *SessionSnapshotJob) Name() string {
	return "session_snapshot"
}
