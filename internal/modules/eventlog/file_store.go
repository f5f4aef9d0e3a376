package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ Sink = (*FileStore)(nil)

// FileStore is the flat-file Sink backend, used when the study database
// is unavailable at startup. Each participant gets one JSON-lines file
// per record kind, so partial data is still usable for analysis and a
// crashed write corrupts at most one line.
type FileStore struct {
	dir string
	log zerolog.Logger

	mu      sync.Mutex
	visitID int64
	visits  map[int64]visitStart
}

type visitStart struct {
	participantID string
	pageName      string
	enteredAt     time.Time
}

// NewFileStore creates a file-backed event sink rooted at dir.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		log:    log.With().Str("repo", "eventlog_file").Logger(),
		visits: make(map[int64]visitStart),
	}, nil
}

// appendRecord writes one JSON line to participant_<id>_<kind>.jsonl.
func (s *FileStore) appendRecord(participantID, kind string, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", kind, err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("participant_%s_%s.jsonl", participantID, kind))

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s log file: %w", kind, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append %s record: %w", kind, err)
	}

	return nil
}

// stamped wraps a record with its write timestamp.
type stamped struct {
	Timestamp time.Time   `json:"timestamp"`
	Record    interface{} `json:"record"`
}

// CreateParticipant generates a participant id and records the identity.
func (s *FileStore) CreateParticipant(ctx context.Context, meta ClientMeta) (string, error) {
	id := uuid.New().String()

	record := Participant{
		ID:        id,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := s.appendRecord(id, "participant", record); err != nil {
		return "", err
	}

	s.log.Info().Str("participant_id", id).Msg("Participant created (file store)")
	return id, nil
}

// LogEvent appends one interaction event.
func (s *FileStore) LogEvent(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.appendRecord(event.ParticipantID, "events", event)
}

// StartPageVisit records page entry. Visit ids are process-local; the
// matching end record carries the page name and duration.
func (s *FileStore) StartPageVisit(ctx context.Context, participantID, pageName, taskRef string) (int64, error) {
	s.mu.Lock()
	s.visitID++
	id := s.visitID
	s.visits[id] = visitStart{participantID: participantID, pageName: pageName, enteredAt: time.Now()}
	s.mu.Unlock()

	record := map[string]interface{}{
		"visit_id":  id,
		"page_name": pageName,
		"task_id":   taskRef,
		"action":    "enter",
	}
	if err := s.appendRecord(participantID, "page_visits", stamped{Timestamp: time.Now(), Record: record}); err != nil {
		return 0, err
	}
	return id, nil
}

// EndPageVisit closes a page visit with its duration.
func (s *FileStore) EndPageVisit(ctx context.Context, visitID int64, durationSeconds float64) error {
	s.mu.Lock()
	start, ok := s.visits[visitID]
	delete(s.visits, visitID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown page visit id: %d", visitID)
	}

	record := map[string]interface{}{
		"visit_id":         visitID,
		"page_name":        start.pageName,
		"action":           "exit",
		"duration_seconds": durationSeconds,
	}
	return s.appendRecord(start.participantID, "page_visits", stamped{Timestamp: time.Now(), Record: record})
}

// SaveDemographics records the demographics form.
func (s *FileStore) SaveDemographics(ctx context.Context, participantID string, record DemographicsRecord) error {
	return s.appendRecord(participantID, "demographics", stamped{Timestamp: time.Now(), Record: record})
}

// SaveTaskResponse records one task's investment decision.
func (s *FileStore) SaveTaskResponse(ctx context.Context, participantID string, record TaskResponseRecord) error {
	return s.appendRecord(participantID, "task_responses", stamped{Timestamp: time.Now(), Record: record})
}

// SavePortfolioEntry records one settled investment outcome.
func (s *FileStore) SavePortfolioEntry(ctx context.Context, participantID string, record PortfolioRecord) error {
	return s.appendRecord(participantID, "portfolio", stamped{Timestamp: time.Now(), Record: record})
}

// SaveConfidenceRisk records one checkpoint self-report.
func (s *FileStore) SaveConfidenceRisk(ctx context.Context, participantID string, record ConfidenceRiskRecord) error {
	return s.appendRecord(participantID, "confidence_risk", stamped{Timestamp: time.Now(), Record: record})
}

// SaveFeedback records the free-text feedback.
func (s *FileStore) SaveFeedback(ctx context.Context, participantID, feedbackText string) error {
	record := map[string]string{"feedback_text": feedbackText}
	return s.appendRecord(participantID, "feedback", stamped{Timestamp: time.Now(), Record: record})
}

// MarkCompleted records the completion flag.
func (s *FileStore) MarkCompleted(ctx context.Context, participantID string) error {
	record := map[string]interface{}{"completed": true}
	if err := s.appendRecord(participantID, "completion", stamped{Timestamp: time.Now(), Record: record}); err != nil {
		return err
	}

	s.log.Info().Str("participant_id", participantID).Msg("Participant completed (file store)")
	return nil
}
