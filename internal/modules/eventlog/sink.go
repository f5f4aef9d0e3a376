// Package eventlog persists the study's append-only research record:
// participants, interaction events, page visits, and the typed
// demographic/task/feedback records.
//
// Two interchangeable backends satisfy the Sink contract: a SQLite store
// for normal operation and a flat-file JSONL store used when the
// database is unavailable at startup. All writes are fire-and-forget
// from the caller's point of view; a failed write is logged once and
// dropped, never surfaced to the participant.
package eventlog

import "context"

// Sink is the append-only persistence contract for study data.
type Sink interface {
	// CreateParticipant stores a new participant identity and returns
	// its opaque id.
	CreateParticipant(ctx context.Context, meta ClientMeta) (string, error)

	// LogEvent appends one interaction event.
	LogEvent(ctx context.Context, event Event) error

	// StartPageVisit records page entry and returns a visit id for the
	// matching EndPageVisit call.
	StartPageVisit(ctx context.Context, participantID, pageName, taskRef string) (int64, error)

	// EndPageVisit closes a page visit with its duration.
	EndPageVisit(ctx context.Context, visitID int64, durationSeconds float64) error

	SaveDemographics(ctx context.Context, participantID string, record DemographicsRecord) error
	SaveTaskResponse(ctx context.Context, participantID string, record TaskResponseRecord) error
	SavePortfolioEntry(ctx context.Context, participantID string, record PortfolioRecord) error
	SaveConfidenceRisk(ctx context.Context, participantID string, record ConfidenceRiskRecord) error
	SaveFeedback(ctx context.Context, participantID, feedbackText string) error

	// MarkCompleted sets the participant's completion flag.
	MarkCompleted(ctx context.Context, participantID string) error
}
