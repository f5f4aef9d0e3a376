package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/mindset/internal/database"
)

var _ Sink = (*SQLiteStore)(nil)

// SQLiteStore is the durable Sink backend.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteStore creates a SQLite-backed event sink.
func NewSQLiteStore(db *sql.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		log: log.With().Str("repo", "eventlog").Logger(),
	}
}

// Init applies the study schema. Idempotent; the multi-statement schema
// is applied all-or-nothing.
func (s *SQLiteStore) Init() error {
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(Schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to apply study schema: %w", err)
	}
	return nil
}

// CreateParticipant stores a new participant identity and returns its id.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, meta ClientMeta) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO participants (id, session_id, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		nullString(meta.SessionID),
		nullString(meta.IPAddress),
		nullString(meta.UserAgent),
		time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create participant: %w", err)
	}

	s.log.Info().Str("participant_id", id).Msg("Participant created")
	return id, nil
}

// LogEvent appends one interaction event.
func (s *SQLiteStore) LogEvent(ctx context.Context, event Event) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var metadata interface{}
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode event metadata: %w", err)
		}
		metadata = string(data)
	}

	query := `
		INSERT INTO events (
			participant_id, timestamp, event_type, event_category, page_name,
			task_id, element_id, element_type, action,
			old_value, new_value, stock_ticker, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ParticipantID,
		ts.UnixMilli(),
		event.Type,
		event.Category,
		nullString(event.PageName),
		nullString(event.TaskRef),
		nullString(event.ElementID),
		nullString(event.ElementType),
		nullString(event.Action),
		nullString(event.OldValue),
		nullString(event.NewValue),
		nullString(event.StockTicker),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}

	return nil
}

// StartPageVisit records page entry and returns the visit id.
func (s *SQLiteStore) StartPageVisit(ctx context.Context, participantID, pageName, taskRef string) (int64, error) {
	query := `
		INSERT INTO page_visits (participant_id, page_name, task_id, entered_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		participantID,
		pageName,
		nullString(taskRef),
		time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start page visit: %w", err)
	}

	visitID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get page visit id: %w", err)
	}
	return visitID, nil
}

// EndPageVisit closes a page visit with its duration.
func (s *SQLiteStore) EndPageVisit(ctx context.Context, visitID int64, durationSeconds float64) error {
	query := `
		UPDATE page_visits SET exited_at = ?, duration_seconds = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query, time.Now().Unix(), durationSeconds, visitID)
	if err != nil {
		return fmt.Errorf("failed to end page visit: %w", err)
	}
	return nil
}

// SaveDemographics stores the demographics form.
func (s *SQLiteStore) SaveDemographics(ctx context.Context, participantID string, record DemographicsRecord) error {
	query := `
		INSERT INTO demographics (participant_id, age, gender, education, experience, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		participantID,
		record.Age,
		record.Gender,
		record.Education,
		record.Experience,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save demographics: %w", err)
	}
	return nil
}

// SaveTaskResponse stores one task's investment decision.
func (s *SQLiteStore) SaveTaskResponse(ctx context.Context, participantID string, record TaskResponseRecord) error {
	query := `
		INSERT INTO task_responses (
			participant_id, task_number, task_ref, ticker, stock_name,
			investment, total_investment, remaining_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		participantID,
		record.TaskNumber,
		record.TaskRef,
		nullString(record.Ticker),
		nullString(record.StockName),
		record.Investment,
		record.TotalInvestment,
		record.RemainingAmount,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save task response: %w", err)
	}
	return nil
}

// SavePortfolioEntry stores one settled investment outcome.
func (s *SQLiteStore) SavePortfolioEntry(ctx context.Context, participantID string, record PortfolioRecord) error {
	query := `
		INSERT INTO portfolio (
			participant_id, task_number, task_ref, stock_name, ticker,
			invested, return_percent, final_value, profit_loss, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		participantID,
		record.TaskNumber,
		record.TaskRef,
		record.StockName,
		record.Ticker,
		record.Invested,
		record.ReturnPercent,
		record.FinalValue,
		record.ProfitLoss,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save portfolio entry: %w", err)
	}
	return nil
}

// SaveConfidenceRisk stores one checkpoint self-report.
func (s *SQLiteStore) SaveConfidenceRisk(ctx context.Context, participantID string, record ConfidenceRiskRecord) error {
	query := `
		INSERT INTO confidence_risk (participant_id, confidence_rating, risk_rating, completed_after_task, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		participantID,
		record.ConfidenceRating,
		record.RiskRating,
		record.CompletedAfterTask,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save confidence/risk ratings: %w", err)
	}
	return nil
}

// SaveFeedback stores the free-text feedback.
func (s *SQLiteStore) SaveFeedback(ctx context.Context, participantID, feedbackText string) error {
	query := `
		INSERT INTO feedback (participant_id, feedback_text, created_at)
		VALUES (?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		participantID,
		nullString(feedbackText),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// MarkCompleted sets the participant's completion flag.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, participantID string) error {
	query := `
		UPDATE participants SET completed = 1, completed_at = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query, time.Now().Unix(), participantID)
	if err != nil {
		return fmt.Errorf("failed to mark participant completed: %w", err)
	}

	s.log.Info().Str("participant_id", participantID).Msg("Participant completed")
	return nil
}

// ParticipantEvents returns every event for one participant in
// timestamp order.
func (s *SQLiteStore) ParticipantEvents(ctx context.Context, participantID string) ([]Event, error) {
	query := `
		SELECT participant_id, timestamp, event_type, event_category,
		       page_name, task_id, element_id, element_type, action,
		       old_value, new_value, stock_ticker, metadata
		FROM events
		WHERE participant_id = ?
		ORDER BY timestamp, id
	`
	rows, err := s.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var tsMillis int64
		var pageName, taskRef, elementID, elementType sql.NullString
		var action, oldValue, newValue, stockTicker, metadata sql.NullString

		err := rows.Scan(
			&ev.ParticipantID, &tsMillis, &ev.Type, &ev.Category,
			&pageName, &taskRef, &elementID, &elementType, &action,
			&oldValue, &newValue, &stockTicker, &metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.Timestamp = time.UnixMilli(tsMillis)
		ev.PageName = pageName.String
		ev.TaskRef = taskRef.String
		ev.ElementID = elementID.String
		ev.ElementType = elementType.String
		ev.Action = action.String
		ev.OldValue = oldValue.String
		ev.NewValue = newValue.String
		ev.StockTicker = stockTicker.String
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &ev.Metadata)
		}

		events = append(events, ev)
	}

	return events, rows.Err()
}

// StudyStatistics summarizes collection progress across all participants.
func (s *SQLiteStore) StudyStatistics(ctx context.Context) (*StudyStatistics, error) {
	stats := &StudyStatistics{}

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(completed), 0),
		       COALESCE(AVG(CASE WHEN completed = 1 THEN (completed_at - created_at) / 60.0 END), 0)
		FROM participants
	`
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalParticipants,
		&stats.CompletedParticipants,
		&stats.AvgCompletionTimeMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant statistics: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	return stats, nil
}

// TotalInvestedByParticipant returns each participant's summed invested
// amount across all tasks.
func (s *SQLiteStore) TotalInvestedByParticipant(ctx context.Context) ([]float64, error) {
	return s.queryFloats(ctx, `
		SELECT SUM(invested) FROM portfolio GROUP BY participant_id
	`)
}

// ProfitLossByParticipant returns each participant's summed profit/loss.
func (s *SQLiteStore) ProfitLossByParticipant(ctx context.Context) ([]float64, error) {
	return s.queryFloats(ctx, `
		SELECT SUM(profit_loss) FROM portfolio GROUP BY participant_id
	`)
}

// ConfidenceRatings returns all submitted confidence ratings.
func (s *SQLiteStore) ConfidenceRatings(ctx context.Context) ([]float64, error) {
	return s.queryFloats(ctx, `SELECT confidence_rating FROM confidence_risk`)
}

// RiskRatings returns all submitted risk ratings.
func (s *SQLiteStore) RiskRatings(ctx context.Context) ([]float64, error) {
	return s.queryFloats(ctx, `SELECT risk_rating FROM confidence_risk`)
}

func (s *SQLiteStore) queryFloats(ctx context.Context, query string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

// nullString converts empty strings to NULL for optional columns
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
