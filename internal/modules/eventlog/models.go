package eventlog

import "time"

// Event categories.
const (
	CategoryNavigation  = "navigation"
	CategoryInteraction = "interaction"
	CategoryInput       = "input"
	CategoryError       = "error"
	CategorySystem      = "system"
)

// ClientMeta is the request-level metadata captured when a participant
// record is created.
type ClientMeta struct {
	SessionID string `json:"session_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Event is one immutable interaction record. Events are write-once and
// append-only; ordering is timestamp order per participant.
type Event struct {
	ParticipantID string                 `json:"participant_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Type          string                 `json:"event_type"`
	Category      string                 `json:"event_category"`
	PageName      string                 `json:"page_name,omitempty"`
	TaskRef       string                 `json:"task_id,omitempty"`
	ElementID     string                 `json:"element_id,omitempty"`
	ElementType   string                 `json:"element_type,omitempty"`
	Action        string                 `json:"action,omitempty"`
	OldValue      string                 `json:"old_value,omitempty"`
	NewValue      string                 `json:"new_value,omitempty"`
	StockTicker   string                 `json:"stock_ticker,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// DemographicsRecord is the persisted demographics form.
type DemographicsRecord struct {
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
}

// TaskResponseRecord is the persisted investment decision for one task.
type TaskResponseRecord struct {
	TaskNumber      int     `json:"task_number"` // sequential display number
	TaskRef         string  `json:"task_ref"`    // randomized content id
	Ticker          string  `json:"ticker"`
	StockName       string  `json:"stock_name"`
	Investment      float64 `json:"investment"`
	TotalInvestment float64 `json:"total_investment"`
	RemainingAmount float64 `json:"remaining_amount"`
}

// PortfolioRecord is one settled investment outcome.
type PortfolioRecord struct {
	TaskNumber    int     `json:"task_number"`
	TaskRef       string  `json:"task_ref"`
	StockName     string  `json:"stock_name"`
	Ticker        string  `json:"ticker"`
	Invested      float64 `json:"invested"`
	ReturnPercent float64 `json:"return_percent"`
	FinalValue    float64 `json:"final_value"`
	ProfitLoss    float64 `json:"profit_loss"`
}

// ConfidenceRiskRecord is one checkpoint self-report.
type ConfidenceRiskRecord struct {
	ConfidenceRating   int `json:"confidence_rating"`
	RiskRating         int `json:"risk_rating"`
	CompletedAfterTask int `json:"completed_after_task"`
}

// Participant is the stored participant identity row.
type Participant struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id,omitempty"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StudyStatistics summarizes collection progress across participants.
type StudyStatistics struct {
	TotalParticipants        int     `json:"total_participants"`
	CompletedParticipants    int     `json:"completed_participants"`
	AvgCompletionTimeMinutes float64 `json:"avg_completion_time_minutes"`
	TotalEvents              int     `json:"total_events"`
}
