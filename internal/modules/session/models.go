package session

import (
	"time"

	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/flow"
)

// InfoKey identifies one purchased information reveal within the current
// task: which info type, for which stock index.
type InfoKey struct {
	InfoType   catalog.InfoType `msgpack:"info_type"`
	StockIndex int              `msgpack:"stock_index"`
}

// PendingInfoRequest is an in-flight information purchase awaiting cost
// confirmation. At most one exists per session; it is cleared on accept,
// cancel, task advance, or page change.
type PendingInfoRequest struct {
	InfoType   catalog.InfoType `msgpack:"info_type"`
	TaskRef    string           `msgpack:"task_ref"`
	StockIndex int              `msgpack:"stock_index"`
	Cost       float64          `msgpack:"cost"`
}

// PortfolioEntry records one settled investment outcome.
type PortfolioEntry struct {
	TaskNumber    int     `msgpack:"task_number" json:"task_number"` // sequential display number
	TaskRef       string  `msgpack:"task_ref" json:"task_ref"`       // randomized content id
	StockName     string  `msgpack:"stock_name" json:"stock_name"`
	Ticker        string  `msgpack:"ticker" json:"ticker"`
	Invested      float64 `msgpack:"invested" json:"invested"`
	ReturnPercent float64 `msgpack:"return_percent" json:"return_percent"`
	FinalValue    float64 `msgpack:"final_value" json:"final_value"`
	ProfitLoss    float64 `msgpack:"profit_loss" json:"profit_loss"`
}

// TaskResponse records the investment vector submitted for one task.
type TaskResponse struct {
	Investments []float64 `msgpack:"investments" json:"investments"`
	Total       float64   `msgpack:"total" json:"total"`
}

// State is the mutable per-participant progress record. Sessions are
// fully independent of each other; a single participant submits one
// action at a time, so access within a session goes through the
// manager's lock but needs no finer coordination.
type State struct {
	// ID is the local session identifier, always present.
	ID string `msgpack:"id"`

	// ParticipantID is the persisted identity. Empty when the event sink
	// was unreachable at session start; persistence calls are skipped in
	// that case and the flow proceeds regardless.
	ParticipantID string `msgpack:"participant_id"`

	Page flow.Page `msgpack:"page"`

	// Balance is decremented by investments and information purchases,
	// never negative by construction (validated before every debit).
	Balance float64 `msgpack:"balance"`

	// TaskPointer is the 1-based display number of the next task. It is
	// an index into TaskOrder, not a task content id.
	TaskPointer int `msgpack:"task_pointer"`

	// TaskOrder is a permutation of 1..NumTasks fixed at session start.
	TaskOrder []int `msgpack:"task_order"`

	ConsentGiven           bool `msgpack:"consent_given"`
	DemographicsComplete   bool `msgpack:"demographics_complete"`
	TutorialCompleted      bool `msgpack:"tutorial_completed"`
	ConfidenceRiskComplete bool `msgpack:"confidence_risk_complete"`
	Completed              bool `msgpack:"completed"`

	// tutorialsSeen tracks which tutorial rounds have been finished.
	TutorialsSeen map[string]bool `msgpack:"tutorials_seen"`

	// Responses maps sequential display number to the recorded
	// investment vector.
	Responses map[int]TaskResponse `msgpack:"responses"`

	// Portfolio is append-only.
	Portfolio []PortfolioEntry `msgpack:"portfolio"`

	// PurchasedInfo covers the current task only; reset at every task
	// transition and page change. Not snapshotted: a restored session
	// re-enters through a page change, which clears it anyway.
	PurchasedInfo map[InfoKey]bool    `msgpack:"-"`
	InfoCostSpent float64             `msgpack:"info_cost_spent"`
	Pending       *PendingInfoRequest `msgpack:"pending,omitempty"`

	StartedAt time.Time `msgpack:"started_at"`
	LastSeen  time.Time `msgpack:"last_seen"`

	// Page visit tracking, process-local only.
	CurrentVisitID int64     `msgpack:"-"`
	PageEnteredAt  time.Time `msgpack:"-"`
}

// Progress returns the flow-guard snapshot for this session.
func (s *State) Progress() flow.Progress {
	return flow.Progress{
		ConsentGiven:           s.ConsentGiven,
		DemographicsComplete:   s.DemographicsComplete,
		TaskPointer:            s.TaskPointer,
		ConfidenceRiskComplete: s.ConfidenceRiskComplete,
	}
}

// CurrentTaskRef resolves the display number at the task pointer to the
// underlying content id. Returns false when all tasks are done.
func (s *State) CurrentTaskRef() (int, bool) {
	if s.TaskPointer < 1 || s.TaskPointer > len(s.TaskOrder) {
		return 0, false
	}
	return s.TaskOrder[s.TaskPointer-1], true
}

// ClearTaskInfo resets the per-task information purchase state. Called
// on every task advance and page change.
func (s *State) ClearTaskInfo() {
	s.PurchasedInfo = make(map[InfoKey]bool)
	s.Pending = nil
}

// HasPurchased reports whether the given info reveal was already bought
// in the current task.
func (s *State) HasPurchased(infoType catalog.InfoType, stockIndex int) bool {
	return s.PurchasedInfo[InfoKey{InfoType: infoType, StockIndex: stockIndex}]
}

// TutorialDone marks one tutorial round as finished and flips
// TutorialCompleted once all rounds are seen.
func (s *State) TutorialDone(ref string, total int) {
	if s.TutorialsSeen == nil {
		s.TutorialsSeen = make(map[string]bool)
	}
	s.TutorialsSeen[ref] = true
	if len(s.TutorialsSeen) >= total {
		s.TutorialCompleted = true
	}
}
