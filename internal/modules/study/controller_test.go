package study

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/aristath/mindset/internal/config"
	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/aristath/mindset/internal/modules/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSink records every call in memory and can be told to fail.
type mockSink struct {
	failAll        bool
	failCreate     bool
	participants   int
	events         []eventlog.Event
	demographics   []eventlog.DemographicsRecord
	taskResponses  []eventlog.TaskResponseRecord
	portfolio      []eventlog.PortfolioRecord
	confidenceRisk []eventlog.ConfidenceRiskRecord
	feedback       []string
	completed      []string
	visits         int64
}

func (m *mockSink) CreateParticipant(ctx context.Context, meta eventlog.ClientMeta) (string, error) {
	if m.failAll || m.failCreate {
		return "", errors.New("sink unavailable")
	}
	m.participants++
	return fmt.Sprintf("participant-%d", m.participants), nil
}

func (m *mockSink) LogEvent(ctx context.Context, event eventlog.Event) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockSink) StartPageVisit(ctx context.Context, participantID, pageName, taskRef string) (int64, error) {
	if m.failAll {
		return 0, errors.New("sink unavailable")
	}
	m.visits++
	return m.visits, nil
}

func (m *mockSink) EndPageVisit(ctx context.Context, visitID int64, durationSeconds float64) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	return nil
}

func (m *mockSink) SaveDemographics(ctx context.Context, participantID string, record eventlog.DemographicsRecord) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.demographics = append(m.demographics, record)
	return nil
}

func (m *mockSink) SaveTaskResponse(ctx context.Context, participantID string, record eventlog.TaskResponseRecord) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.taskResponses = append(m.taskResponses, record)
	return nil
}

func (m *mockSink) SavePortfolioEntry(ctx context.Context, participantID string, record eventlog.PortfolioRecord) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.portfolio = append(m.portfolio, record)
	return nil
}

func (m *mockSink) SaveConfidenceRisk(ctx context.Context, participantID string, record eventlog.ConfidenceRiskRecord) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.confidenceRisk = append(m.confidenceRisk, record)
	return nil
}

func (m *mockSink) SaveFeedback(ctx context.Context, participantID, feedbackText string) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.feedback = append(m.feedback, feedbackText)
	return nil
}

func (m *mockSink) MarkCompleted(ctx context.Context, participantID string) error {
	if m.failAll {
		return errors.New("sink unavailable")
	}
	m.completed = append(m.completed, participantID)
	return nil
}

func (m *mockSink) eventTypes() []string {
	types := make([]string, len(m.events))
	for i, ev := range m.events {
		types[i] = ev.Type
	}
	return types
}

// testCatalog builds a 14-task catalog with two tutorial rounds. Task N
// has a stock with a 12.5% return on task 7 and N%/2 elsewhere, so
// settlement amounts are predictable.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	var tasks []string
	for i := 1; i <= 14; i++ {
		returnPercent := float64(i) / 2
		if i == 7 {
			returnPercent = 12.5
		}
		tasks = append(tasks, fmt.Sprintf(`{
			"task_id": "%d",
			"stocks": [{
				"name": "Stock %d",
				"ticker": "STK%d",
				"short_description": "Short description %d.",
				"detailed_description": "Detailed description %d.",
				"return_percent": %v,
				"info_costs": {"show_more": 5, "show_week": 10, "show_month": 15},
				"week_analysis": "Weekly analysis %d.",
				"month_analysis": "Monthly analysis %d."
			}]
		}`, i, i, i, i, i, returnPercent, i, i))
	}

	tutorials := `{
		"task_id": "tutorial_1",
		"stocks": [{
			"name": "Practice One",
			"ticker": "PRA1",
			"short_description": "Practice round.",
			"detailed_description": "First practice round.",
			"return_percent": 2,
			"info_costs": {"show_more": 0, "show_week": 0, "show_month": 0}
		}]
	}, {
		"task_id": "tutorial_2",
		"stocks": [{
			"name": "Practice Two",
			"ticker": "PRA2",
			"short_description": "Practice round.",
			"detailed_description": "Second practice round.",
			"return_percent": -1,
			"info_costs": {"show_more": 2, "show_week": 2, "show_month": 2}
		}]
	}`

	content := fmt.Sprintf(`{"tasks": [%s], "tutorials": [%s]}`, strings.Join(tasks, ","), tutorials)
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cat, err := catalog.Load(path, zerolog.Nop())
	require.NoError(t, err)
	return cat
}

func testStudyConfig() config.StudyConfig {
	return config.StudyConfig{
		InitialAmount:    1000,
		NumTasks:         14,
		Checkpoints:      []int{7},
		MinAge:           18,
		MaxAge:           120,
		MaxDecimalPlaces: 2,
		SliderMin:        1,
		SliderMax:        7,
	}
}

func newTestController(t *testing.T, sink eventlog.Sink) *Controller {
	t.Helper()

	cfg := testStudyConfig()
	cat := testCatalog(t)
	sessions := session.NewManager(cfg.NumTasks, cfg.InitialAmount, zerolog.Nop())
	guard := flow.NewGuard(cfg.NumTasks, cfg.FirstCheckpoint())
	return New(cat, sessions, guard, sink, nil, cfg, zerolog.Nop())
}

func startSession(t *testing.T, c *Controller) *session.State {
	t.Helper()

	state, err := c.StartSession(context.Background(), "", eventlog.ClientMeta{})
	require.NoError(t, err)
	return state
}

func TestStartSession_CreatesParticipant(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)

	state := startSession(t, c)
	assert.Equal(t, "participant-1", state.ParticipantID)
	assert.Equal(t, flow.PageConsent, state.Page)
	assert.Contains(t, sink.eventTypes(), "session_start")

	// Resuming is a no-op
	again, err := c.StartSession(context.Background(), state.ID, eventlog.ClientMeta{})
	require.NoError(t, err)
	assert.Same(t, state, again)
	assert.Equal(t, 1, sink.participants)
}

func TestStartSession_ProceedsWithoutParticipantID(t *testing.T) {
	sink := &mockSink{failCreate: true}
	c := newTestController(t, sink)

	// Participant creation failure must not block the session
	state := startSession(t, c)
	assert.Empty(t, state.ParticipantID)

	// Downstream persistence is skipped, but the flow works
	next := c.GiveConsent(context.Background(), state)
	assert.Equal(t, flow.PageDemographics, next)
	assert.Empty(t, sink.events)
	assert.Empty(t, sink.demographics)
}

func TestSubmitDemographics_InvalidLeavesStateUntouched(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	c.GiveConsent(context.Background(), state)

	_, err := c.SubmitDemographics(context.Background(), state, "17", "male", "bachelors", "none")
	require.Error(t, err)
	assert.Equal(t, validation.MsgAgeTooYoung, err.Error())
	assert.False(t, state.DemographicsComplete)
	assert.Equal(t, flow.PageDemographics, state.Page)
}

func TestSubmitDemographics_Valid(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	c.GiveConsent(context.Background(), state)

	next, err := c.SubmitDemographics(context.Background(), state, "29", "non-binary", "some-college", "beginner")
	require.NoError(t, err)
	assert.Equal(t, flow.PageTutorial1, next)
	assert.True(t, state.DemographicsComplete)
	require.Len(t, sink.demographics, 1)
	assert.Equal(t, 29, sink.demographics[0].Age)
}

func TestCompleteTutorial_Sequence(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	c.GiveConsent(context.Background(), state)
	_, err := c.SubmitDemographics(context.Background(), state, "30", "female", "masters", "none")
	require.NoError(t, err)

	next, err := c.CompleteTutorial(context.Background(), state, "tutorial_1")
	require.NoError(t, err)
	assert.Equal(t, flow.PageTutorial2, next)
	assert.False(t, state.TutorialCompleted)

	next, err = c.CompleteTutorial(context.Background(), state, "tutorial_2")
	require.NoError(t, err)
	assert.Equal(t, flow.PageTask, next)
	assert.True(t, state.TutorialCompleted)

	_, err = c.CompleteTutorial(context.Background(), state, "tutorial_9")
	assert.Error(t, err)
}

// advanceToTasks walks a fresh session to the first task page.
func advanceToTasks(t *testing.T, c *Controller, state *session.State) {
	t.Helper()
	ctx := context.Background()

	c.GiveConsent(ctx, state)
	_, err := c.SubmitDemographics(ctx, state, "35", "male", "bachelors", "intermediate")
	require.NoError(t, err)
	_, err = c.CompleteTutorial(ctx, state, "tutorial_1")
	require.NoError(t, err)
	_, err = c.CompleteTutorial(ctx, state, "tutorial_2")
	require.NoError(t, err)
	require.Equal(t, flow.PageTask, state.Page)
}

func TestSubmitTask_SettlementArithmetic(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	// Walk the pointer to wherever content task 7 (12.5% return) sits
	for state.TaskPointer <= 14 {
		ref, ok := state.CurrentTaskRef()
		require.True(t, ok)
		if ref == 7 {
			break
		}
		_, err := c.SubmitTask(context.Background(), state, []string{""})
		require.NoError(t, err)
	}
	require.LessOrEqual(t, state.TaskPointer, 14)
	balanceBefore := state.Balance

	result, err := c.SubmitTask(context.Background(), state, []string{"200"})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, 225.0, result.Entries[0].FinalValue)
	assert.Equal(t, 25.0, result.Entries[0].ProfitLoss)
	assert.Equal(t, balanceBefore-200, result.Balance)
	assert.Contains(t, result.Settlement, "profit of $25.00")
}

func TestSubmitTask_ValidationAbortsUnchanged(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	pointer := state.TaskPointer
	balance := state.Balance

	_, err := c.SubmitTask(context.Background(), state, []string{"10.125"})
	require.Error(t, err)
	var invErr *validation.InvestmentError
	assert.ErrorAs(t, err, &invErr)
	assert.Equal(t, pointer, state.TaskPointer)
	assert.Equal(t, balance, state.Balance)
	assert.Empty(t, state.Portfolio)

	_, err = c.SubmitTask(context.Background(), state, []string{"2000"})
	require.Error(t, err)
	var totalErr *validation.TotalError
	assert.ErrorAs(t, err, &totalErr)
	assert.Equal(t, pointer, state.TaskPointer)
	assert.Equal(t, balance, state.Balance)
}

func TestSubmitTask_CheckpointRouting(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	// Tasks 1-6 route back to the task page
	for i := 1; i <= 6; i++ {
		result, err := c.SubmitTask(ctx, state, []string{"10"})
		require.NoError(t, err)
		assert.Equal(t, flow.PageTask, result.NextPage, "after display number %d", i)
	}

	// Task 7 is the checkpoint
	result, err := c.SubmitTask(ctx, state, []string{"10"})
	require.NoError(t, err)
	assert.Equal(t, flow.PageConfidenceRisk, result.NextPage)
	assert.Equal(t, 8, state.TaskPointer)

	// Ratings route back into the task sequence
	next, err := c.SubmitConfidenceRisk(ctx, state, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, flow.PageTask, next)
	require.Len(t, sink.confidenceRisk, 1)
	assert.Equal(t, 7, sink.confidenceRisk[0].CompletedAfterTask)

	// Tasks 8-13 continue, task 14 routes to feedback
	for i := 8; i <= 13; i++ {
		result, err := c.SubmitTask(ctx, state, []string{""})
		require.NoError(t, err)
		assert.Equal(t, flow.PageTask, result.NextPage)
	}
	result, err = c.SubmitTask(ctx, state, []string{""})
	require.NoError(t, err)
	assert.Equal(t, flow.PageFeedback, result.NextPage)
	assert.Equal(t, 15, state.TaskPointer)

	// Feedback completes the study
	final, err := c.SubmitFeedback(ctx, state, "thanks")
	require.NoError(t, err)
	assert.Equal(t, flow.PageDebrief, final)
	assert.True(t, state.Completed)
	assert.Equal(t, []string{"thanks"}, sink.feedback)
	assert.Len(t, sink.completed, 1)
}

func TestSubmitTask_NoInvestment(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	result, err := c.SubmitTask(context.Background(), state, []string{""})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 1000.0, result.Balance)
	assert.Equal(t, "You chose not to invest in this task.", result.Settlement)
	assert.Empty(t, sink.portfolio)
	assert.Len(t, sink.taskResponses, 1)
}

func TestRequestInfo_PaidFlow(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	// Paid info parks a pending confirmation
	outcome, err := c.RequestInfo(ctx, state, catalog.InfoShowWeek, 0)
	require.NoError(t, err)
	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, 10.0, outcome.Cost)
	assert.Equal(t, 1000.0, state.Balance)
	require.NotNil(t, state.Pending)

	// Accepting debits the balance and reveals the content
	outcome, err = c.ConfirmInfo(ctx, state, true)
	require.NoError(t, err)
	assert.Equal(t, "accepted", outcome.Status)
	require.NotNil(t, outcome.Content)
	assert.Contains(t, outcome.Content.Title, "Weekly Analysis")
	assert.Equal(t, 990.0, state.Balance)
	assert.Equal(t, 10.0, state.InfoCostSpent)
	assert.Nil(t, state.Pending)
}

func TestRequestInfo_SecondPurchaseIsFree(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	_, err := c.RequestInfo(ctx, state, catalog.InfoShowMore, 0)
	require.NoError(t, err)
	_, err = c.ConfirmInfo(ctx, state, true)
	require.NoError(t, err)
	assert.Equal(t, 995.0, state.Balance)
	assert.Equal(t, 5.0, state.InfoCostSpent)

	// Same info in the same task skips confirmation and costs nothing
	outcome, err := c.RequestInfo(ctx, state, catalog.InfoShowMore, 0)
	require.NoError(t, err)
	assert.Equal(t, "accepted", outcome.Status)
	assert.Equal(t, 995.0, state.Balance)
	assert.Equal(t, 5.0, state.InfoCostSpent)
}

func TestRequestInfo_CancelKeepsBalance(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	_, err := c.RequestInfo(ctx, state, catalog.InfoShowMonth, 0)
	require.NoError(t, err)

	outcome, err := c.ConfirmInfo(ctx, state, false)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", outcome.Status)
	assert.Equal(t, 1000.0, state.Balance)
	assert.Equal(t, 0.0, state.InfoCostSpent)
	assert.Nil(t, state.Pending)

	// The purchase was never completed, so a repeat request costs again
	outcome, err = c.RequestInfo(ctx, state, catalog.InfoShowMonth, 0)
	require.NoError(t, err)
	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, 15.0, outcome.Cost)
}

func TestConfirmInfo_StaleRequestRejected(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	_, err := c.RequestInfo(ctx, state, catalog.InfoShowWeek, 0)
	require.NoError(t, err)

	// Fake a pending request left over from a different task
	state.Pending.TaskRef = "99"

	_, err = c.ConfirmInfo(ctx, state, true)
	require.Error(t, err)
	var infoErr *InfoError
	assert.ErrorAs(t, err, &infoErr)
	assert.Nil(t, state.Pending)
	assert.Equal(t, 1000.0, state.Balance)
}

func TestConfirmInfo_NoPending(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	_, err := c.ConfirmInfo(context.Background(), state, true)
	assert.Error(t, err)
}

func TestTaskAdvance_ResetsPurchasedInfo(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	_, err := c.RequestInfo(ctx, state, catalog.InfoShowMore, 0)
	require.NoError(t, err)
	_, err = c.ConfirmInfo(ctx, state, true)
	require.NoError(t, err)
	require.True(t, state.HasPurchased(catalog.InfoShowMore, 0))

	_, err = c.SubmitTask(ctx, state, []string{""})
	require.NoError(t, err)

	// The next task starts with a clean purchase set, so the same info
	// costs money again
	assert.False(t, state.HasPurchased(catalog.InfoShowMore, 0))
	outcome, err := c.RequestInfo(ctx, state, catalog.InfoShowMore, 0)
	require.NoError(t, err)
	assert.Equal(t, "pending", outcome.Status)
	assert.Equal(t, 5.0, outcome.Cost)
}

func TestNavigate_DeniedReturnsRedirect(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)

	decision := c.Navigate(context.Background(), state, flow.PageFeedback)
	assert.False(t, decision.Allowed)
	assert.Equal(t, flow.PageTask, decision.RedirectTo)
	// The session stays where it was
	assert.Equal(t, flow.PageConsent, state.Page)
	assert.Contains(t, sink.eventTypes(), "access_denied")
}

func TestNavigate_PageChangeClearsPending(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	ctx := context.Background()

	_, err := c.RequestInfo(ctx, state, catalog.InfoShowWeek, 0)
	require.NoError(t, err)
	require.NotNil(t, state.Pending)

	decision := c.Navigate(ctx, state, flow.PageTutorial1)
	require.True(t, decision.Allowed)
	assert.Nil(t, state.Pending)
	assert.Empty(t, state.PurchasedInfo)
}

// advancePastCheckpoint submits empty investments until the checkpoint
// after task 7 is reached.
func advancePastCheckpoint(t *testing.T, c *Controller, state *session.State) {
	t.Helper()
	for i := 1; i <= 7; i++ {
		_, err := c.SubmitTask(context.Background(), state, []string{""})
		require.NoError(t, err)
	}
	require.Equal(t, flow.PageConfidenceRisk, state.Page)
}

func TestSubmitConfidenceRisk_RangeValidated(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)
	advancePastCheckpoint(t, c, state)

	_, err := c.SubmitConfidenceRisk(context.Background(), state, 0, 4)
	require.Error(t, err)
	var ratingErr *RatingError
	assert.ErrorAs(t, err, &ratingErr)

	_, err = c.SubmitConfidenceRisk(context.Background(), state, 4, 8)
	assert.Error(t, err)
}

func TestSubmitConfidenceRisk_BeforeCheckpointDenied(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	// Ratings before task 7 is done are rejected, not recorded
	_, err := c.SubmitConfidenceRisk(context.Background(), state, 4, 4)
	require.Error(t, err)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, flow.PageTask, accessErr.Decision.RedirectTo)
	assert.Empty(t, sink.confidenceRisk)
	assert.False(t, state.ConfidenceRiskComplete)
}

func TestSubmitFeedback_BeforeAllTasksDenied(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)

	// A fresh session cannot skip to the end of the study
	_, err := c.SubmitFeedback(context.Background(), state, "bye")
	require.Error(t, err)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, flow.PageTask, accessErr.Decision.RedirectTo)

	assert.False(t, state.Completed)
	assert.Empty(t, sink.feedback)
	assert.Empty(t, sink.completed)
	assert.Equal(t, flow.PageConsent, state.Page)
}

func TestSubmitTask_WithoutConsentDenied(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)

	_, err := c.SubmitTask(context.Background(), state, []string{"100"})
	require.Error(t, err)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, flow.PageConsent, accessErr.Decision.RedirectTo)
	assert.Equal(t, 1000.0, state.Balance)
	assert.Equal(t, 1, state.TaskPointer)
}

func TestPersistenceFailure_NeverBlocksFlow(t *testing.T) {
	// Create the participant first, then fail every later write
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	sink.failAll = true
	ctx := context.Background()

	c.GiveConsent(ctx, state)
	_, err := c.SubmitDemographics(ctx, state, "40", "male", "doctoral", "expert")
	require.NoError(t, err)

	c.Navigate(ctx, state, flow.PageTask)
	result, err := c.SubmitTask(ctx, state, []string{"100"})
	require.NoError(t, err)
	assert.Equal(t, 900.0, result.Balance)
	assert.Equal(t, 2, state.TaskPointer)
}

func TestCurrentTask_View(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)
	advanceToTasks(t, c, state)

	view, err := c.CurrentTask(state)
	require.NoError(t, err)
	assert.Equal(t, 1, view.DisplayNumber)
	assert.Equal(t, 14, view.TotalTasks)
	assert.Equal(t, 1000.0, view.Balance)

	// The view's task ref must match the randomized order
	contentID, ok := state.CurrentTaskRef()
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(contentID), view.TaskRef)
	assert.Equal(t, fmt.Sprintf("STK%d", contentID), view.Stock.Ticker)
}

func TestTutorialTask_View(t *testing.T) {
	sink := &mockSink{}
	c := newTestController(t, sink)
	state := startSession(t, c)

	view, err := c.TutorialTask(state, "tutorial_1")
	require.NoError(t, err)
	assert.Equal(t, "PRA1", view.Stock.Ticker)

	_, err = c.TutorialTask(state, "tutorial_5")
	assert.Error(t, err)
}
