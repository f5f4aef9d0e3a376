// Package study orchestrates the participant flow: it validates input,
// mutates session state, consults the page-access guard, and emits
// events to the sink.
//
// Every public method is one atomic user action. Persistence is
// fire-and-forget: a failed write is logged to the operational channel
// and dropped, never surfaced to the participant.
package study

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/mindset/internal/config"
	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/rs/zerolog"
)

// Notifier receives a copy of every emitted event, for live monitoring.
// Implementations must not block.
type Notifier interface {
	Publish(event eventlog.Event)
}

// Controller is the single entry point for participant actions.
type Controller struct {
	catalog  *catalog.Catalog
	sessions *session.Manager
	guard    *flow.Guard
	sink     eventlog.Sink
	notifier Notifier
	study    config.StudyConfig
	log      zerolog.Logger
}

// New creates the study controller. notifier may be nil.
func New(
	cat *catalog.Catalog,
	sessions *session.Manager,
	guard *flow.Guard,
	sink eventlog.Sink,
	notifier Notifier,
	study config.StudyConfig,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		catalog:  cat,
		sessions: sessions,
		guard:    guard,
		sink:     sink,
		notifier: notifier,
		study:    study,
		log:      logger.With().Str("component", "study").Logger(),
	}
}

// StartSession creates (or resumes) a session. A new session registers a
// participant with the sink; when that fails the session proceeds with
// no participant id and all persistence becomes a no-op.
func (c *Controller) StartSession(ctx context.Context, sessionID string, meta eventlog.ClientMeta) (*session.State, error) {
	state, created := c.sessions.Start(sessionID)
	if !created {
		return state, nil
	}

	meta.SessionID = state.ID
	participantID, err := c.sink.CreateParticipant(ctx, meta)
	if err != nil {
		// The flow never blocks on persistence; continue without an id
		c.log.Warn().Err(err).
			Str("session_id", state.ID).
			Msg("Participant creation failed, continuing without persistence")
	} else {
		state.ParticipantID = participantID
	}

	c.logEvent(ctx, state, eventlog.Event{
		Type:     "session_start",
		Category: eventlog.CategorySystem,
		PageName: string(flow.PageConsent),
		Metadata: map[string]interface{}{
			"task_order":     state.TaskOrder,
			"initial_amount": state.Balance,
		},
	})
	c.startVisit(ctx, state, flow.PageConsent, "")

	return state, nil
}

// Session returns a live session by id.
func (c *Controller) Session(id string) (*session.State, bool) {
	return c.sessions.Get(id)
}

// Navigate checks page access and, when allowed, performs the page
// change. Denied requests return the guard's decision untouched so the
// caller can display the reason and redirect.
func (c *Controller) Navigate(ctx context.Context, state *session.State, requested flow.Page) flow.Decision {
	decision := c.guard.CheckAccess(requested, state.Progress())
	if !decision.Allowed {
		c.logEvent(ctx, state, eventlog.Event{
			Type:     "access_denied",
			Category: eventlog.CategoryNavigation,
			PageName: string(requested),
			Action:   "navigate",
			Metadata: map[string]interface{}{
				"redirect_to": string(decision.RedirectTo),
				"reason":      decision.Reason,
			},
		})
		return decision
	}

	c.setPage(ctx, state, requested)
	return decision
}

// AccessError rejects a submission whose page is not reachable from the
// participant's progress. It carries the guard's decision so the caller
// can redirect the same way a denied navigation does.
type AccessError struct {
	Decision flow.Decision
}

func (e *AccessError) Error() string {
	return e.Decision.Reason
}

// checkAccess consults the guard for the page an action belongs to.
// Submissions go through the same gate as navigation, so a client that
// skips pages by calling action endpoints directly is caught here.
func (c *Controller) checkAccess(ctx context.Context, state *session.State, page flow.Page) error {
	decision := c.guard.CheckAccess(page, state.Progress())
	if decision.Allowed {
		return nil
	}

	c.logEvent(ctx, state, eventlog.Event{
		Type:     "access_denied",
		Category: eventlog.CategoryNavigation,
		PageName: string(page),
		Action:   "submit",
		Metadata: map[string]interface{}{
			"redirect_to": string(decision.RedirectTo),
			"reason":      decision.Reason,
		},
	})
	return &AccessError{Decision: decision}
}

// setPage performs the page transition side effects unless the session
// is already on the requested page.
func (c *Controller) setPage(ctx context.Context, state *session.State, page flow.Page) {
	if state.Page == page {
		return
	}
	c.transition(ctx, state, page)
}

// transition performs the page change unconditionally: it closes the
// previous page visit, clears per-task info state, and logs navigation.
// Task-to-task advances re-enter the same page, so this runs even when
// the page name does not change.
func (c *Controller) transition(ctx context.Context, state *session.State, page flow.Page) {
	c.endVisit(ctx, state)

	state.Page = page
	// Pending info requests never survive a page change
	state.ClearTaskInfo()

	taskRef := ""
	if page == flow.PageTask {
		if id, ok := state.CurrentTaskRef(); ok {
			taskRef = fmt.Sprintf("%d", id)
		}
	}

	c.logEvent(ctx, state, eventlog.Event{
		Type:     "page_navigation",
		Category: eventlog.CategoryNavigation,
		PageName: string(page),
		TaskRef:  taskRef,
		Action:   "navigate",
	})
	c.startVisit(ctx, state, page, taskRef)
}

func (c *Controller) startVisit(ctx context.Context, state *session.State, page flow.Page, taskRef string) {
	state.PageEnteredAt = time.Now()
	state.CurrentVisitID = 0

	if state.ParticipantID == "" {
		return
	}
	visitID, err := c.sink.StartPageVisit(ctx, state.ParticipantID, string(page), taskRef)
	if err != nil {
		c.log.Warn().Err(err).Str("page", string(page)).Msg("Failed to record page visit start")
		return
	}
	state.CurrentVisitID = visitID
}

func (c *Controller) endVisit(ctx context.Context, state *session.State) {
	if state.CurrentVisitID == 0 || state.ParticipantID == "" {
		return
	}
	duration := time.Since(state.PageEnteredAt).Seconds()
	if err := c.sink.EndPageVisit(ctx, state.CurrentVisitID, duration); err != nil {
		c.log.Warn().Err(err).Msg("Failed to record page visit end")
	}
	state.CurrentVisitID = 0
}

// RecordInteraction logs a client-reported UI event (click, hover,
// slider move). The category is forced to interaction or input so
// clients cannot spoof system events.
func (c *Controller) RecordInteraction(ctx context.Context, state *session.State, event eventlog.Event) {
	if event.Category != eventlog.CategoryInput {
		event.Category = eventlog.CategoryInteraction
	}
	if event.PageName == "" {
		event.PageName = string(state.Page)
	}
	c.logEvent(ctx, state, event)
}

// logEvent appends one event, fire-and-forget. Events are always
// published to the notifier; persistence is skipped when the session
// has no participant id.
func (c *Controller) logEvent(ctx context.Context, state *session.State, event eventlog.Event) {
	event.Timestamp = time.Now()
	event.ParticipantID = state.ParticipantID
	if event.ParticipantID == "" {
		event.ParticipantID = state.ID
	}

	if c.notifier != nil {
		c.notifier.Publish(event)
	}

	if state.ParticipantID == "" {
		return
	}
	if err := c.sink.LogEvent(ctx, event); err != nil {
		// One attempt, then drop; the participant's flow never blocks
		// on a logging failure
		c.log.Warn().Err(err).
			Str("event_type", event.Type).
			Msg("Failed to persist event")
	}
}

// persist runs one sink write, fire-and-forget.
func (c *Controller) persist(state *session.State, what string, fn func() error) {
	if state.ParticipantID == "" {
		return
	}
	if err := fn(); err != nil {
		c.log.Warn().Err(err).Str("record", what).Msg("Failed to persist record")
	}
}
