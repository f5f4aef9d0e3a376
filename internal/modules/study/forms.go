package study

import (
	"context"
	"fmt"

	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/aristath/mindset/internal/modules/validation"
)

// GiveConsent records consent and moves the participant to demographics.
func (c *Controller) GiveConsent(ctx context.Context, state *session.State) flow.Page {
	state.ConsentGiven = true

	c.logEvent(ctx, state, eventlog.Event{
		Type:      "consent_given",
		Category:  eventlog.CategoryInteraction,
		PageName:  string(flow.PageConsent),
		ElementID: "consent-submit",
		Action:    "submit",
	})

	c.setPage(ctx, state, flow.PageDemographics)
	return flow.PageDemographics
}

// SubmitDemographics validates and records the demographics form. On a
// validation failure the state is untouched and the error is returned
// for inline display.
func (c *Controller) SubmitDemographics(ctx context.Context, state *session.State, rawAge, gender, education, experience string) (flow.Page, error) {
	if err := c.checkAccess(ctx, state, flow.PageDemographics); err != nil {
		return "", err
	}

	form, err := validation.ValidateDemographics(rawAge, gender, education, experience)
	if err != nil {
		c.logEvent(ctx, state, eventlog.Event{
			Type:     "validation_error",
			Category: eventlog.CategoryError,
			PageName: string(flow.PageDemographics),
			Action:   "submit",
			Metadata: map[string]interface{}{"error": err.Error()},
		})
		return "", err
	}

	state.DemographicsComplete = true

	c.persist(state, "demographics", func() error {
		return c.sink.SaveDemographics(ctx, state.ParticipantID, eventlog.DemographicsRecord{
			Age:        form.Age,
			Gender:     form.Gender,
			Education:  form.Education,
			Experience: form.Experience,
		})
	})
	c.logEvent(ctx, state, eventlog.Event{
		Type:      "demographics_submit",
		Category:  eventlog.CategoryInteraction,
		PageName:  string(flow.PageDemographics),
		ElementID: "demographics-submit",
		Action:    "submit",
	})

	c.setPage(ctx, state, flow.PageTutorial1)
	return flow.PageTutorial1, nil
}

// CompleteTutorial marks one tutorial round as finished and returns the
// next page: the second tutorial round, or the first task once all
// rounds are done.
func (c *Controller) CompleteTutorial(ctx context.Context, state *session.State, ref string) (flow.Page, error) {
	if _, err := c.catalog.Tutorial(ref); err != nil {
		return "", err
	}
	if err := c.checkAccess(ctx, state, flow.Page(ref)); err != nil {
		return "", err
	}

	state.TutorialDone(ref, c.catalog.NumTutorials())

	c.logEvent(ctx, state, eventlog.Event{
		Type:     "tutorial_complete",
		Category: eventlog.CategoryInteraction,
		PageName: string(state.Page),
		TaskRef:  ref,
		Action:   "submit",
	})

	next := flow.PageTask
	if !state.TutorialCompleted && ref == "tutorial_1" {
		next = flow.PageTutorial2
	}
	c.setPage(ctx, state, next)
	return next, nil
}

// RatingError is a user-facing rejection of a checkpoint rating.
type RatingError struct {
	Message string
}

func (e *RatingError) Error() string {
	return e.Message
}

// SubmitConfidenceRisk records one checkpoint self-report and routes the
// participant back into the task sequence, or to feedback when all
// tasks are done.
func (c *Controller) SubmitConfidenceRisk(ctx context.Context, state *session.State, confidence, risk int) (flow.Page, error) {
	if err := c.checkAccess(ctx, state, flow.PageConfidenceRisk); err != nil {
		return "", err
	}

	if confidence < c.study.SliderMin || confidence > c.study.SliderMax ||
		risk < c.study.SliderMin || risk > c.study.SliderMax {
		return "", &RatingError{Message: fmt.Sprintf(
			"Ratings must be between %d and %d", c.study.SliderMin, c.study.SliderMax)}
	}

	// The checkpoint is tied to the display number just completed
	completedAfter := state.TaskPointer - 1
	state.ConfidenceRiskComplete = true

	c.persist(state, "confidence_risk", func() error {
		return c.sink.SaveConfidenceRisk(ctx, state.ParticipantID, eventlog.ConfidenceRiskRecord{
			ConfidenceRating:   confidence,
			RiskRating:         risk,
			CompletedAfterTask: completedAfter,
		})
	})
	c.logEvent(ctx, state, eventlog.Event{
		Type:      "confidence_risk_submit",
		Category:  eventlog.CategoryInteraction,
		PageName:  string(flow.PageConfidenceRisk),
		ElementID: "confidence-risk-submit",
		Action:    "submit",
		Metadata: map[string]interface{}{
			"confidence_rating":    confidence,
			"risk_rating":          risk,
			"completed_after_task": completedAfter,
		},
	})

	next := flow.PageTask
	if state.TaskPointer > c.study.NumTasks {
		next = flow.PageFeedback
	}
	c.setPage(ctx, state, next)
	return next, nil
}

// SubmitFeedback records the optional free-text feedback, flags the
// participant as completed, and moves to the debrief page. Only
// reachable once every task is done.
func (c *Controller) SubmitFeedback(ctx context.Context, state *session.State, text string) (flow.Page, error) {
	if err := c.checkAccess(ctx, state, flow.PageFeedback); err != nil {
		return "", err
	}

	state.Completed = true

	c.persist(state, "feedback", func() error {
		return c.sink.SaveFeedback(ctx, state.ParticipantID, text)
	})
	c.persist(state, "completion", func() error {
		return c.sink.MarkCompleted(ctx, state.ParticipantID)
	})
	c.logEvent(ctx, state, eventlog.Event{
		Type:      "feedback_submit",
		Category:  eventlog.CategoryInteraction,
		PageName:  string(flow.PageFeedback),
		ElementID: "feedback-submit",
		Action:    "submit",
		Metadata: map[string]interface{}{
			"has_feedback": text != "",
		},
	})

	c.setPage(ctx, state, flow.PageDebrief)
	return flow.PageDebrief, nil
}
