// Package flow implements the page-access state machine.
//
// Every navigation request is checked against the participant's
// accumulated progress; a denied request yields a redirect target and a
// human-readable reason instead of an error. Decisions are recomputed on
// every request rather than cached, so access that becomes invalid after
// state tampering is caught on the next check.
package flow

import "fmt"

// Page identifies one page of the study.
type Page string

const (
	PageConsent        Page = "consent"
	PageDemographics   Page = "demographics"
	PageTutorial1      Page = "tutorial_1"
	PageTutorial2      Page = "tutorial_2"
	PageTask           Page = "task"
	PageConfidenceRisk Page = "confidence_risk"
	PageFeedback       Page = "feedback"
	PageDebrief        Page = "debrief"
	PageThankYou       Page = "thank_you"
)

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	switch p {
	case PageConsent, PageDemographics, PageTutorial1, PageTutorial2,
		PageTask, PageConfidenceRisk, PageFeedback, PageDebrief, PageThankYou:
		return true
	}
	return false
}

// Progress holds the markers that gate page access. It is a snapshot of
// the session state, never mutated by the guard.
type Progress struct {
	ConsentGiven           bool
	DemographicsComplete   bool
	TaskPointer            int // 1-based display number of the next task
	ConfidenceRiskComplete bool
}

// Decision is the outcome of an access check. When Allowed is false,
// RedirectTo names the page the participant should be sent to and Reason
// the message to display on the way.
type Decision struct {
	Allowed    bool
	RedirectTo Page
	Reason     string
}

// Guard decides page access from study parameters fixed at startup.
type Guard struct {
	numTasks        int
	firstCheckpoint int // lowest checkpoint value; 0 when no checkpoints configured
}

// NewGuard creates a page-access guard for a study with the given number
// of main tasks and the lowest confidence/risk checkpoint.
func NewGuard(numTasks, firstCheckpoint int) *Guard {
	return &Guard{numTasks: numTasks, firstCheckpoint: firstCheckpoint}
}

var allowed = Decision{Allowed: true}

// CheckAccess decides whether the requested page may be shown given the
// participant's progress.
func (g *Guard) CheckAccess(requested Page, p Progress) Decision {
	switch requested {
	case PageConsent:
		// Entry point, always accessible
		return allowed

	case PageDemographics:
		if !p.ConsentGiven {
			return denied(PageConsent, "Please provide consent before continuing")
		}
		return allowed

	case PageTutorial1, PageTutorial2:
		if !p.ConsentGiven {
			return denied(PageConsent, "Please provide consent before continuing")
		}
		if !p.DemographicsComplete {
			return denied(PageDemographics, "Please complete demographics before starting tutorials")
		}
		return allowed

	case PageTask:
		// Tutorials are encouraged but not enforced as a hard gate
		if !p.ConsentGiven {
			return denied(PageConsent, "Please provide consent before continuing")
		}
		if !p.DemographicsComplete {
			return denied(PageDemographics, "Please complete demographics before starting tasks")
		}
		return allowed

	case PageConfidenceRisk:
		if g.firstCheckpoint == 0 {
			return denied(PageTask, "No checkpoint is configured for this study")
		}
		if p.TaskPointer <= g.firstCheckpoint {
			return denied(PageTask, fmt.Sprintf("Please complete task %d first", g.firstCheckpoint))
		}
		return allowed

	case PageFeedback:
		if p.TaskPointer <= g.numTasks {
			return denied(PageTask, fmt.Sprintf("Please complete all %d tasks first", g.numTasks))
		}
		return allowed

	case PageDebrief, PageThankYou:
		// Terminal-adjacent pages, always accessible once reached
		return allowed
	}

	return denied(PageConsent, fmt.Sprintf("Unknown page: %s", requested))
}

func denied(redirect Page, reason string) Decision {
	return Decision{Allowed: false, RedirectTo: redirect, Reason: reason}
}
