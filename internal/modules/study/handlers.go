package study

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/aristath/mindset/internal/modules/validation"
)

// SessionHeader carries the participant's session id on every request
// after /session/start.
const SessionHeader = "X-Session-ID"

const taskLoadErrorMessage = "Error loading task data. Please refresh the page."

// Handlers exposes the participant flow over HTTP
type Handlers struct {
	controller *Controller
	log        zerolog.Logger
}

// NewHandlers creates a new study handlers instance
func NewHandlers(controller *Controller, log zerolog.Logger) *Handlers {
	return &Handlers{
		controller: controller,
		log:        log.With().Str("handler", "study").Logger(),
	}
}

// RegisterRoutes mounts the participant API
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/session/start", h.HandleStartSession)
	r.Get("/session", h.withSession(h.HandleGetSession))

	r.Post("/consent", h.withSession(h.HandleConsent))
	r.Post("/demographics", h.withSession(h.HandleDemographics))

	r.Get("/tutorial/{ref}", h.withSession(h.HandleGetTutorial))
	r.Post("/tutorial/{ref}/complete", h.withSession(h.HandleCompleteTutorial))

	r.Get("/task", h.withSession(h.HandleGetTask))
	r.Post("/task/info", h.withSession(h.HandleRequestInfo))
	r.Post("/task/info/confirm", h.withSession(h.HandleConfirmInfo))
	r.Post("/task/submit", h.withSession(h.HandleSubmitTask))

	r.Post("/confidence-risk", h.withSession(h.HandleConfidenceRisk))
	r.Post("/feedback", h.withSession(h.HandleFeedback))

	r.Post("/navigate", h.withSession(h.HandleNavigate))
	r.Post("/events", h.withSession(h.HandleClientEvent))
}

// sessionHandler is a handler that has already resolved the session
type sessionHandler func(w http.ResponseWriter, r *http.Request, state *session.State)

// withSession resolves the session id header to a live session
func (h *Handlers) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			writeError(w, http.StatusBadRequest, "Missing session id")
			return
		}

		state, ok := h.controller.Session(id)
		if !ok {
			writeError(w, http.StatusNotFound, "Session not found or expired")
			return
		}

		next(w, r, state)
	}
}

type startSessionResponse struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Page          flow.Page `json:"page"`
	Resumed       bool      `json:"resumed"`
}

// HandleStartSession creates or resumes a session
// POST /api/study/session/start
func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	// Session ids are minted server-side: a presented id is only honored
	// when it names a live session, never adopted as a new key
	id := r.Header.Get(SessionHeader)
	_, resumed := h.controller.Session(id)
	if !resumed {
		id = uuid.New().String()
	}

	meta := eventlog.ClientMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	state, err := h.controller.StartSession(r.Context(), id, meta)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start session")
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	writeJSON(w, http.StatusOK, startSessionResponse{
		SessionID:     state.ID,
		ParticipantID: state.ParticipantID,
		Page:          state.Page,
		Resumed:       resumed,
	})
}

type sessionResponse struct {
	SessionID     string    `json:"session_id"`
	Page          flow.Page `json:"page"`
	Balance       float64   `json:"balance"`
	TaskPointer   int       `json:"task_pointer"`
	InfoCostSpent float64   `json:"info_cost_spent"`
	Completed     bool      `json:"completed"`
}

// HandleGetSession returns the session's public state
// GET /api/study/session
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request, state *session.State) {
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:     state.ID,
		Page:          state.Page,
		Balance:       state.Balance,
		TaskPointer:   state.TaskPointer,
		InfoCostSpent: state.InfoCostSpent,
		Completed:     state.Completed,
	})
}

type pageResponse struct {
	Page flow.Page `json:"page"`
}

// HandleConsent records consent and advances to demographics
// POST /api/study/consent
func (h *Handlers) HandleConsent(w http.ResponseWriter, r *http.Request, state *session.State) {
	page := h.controller.GiveConsent(r.Context(), state)
	writeJSON(w, http.StatusOK, pageResponse{Page: page})
}

type demographicsRequest struct {
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
}

// HandleDemographics validates and stores the demographics form
// POST /api/study/demographics
func (h *Handlers) HandleDemographics(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req demographicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.controller.SubmitDemographics(r.Context(), state, req.Age, req.Gender, req.Education, req.Experience)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{Page: page})
}

// HandleGetTutorial returns a tutorial round's content
// GET /api/study/tutorial/{ref}
func (h *Handlers) HandleGetTutorial(w http.ResponseWriter, r *http.Request, state *session.State) {
	view, err := h.controller.TutorialTask(state, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleCompleteTutorial marks a tutorial round finished
// POST /api/study/tutorial/{ref}/complete
func (h *Handlers) HandleCompleteTutorial(w http.ResponseWriter, r *http.Request, state *session.State) {
	page, err := h.controller.CompleteTutorial(r.Context(), state, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{Page: page})
}

// HandleGetTask returns the current task's view
// GET /api/study/task
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request, state *session.State) {
	view, err := h.controller.CurrentTask(state)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type infoRequest struct {
	InfoType   string `json:"info_type"`
	StockIndex int    `json:"stock_index"`
}

// HandleRequestInfo starts or completes an info purchase
// POST /api/study/task/info
func (h *Handlers) HandleRequestInfo(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req infoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	infoType := catalog.InfoType(req.InfoType)
	if !catalog.ValidInfoType(infoType) {
		writeError(w, http.StatusBadRequest, "Unknown information type")
		return
	}

	outcome, err := h.controller.RequestInfo(r.Context(), state, infoType, req.StockIndex)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

type confirmInfoRequest struct {
	Accept bool `json:"accept"`
}

// HandleConfirmInfo accepts or cancels the pending info purchase
// POST /api/study/task/info/confirm
func (h *Handlers) HandleConfirmInfo(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req confirmInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.controller.ConfirmInfo(r.Context(), state, req.Accept)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

type submitTaskRequest struct {
	Investments []string `json:"investments"`
}

// HandleSubmitTask validates and settles the current task
// POST /api/study/task/submit
func (h *Handlers) HandleSubmitTask(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.controller.SubmitTask(r.Context(), state, req.Investments)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type confidenceRiskRequest struct {
	Confidence int `json:"confidence"`
	Risk       int `json:"risk"`
}

// HandleConfidenceRisk stores the checkpoint ratings
// POST /api/study/confidence-risk
func (h *Handlers) HandleConfidenceRisk(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req confidenceRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.controller.SubmitConfidenceRisk(r.Context(), state, req.Confidence, req.Risk)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{Page: page})
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// HandleFeedback stores free-text feedback and completes the study
// POST /api/study/feedback
func (h *Handlers) HandleFeedback(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.controller.SubmitFeedback(r.Context(), state, req.Feedback)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{Page: page})
}

type navigateRequest struct {
	Page string `json:"page"`
}

type navigateResponse struct {
	Allowed    bool      `json:"allowed"`
	Page       flow.Page `json:"page"`
	RedirectTo flow.Page `json:"redirect_to,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// HandleNavigate requests a page change. Denied requests return the
// redirect target and reason with a 200; the client shows the message
// and follows the redirect.
// POST /api/study/navigate
func (h *Handlers) HandleNavigate(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page := flow.Page(req.Page)
	if !page.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown page: %s", req.Page))
		return
	}

	decision := h.controller.Navigate(r.Context(), state, page)
	resp := navigateResponse{
		Allowed: decision.Allowed,
		Page:    state.Page,
	}
	if !decision.Allowed {
		resp.RedirectTo = decision.RedirectTo
		resp.Reason = decision.Reason
	}

	writeJSON(w, http.StatusOK, resp)
}

type clientEventRequest struct {
	Type        string `json:"event_type"`
	Category    string `json:"event_category"`
	ElementID   string `json:"element_id"`
	ElementType string `json:"element_type"`
	Action      string `json:"action"`
	OldValue    string `json:"old_value"`
	NewValue    string `json:"new_value"`
	StockTicker string `json:"stock_ticker"`
}

// HandleClientEvent records a client-side interaction event
// POST /api/study/events
func (h *Handlers) HandleClientEvent(w http.ResponseWriter, r *http.Request, state *session.State) {
	var req clientEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing event type")
		return
	}

	h.controller.RecordInteraction(r.Context(), state, eventlog.Event{
		Type:        req.Type,
		Category:    req.Category,
		ElementID:   req.ElementID,
		ElementType: req.ElementType,
		Action:      req.Action,
		OldValue:    req.OldValue,
		NewValue:    req.NewValue,
		StockTicker: req.StockTicker,
	})

	w.WriteHeader(http.StatusNoContent)
}

// writeActionError maps domain errors to HTTP responses. Participant
// mistakes come back as 400 with the exact message the page shows
// inline; content problems surface as the generic task-load error.
func (h *Handlers) writeActionError(w http.ResponseWriter, err error) {
	var (
		investmentErr   *validation.InvestmentError
		totalErr        *validation.TotalError
		demographicsErr *validation.DemographicsError
		infoErr         *InfoError
		ratingErr       *RatingError
		accessErr       *AccessError
		notFoundErr     *catalog.NotFoundError
		dataErr         *catalog.DataError
	)

	switch {
	case errors.As(err, &accessErr):
		writeJSON(w, http.StatusForbidden, deniedResponse{
			Error:      accessErr.Decision.Reason,
			RedirectTo: accessErr.Decision.RedirectTo,
		})
	case errors.As(err, &investmentErr),
		errors.As(err, &totalErr),
		errors.As(err, &demographicsErr),
		errors.As(err, &infoErr),
		errors.As(err, &ratingErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &dataErr):
		h.log.Error().Err(err).Msg("Task content error")
		writeError(w, http.StatusInternalServerError, taskLoadErrorMessage)
	default:
		h.log.Error().Err(err).Msg("Unhandled action error")
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// deniedResponse is the body of an out-of-order submission rejection.
type deniedResponse struct {
	Error      string    `json:"error"`
	RedirectTo flow.Page `json:"redirect_to"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
