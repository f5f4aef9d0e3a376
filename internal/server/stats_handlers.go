package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/mindset/internal/modules/stats"
)

// StatsHandlers serves aggregate study statistics to researchers
type StatsHandlers struct {
	service *stats.Service
	log     zerolog.Logger
}

// NewStatsHandlers creates a new stats handlers instance
func NewStatsHandlers(service *stats.Service, log zerolog.Logger) *StatsHandlers {
	return &StatsHandlers{
		service: service,
		log:     log.With().Str("handler", "stats").Logger(),
	}
}

// HandleSummary returns the aggregate study summary
// GET /api/stats/summary
func (h *StatsHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute study summary")
		http.Error(w, "Failed to compute study summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary) // Ignore encode error - already committed response
}
