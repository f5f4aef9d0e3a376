// Package stats computes descriptive statistics over the collected
// study data, for the researcher-facing summary endpoint.
package stats

import (
	"context"
	"fmt"

	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Source is the slice of the event store the service reads from.
type Source interface {
	StudyStatistics(ctx context.Context) (*eventlog.StudyStatistics, error)
	TotalInvestedByParticipant(ctx context.Context) ([]float64, error)
	ProfitLossByParticipant(ctx context.Context) ([]float64, error)
	ConfidenceRatings(ctx context.Context) ([]float64, error)
	RiskRatings(ctx context.Context) ([]float64, error)
}

// Distribution is a descriptive summary of one measured variable.
type Distribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is the full researcher-facing study summary.
type Summary struct {
	TotalParticipants        int          `json:"total_participants"`
	CompletedParticipants    int          `json:"completed_participants"`
	CompletionRate           float64      `json:"completion_rate"`
	AvgCompletionTimeMinutes float64      `json:"avg_completion_time_minutes"`
	TotalEvents              int          `json:"total_events"`
	TotalInvested            Distribution `json:"total_invested"`
	ProfitLoss               Distribution `json:"profit_loss"`
	Confidence               Distribution `json:"confidence"`
	Risk                     Distribution `json:"risk"`
}

// Service computes study summaries.
type Service struct {
	source Source
	log    zerolog.Logger
}

// NewService creates a stats service over the given data source.
func NewService(source Source, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		log:    logger.With().Str("component", "stats").Logger(),
	}
}

// Summary computes the full study summary.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	base, err := s.source.StudyStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load study statistics: %w", err)
	}

	summary := &Summary{
		TotalParticipants:        base.TotalParticipants,
		CompletedParticipants:    base.CompletedParticipants,
		AvgCompletionTimeMinutes: base.AvgCompletionTimeMinutes,
		TotalEvents:              base.TotalEvents,
	}
	if base.TotalParticipants > 0 {
		summary.CompletionRate = float64(base.CompletedParticipants) / float64(base.TotalParticipants)
	}

	loaders := []struct {
		name string
		load func(context.Context) ([]float64, error)
		dest *Distribution
	}{
		{"total_invested", s.source.TotalInvestedByParticipant, &summary.TotalInvested},
		{"profit_loss", s.source.ProfitLossByParticipant, &summary.ProfitLoss},
		{"confidence", s.source.ConfidenceRatings, &summary.Confidence},
		{"risk", s.source.RiskRatings, &summary.Risk},
	}
	for _, l := range loaders {
		values, err := l.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s values: %w", l.name, err)
		}
		*l.dest = Describe(values)
	}

	return summary, nil
}

// Describe computes the descriptive summary of one variable. An empty
// sample yields a zero distribution rather than NaNs.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	d := Distribution{
		N:    len(values),
		Mean: stat.Mean(values, nil),
		Min:  values[0],
		Max:  values[0],
	}
	if len(values) > 1 {
		d.StdDev = stat.StdDev(values, nil)
	}
	for _, v := range values[1:] {
		if v < d.Min {
			d.Min = v
		}
		if v > d.Max {
			d.Max = v
		}
	}

	return d
}
