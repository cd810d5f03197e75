package strategy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Action string

const (
	ActionTrade Action = "trade"
	ActionHold  Action = "hold"
)

// Recommendation is the verdict of one analysis: rotate into another
// instrument, or hold the current one. Exactly one per analysis call; a
// nil recommendation means insufficient data.
type Recommendation struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`

	// Trade fields
	FromETF          string  `json:"fromETF,omitempty"`
	ToETF            string  `json:"toETF,omitempty"`
	Delta            float64 `json:"delta,omitempty"`
	CurrentVariation float64 `json:"currentVariation,omitempty"`
	TargetVariation  float64 `json:"targetVariation,omitempty"`
	PotentialGain    float64 `json:"potentialGain,omitempty"`
	NetGain          float64 `json:"netGain,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`

	// Hold fields
	CurrentETF string  `json:"currentETF,omitempty"`
	BestDelta  float64 `json:"bestDelta,omitempty"`
}

// Recommend runs the delta engine for reference and applies the threshold
// policy: the first delta strictly above the threshold (deltas are sorted
// descending, so the best one) becomes a trade signal; otherwise hold.
// Returns nil when no delta is computable.
func (e *Engine) Recommend(reference string, portfolioValue float64) *Recommendation {
	deltas := e.ComputeDeltas(reference, portfolioValue)
	if len(deltas) == 0 {
		log.Debug().Str("symbol", reference).Msg("no deltas computable, no recommendation")
		return nil
	}

	for _, d := range deltas {
		if d.Delta > e.params.Threshold {
			log.Info().
				Str("from", reference).
				Str("to", d.TargetETF).
				Float64("delta", d.Delta).
				Msg("trade signal detected")

			return &Recommendation{
				Action:           ActionTrade,
				Timestamp:        time.Now(),
				FromETF:          reference,
				ToETF:            d.TargetETF,
				Delta:            d.Delta,
				CurrentVariation: d.CurrentVariation,
				TargetVariation:  d.TargetVariation,
				PotentialGain:    d.PotentialGain,
				NetGain:          d.NetGain,
				Confidence:       d.Confidence,
				Reason: fmt.Sprintf("delta of %.2f%% exceeds threshold of %.2f%%",
					d.Delta, e.params.Threshold),
			}
		}
	}

	best := deltas[0]
	return &Recommendation{
		Action:     ActionHold,
		Timestamp:  time.Now(),
		CurrentETF: reference,
		BestDelta:  best.Delta,
		Reason: fmt.Sprintf("best delta of %.2f%% below threshold of %.2f%%",
			best.Delta, e.params.Threshold),
	}
}
