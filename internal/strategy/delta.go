package strategy

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/market"
	"github.com/borsetrader/rotation-backend/internal/models"
)

// Delta is the computed performance gap between the reference instrument
// and one rotation candidate. Recomputed on every analysis, never stored.
type Delta struct {
	TargetETF        string  `json:"targetETF"`
	Delta            float64 `json:"delta"`
	CurrentVariation float64 `json:"currentVariation"`
	TargetVariation  float64 `json:"targetVariation"`
	CurrentPrice     float64 `json:"currentPrice"`
	TargetPrice      float64 `json:"targetPrice"`
	PotentialGain    float64 `json:"potentialGain"`
	NetGain          float64 `json:"netGain"`
	Confidence       float64 `json:"confidence"`
}

type Params struct {
	Threshold float64 // delta percent that triggers a trade signal
	Fee       float64 // fixed fee per rotation
}

type Engine struct {
	registry *market.Registry
	params   Params
}

func NewEngine(registry *market.Registry, params Params) *Engine {
	return &Engine{registry: registry, params: params}
}

func (e *Engine) Params() Params {
	return e.params
}

// ComputeDeltas returns the deltas of reference against every other
// instrument with variation data, sorted descending by delta. Equal
// deltas keep basket order. An unusable reference yields an empty result;
// missing data is a steady state, not an error.
func (e *Engine) ComputeDeltas(reference string, portfolioValue float64) []Delta {
	refQuote := e.registry.Quote(reference)
	if !refQuote.HasVariation() {
		log.Debug().Str("symbol", reference).Msg("no variation data for reference instrument")
		return nil
	}

	refVar := refQuote.Variation()
	var deltas []Delta

	for _, sym := range e.registry.Symbols() {
		if sym == reference {
			continue
		}
		q := e.registry.Quote(sym)
		if !q.HasVariation() {
			log.Debug().Str("symbol", sym).Msg("no variation data, skipping")
			continue
		}

		d := refVar - q.Variation()
		potential := PotentialGain(d, portfolioValue)

		deltas = append(deltas, Delta{
			TargetETF:        sym,
			Delta:            d,
			CurrentVariation: refVar,
			TargetVariation:  q.Variation(),
			CurrentPrice:     priceOrZero(refQuote),
			TargetPrice:      priceOrZero(q),
			PotentialGain:    potential,
			NetGain:          potential - e.params.Fee,
			Confidence:       Confidence(d, refVar, q.Variation()),
		})
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Delta > deltas[j].Delta
	})
	return deltas
}

// PotentialGain is the gross gain of rotating a portfolio of the given
// value across a delta, before fees.
func PotentialGain(delta, portfolioValue float64) float64 {
	return portfolioValue * delta / 100
}

// Confidence scores a delta signal on a 0-100 heuristic scale: the delta
// magnitude is the base, opposite-sign variations add 20 (zero counts as
// non-opposite), and a delta above 1.0% adds another 15.
func Confidence(delta, currentVar, targetVar float64) float64 {
	confidence := math.Min(math.Abs(delta)/2, 100)

	if (currentVar > 0 && targetVar < 0) || (currentVar < 0 && targetVar > 0) {
		confidence += 20
	}
	if math.Abs(delta) > 1.0 {
		confidence += 15
	}

	return math.Min(math.Max(confidence, 0), 100)
}

func priceOrZero(q *models.Quote) float64 {
	if q.HasPrice() {
		return *q.Price
	}
	return 0
}
