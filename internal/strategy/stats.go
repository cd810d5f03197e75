package strategy

import "math"

// MarketStats summarizes one delta computation across the basket.
type MarketStats struct {
	AverageDelta       float64 `json:"averageDelta"`
	MaxDelta           float64 `json:"maxDelta"`
	MinDelta           float64 `json:"minDelta"`
	TradeOpportunities int     `json:"tradeOpportunities"`
	Volatility         float64 `json:"volatility"`
	TotalETFs          int     `json:"totalETFs"`
}

// MarketStats derives summary statistics from a delta list: average, max,
// min, the count of deltas above the trading threshold, and the standard
// deviation of all deltas.
func (e *Engine) MarketStats(deltas []Delta) MarketStats {
	if len(deltas) == 0 {
		return MarketStats{}
	}

	var sum, maxD, minD float64
	maxD = deltas[0].Delta
	minD = deltas[0].Delta
	opportunities := 0

	for _, d := range deltas {
		sum += d.Delta
		if d.Delta > maxD {
			maxD = d.Delta
		}
		if d.Delta < minD {
			minD = d.Delta
		}
		if d.Delta > e.params.Threshold {
			opportunities++
		}
	}
	avg := sum / float64(len(deltas))

	var variance float64
	for _, d := range deltas {
		variance += (d.Delta - avg) * (d.Delta - avg)
	}
	variance /= float64(len(deltas))

	return MarketStats{
		AverageDelta:       avg,
		MaxDelta:           maxD,
		MinDelta:           minD,
		TradeOpportunities: opportunities,
		Volatility:         math.Sqrt(variance),
		TotalETFs:          len(deltas) + 1,
	}
}
