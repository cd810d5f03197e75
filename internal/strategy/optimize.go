package strategy

import (
	"fmt"
	"sort"
)

// VariationCycle is one historical refresh snapshot: the change percent of
// every instrument that had usable data at that moment.
type VariationCycle map[string]float64

// ThresholdResult is the simulated outcome of running the signal policy
// with one candidate threshold over a variation history.
type ThresholdResult struct {
	Threshold     float64 `json:"threshold"`
	TotalProfit   float64 `json:"totalProfit"`
	TradeCount    int     `json:"tradeCount"`
	AverageProfit float64 `json:"averageProfit"`
}

var candidateThresholds = []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// OptimizeThreshold replays recorded variation cycles against a grid of
// candidate thresholds and ranks them by total simulated net profit. This
// is a naive offline analysis over signal-time gains, not a backtest of
// executed rotations.
func OptimizeThreshold(cycles []VariationCycle, reference string, portfolioValue, fee float64) ([]ThresholdResult, error) {
	if len(cycles) == 0 {
		return nil, fmt.Errorf("no variation history to optimize over")
	}
	if portfolioValue <= 0 {
		return nil, fmt.Errorf("portfolio value must be positive")
	}

	results := make([]ThresholdResult, 0, len(candidateThresholds))

	for _, threshold := range candidateThresholds {
		var totalProfit float64
		tradeCount := 0

		for _, cycle := range cycles {
			refVar, ok := cycle[reference]
			if !ok {
				continue
			}
			for sym, v := range cycle {
				if sym == reference {
					continue
				}
				delta := refVar - v
				if delta > threshold {
					totalProfit += PotentialGain(delta, portfolioValue) - fee
					tradeCount++
				}
			}
		}

		r := ThresholdResult{
			Threshold:   threshold,
			TotalProfit: totalProfit,
			TradeCount:  tradeCount,
		}
		if tradeCount > 0 {
			r.AverageProfit = totalProfit / float64(tradeCount)
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalProfit > results[j].TotalProfit
	})
	return results, nil
}
