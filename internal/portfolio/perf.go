package portfolio

import (
	"github.com/borsetrader/rotation-backend/internal/models"
	"github.com/borsetrader/rotation-backend/internal/strategy"
)

// Stats is the read-side summary of the portfolio and its trade log.
type Stats struct {
	CurrentETF         string  `json:"currentETF"`
	Shares             float64 `json:"shares"`
	CurrentValue       float64 `json:"currentValue"`
	InvestedValue      float64 `json:"investedValue"`
	Performance        float64 `json:"performance"`
	PerformancePercent float64 `json:"performancePercent"`
	TotalFees          float64 `json:"totalFees"`
	TotalTrades        int     `json:"totalTrades"`
	ProfitableTrades   int     `json:"profitableTrades"`
	SuccessRate        float64 `json:"successRate"`
	TotalVolume        float64 `json:"totalVolume"`
	AverageTradeValue  float64 `json:"averageTradeValue"`
	Initialized        bool    `json:"initialized"`
}

// Stats derives summary statistics from the current state. Pure read
// path: calling it twice without an intervening mutation yields identical
// values.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	p := l.portfolio
	logs := make([]models.TradeRecord, len(l.logs))
	copy(logs, l.logs)
	l.mu.Unlock()

	s := Stats{
		CurrentETF:         p.CurrentETF,
		Shares:             p.Shares,
		CurrentValue:       p.CurrentValue,
		InvestedValue:      p.InvestedValue,
		Performance:        p.Performance,
		PerformancePercent: p.PerformancePercent,
		TotalFees:          p.TotalFees,
		TotalTrades:        len(logs),
		Initialized:        p.Initialized(),
	}

	for _, rec := range logs {
		if rec.ValueDifference > 0 {
			s.ProfitableTrades++
		}
		s.TotalVolume += rec.SoldValue
	}
	if s.TotalTrades > 0 {
		s.SuccessRate = float64(s.ProfitableTrades) / float64(s.TotalTrades) * 100
		s.AverageTradeValue = s.TotalVolume / float64(s.TotalTrades)
	}
	return s
}

// SignalPerformance summarizes the emitted trade signals of a session,
// judged by their net gain at signal time.
type SignalPerformance struct {
	TotalSignals      int                      `json:"totalSignals"`
	SuccessfulSignals int                      `json:"successfulSignals"`
	SuccessRate       float64                  `json:"successRate"`
	AverageGain       float64                  `json:"averageGain"`
	TotalProfit       float64                  `json:"totalProfit"`
	BestSignal        *strategy.Recommendation `json:"bestSignal,omitempty"`
	WorstSignal       *strategy.Recommendation `json:"worstSignal,omitempty"`
}

// AnalyzeSignals aggregates a trade-signal history. Hold recommendations
// never enter the history, so every entry carries a net gain.
func AnalyzeSignals(history []strategy.Recommendation) SignalPerformance {
	perf := SignalPerformance{TotalSignals: len(history)}
	if len(history) == 0 {
		return perf
	}

	best := 0
	worst := 0
	for i, sig := range history {
		perf.TotalProfit += sig.NetGain
		if sig.NetGain > 0 {
			perf.SuccessfulSignals++
		}
		if sig.NetGain > history[best].NetGain {
			best = i
		}
		if sig.NetGain < history[worst].NetGain {
			worst = i
		}
	}

	perf.SuccessRate = float64(perf.SuccessfulSignals) / float64(perf.TotalSignals) * 100
	perf.AverageGain = perf.TotalProfit / float64(perf.TotalSignals)
	b := history[best]
	w := history[worst]
	perf.BestSignal = &b
	perf.WorstSignal = &w
	return perf
}

// SimulationStep is one replayed trade in the historical simulation.
type SimulationStep struct {
	TradeIndex       int     `json:"tradeIndex"`
	Trade            string  `json:"trade"`
	BeforeValue      float64 `json:"beforeValue"`
	AfterValue       float64 `json:"afterValue"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"changePercent"`
	CumulativeReturn float64 `json:"cumulativeReturn"`
}

type Simulation struct {
	InitialValue       float64          `json:"initialValue"`
	FinalValue         float64          `json:"finalValue"`
	TotalReturn        float64          `json:"totalReturn"`
	TotalReturnPercent float64          `json:"totalReturnPercent"`
	TotalFees          float64          `json:"totalFees"`
	NetReturn          float64          `json:"netReturn"`
	History            []SimulationStep `json:"history"`
}

// Simulate replays the trade log in order, taking each record's bought
// value as the new baseline, and reports the cumulative return relative
// to the invested value, net of accumulated fees. Deterministic and
// side-effect free.
func (l *Ledger) Simulate() Simulation {
	l.mu.Lock()
	invested := l.portfolio.InvestedValue
	totalFees := l.portfolio.TotalFees
	logs := make([]models.TradeRecord, len(l.logs))
	copy(logs, l.logs)
	l.mu.Unlock()

	value := invested
	steps := make([]SimulationStep, 0, len(logs))
	for i, rec := range logs {
		before := value
		value = rec.BoughtValue

		step := SimulationStep{
			TradeIndex:  i + 1,
			Trade:       rec.SoldETF + " -> " + rec.BoughtETF,
			BeforeValue: before,
			AfterValue:  value,
			Change:      value - before,
		}
		if before != 0 {
			step.ChangePercent = (value - before) / before * 100
		}
		if invested != 0 {
			step.CumulativeReturn = (value - invested) / invested * 100
		}
		steps = append(steps, step)
	}

	sim := Simulation{
		InitialValue: invested,
		FinalValue:   value,
		TotalReturn:  value - invested,
		TotalFees:    totalFees,
		NetReturn:    value - invested - totalFees,
		History:      steps,
	}
	if invested != 0 {
		sim.TotalReturnPercent = (value - invested) / invested * 100
	}
	return sim
}
