package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/market"
	"github.com/borsetrader/rotation-backend/internal/models"
	"github.com/borsetrader/rotation-backend/internal/portfolio"
	"github.com/borsetrader/rotation-backend/internal/repository"
	"github.com/borsetrader/rotation-backend/internal/signal"
	"github.com/borsetrader/rotation-backend/internal/strategy"
)

// QuoteFetcher abstracts the quote source so the analyzer can be tested
// without the live API.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, isin string) (*models.Quote, error)
}

// QuoteRecorder persists quote snapshots per refresh cycle. Nil disables
// history recording.
type QuoteRecorder interface {
	Record(ctx context.Context, symbol string, cycleAt time.Time, q *models.Quote) (*models.QuotePoint, error)
	GetCycles(ctx context.Context, limit int) ([]repository.Cycle, error)
}

// Analyzer drives one refresh cycle: fetch quotes into the registry,
// keep the ledger's valuation current, run the delta analysis, and
// publish the resulting events.
type Analyzer struct {
	registry *market.Registry
	engine   *strategy.Engine
	ledger   *portfolio.Ledger
	tracker  *signal.Tracker
	bus      *signal.Bus
	fetcher  QuoteFetcher
	quotes   QuoteRecorder
}

func NewAnalyzer(
	registry *market.Registry,
	engine *strategy.Engine,
	ledger *portfolio.Ledger,
	tracker *signal.Tracker,
	bus *signal.Bus,
	fetcher QuoteFetcher,
	quotes QuoteRecorder,
) *Analyzer {
	return &Analyzer{
		registry: registry,
		engine:   engine,
		ledger:   ledger,
		tracker:  tracker,
		bus:      bus,
		fetcher:  fetcher,
		quotes:   quotes,
	}
}

// RefreshQuotes fetches a fresh quote for every instrument. Partial
// failures leave the previous quote in place; the refresh event reports
// how many instruments succeeded.
func (a *Analyzer) RefreshQuotes(ctx context.Context) (succeeded, total int) {
	cycleAt := time.Now().UTC().Truncate(time.Second)
	symbols := a.registry.Symbols()
	total = len(symbols)

	for _, sym := range symbols {
		inst, ok := a.registry.Instrument(sym)
		if !ok {
			continue
		}

		q, err := a.fetcher.FetchQuote(ctx, inst.ISIN)
		if err != nil {
			log.Warn().Str("symbol", sym).Err(err).Msg("quote fetch failed, keeping stale quote")
			continue
		}
		if err := a.registry.SetQuote(sym, q); err != nil {
			log.Error().Str("symbol", sym).Err(err).Msg("quote rejected by registry")
			continue
		}
		succeeded++

		if a.quotes != nil {
			if _, err := a.quotes.Record(ctx, sym, cycleAt, q); err != nil {
				log.Warn().Str("symbol", sym).Err(err).Msg("failed to record quote snapshot")
			}
		}
	}

	a.syncLedger(ctx)

	log.Info().Int("succeeded", succeeded).Int("total", total).Msg("quote refresh completed")
	a.bus.Publish(signal.Event{
		Type:      signal.EventRefreshCompleted,
		Succeeded: succeeded,
		Total:     total,
	})
	if succeeded == 0 && total > 0 {
		a.bus.Publish(signal.Event{
			Type: signal.EventError,
			Code: signal.CodeUpstreamUnavailable,
			Err:  fmt.Errorf("no quotes could be fetched (%d instruments)", total),
		})
	}
	return succeeded, total
}

// syncLedger initializes the share count when the held instrument's first
// usable price arrives, and refreshes the current valuation otherwise.
func (a *Analyzer) syncLedger(ctx context.Context) {
	held := a.ledger.CurrentETF()
	q := a.registry.Quote(held)
	if !q.HasPrice() {
		return
	}
	if !a.ledger.Portfolio().Initialized() {
		a.ledger.InitializeShares(ctx, *q.Price)
		return
	}
	a.ledger.UpdateValue(*q.Price)
}

// Analysis is the combined output of one analysis pass.
type Analysis struct {
	Deltas         []strategy.Delta         `json:"deltas"`
	Recommendation *strategy.Recommendation `json:"recommendation"`
	MarketStats    strategy.MarketStats     `json:"marketStats"`
	Timestamp      time.Time                `json:"timestamp"`
}

// Analyze computes deltas and the recommendation for the held instrument
// and publishes a new-signal event when the trade pair changed. Pure
// recomputation: identical inputs produce identical output and no second
// event.
func (a *Analyzer) Analyze() *Analysis {
	reference := a.ledger.CurrentETF()
	value := a.PortfolioValue()

	deltas := a.engine.ComputeDeltas(reference, value)
	rec := a.engine.Recommend(reference, value)

	if a.tracker.Observe(rec) {
		a.bus.Publish(signal.Event{
			Type:           signal.EventNewSignal,
			Recommendation: rec,
		})
	}

	return &Analysis{
		Deltas:         deltas,
		Recommendation: rec,
		MarketStats:    a.engine.MarketStats(deltas),
		Timestamp:      time.Now(),
	}
}

// Snapshot recomputes the analysis without touching the signal tracker
// or publishing events. Read path for the API.
func (a *Analyzer) Snapshot() *Analysis {
	reference := a.ledger.CurrentETF()
	value := a.PortfolioValue()

	deltas := a.engine.ComputeDeltas(reference, value)
	return &Analysis{
		Deltas:         deltas,
		Recommendation: a.engine.Recommend(reference, value),
		MarketStats:    a.engine.MarketStats(deltas),
		Timestamp:      time.Now(),
	}
}

// ExecuteRotation rotates the portfolio into targetETF at current
// registry prices.
func (a *Analyzer) ExecuteRotation(ctx context.Context, targetETF string) (*models.TradeRecord, error) {
	if !a.registry.Has(targetETF) {
		return nil, fmt.Errorf("%w: unknown instrument %s", portfolio.ErrPriceUnavailable, targetETF)
	}

	current := a.registry.Quote(a.ledger.CurrentETF())
	target := a.registry.Quote(targetETF)

	record, err := a.ledger.ExecuteTrade(ctx, targetETF, current, target)
	if err != nil {
		return nil, err
	}

	a.bus.Publish(signal.Event{
		Type: signal.EventTradeExecuted,
		Message: fmt.Sprintf("%s -> %s, %.4f shares at %.2f, value %.2f EUR",
			record.SoldETF, record.BoughtETF, record.BoughtShares, record.BoughtPrice, record.BoughtValue),
	})
	return record, nil
}

// OptimizeThresholds replays recorded refresh cycles against the
// candidate threshold grid.
func (a *Analyzer) OptimizeThresholds(ctx context.Context, maxCycles int) ([]strategy.ThresholdResult, error) {
	if a.quotes == nil {
		return nil, fmt.Errorf("quote history recording is disabled")
	}
	if maxCycles <= 0 {
		maxCycles = 500
	}

	cycles, err := a.quotes.GetCycles(ctx, maxCycles)
	if err != nil {
		return nil, fmt.Errorf("load quote history: %w", err)
	}

	history := make([]strategy.VariationCycle, len(cycles))
	for i, c := range cycles {
		history[i] = strategy.VariationCycle(c.Variations)
	}

	return strategy.OptimizeThreshold(history, a.ledger.CurrentETF(), a.PortfolioValue(), a.engine.Params().Fee)
}

// PortfolioValue is the valuation used for gain projections: the current
// value once initialized, the invested capital before that.
func (a *Analyzer) PortfolioValue() float64 {
	p := a.ledger.Portfolio()
	if p.Initialized() && p.CurrentValue > 0 {
		return p.CurrentValue
	}
	return p.InvestedValue
}
