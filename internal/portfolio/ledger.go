package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/models"
)

// Store persists the portfolio document. A nil Store keeps the ledger
// purely in-memory.
type Store interface {
	Save(ctx context.Context, doc *models.PortfolioDocument) error
	Load(ctx context.Context) (*models.PortfolioDocument, error)
}

type Options struct {
	DefaultETF    string
	InvestedValue float64
	Fee           float64
	// ReferencePrice, when positive, allows deriving an initial share
	// count before any live quote exists. Disabled (0) by default; using
	// it is logged and flagged on the portfolio.
	ReferencePrice float64
}

// Ledger owns the single-position paper portfolio and its trade log.
// Two logical states: Uninitialized (shares == 0, waiting for a usable
// price of the held instrument) and Holding (shares > 0). A rotation
// sells everything and immediately reinvests, so shares never return
// to zero.
type Ledger struct {
	mu      sync.Mutex
	tradeMu sync.Mutex // single in-flight guard for ExecuteTrade

	store Store
	opts  Options

	portfolio models.Portfolio
	logs      []models.TradeRecord
}

func NewLedger(store Store, opts Options) *Ledger {
	return &Ledger{
		store: store,
		opts:  opts,
		portfolio: models.Portfolio{
			CurrentETF:    opts.DefaultETF,
			InvestedValue: opts.InvestedValue,
		},
	}
}

// Load restores persisted state. A load failure is a warning: the ledger
// stays authoritative in memory for the session.
func (l *Ledger) Load(ctx context.Context) {
	if l.store == nil {
		return
	}
	doc, err := l.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load portfolio state, starting fresh")
		return
	}
	if doc == nil {
		log.Info().Msg("no saved portfolio found")
		return
	}

	l.mu.Lock()
	l.portfolio = doc.Portfolio
	l.logs = doc.TradingLogs
	l.mu.Unlock()

	log.Info().
		Str("currentETF", doc.Portfolio.CurrentETF).
		Int("trades", len(doc.TradingLogs)).
		Msg("portfolio loaded")
}

// InitializeShares establishes the share count from the first usable price
// of the held instrument. A no-op when already initialized or when price
// is not positive.
func (l *Ledger) InitializeShares(ctx context.Context, price float64) bool {
	l.mu.Lock()
	if l.portfolio.Initialized() || price <= 0 {
		l.mu.Unlock()
		return false
	}
	l.portfolio.Shares = l.portfolio.InvestedValue / price
	l.portfolio.InitializedFromReference = false
	l.refreshValueLocked(price)
	doc := l.documentLocked()
	shares := l.portfolio.Shares
	etf := l.portfolio.CurrentETF
	l.mu.Unlock()

	log.Info().
		Str("etf", etf).
		Float64("shares", shares).
		Float64("price", price).
		Msg("portfolio initialized")

	l.persist(ctx, doc)
	return true
}

// InitializeFromReference derives a share count from the configured
// reference price instead of a live quote. Only used when explicitly
// enabled; the fabricated share count is flagged and logged.
func (l *Ledger) InitializeFromReference(ctx context.Context) bool {
	if l.opts.ReferencePrice <= 0 {
		return false
	}

	l.mu.Lock()
	if l.portfolio.Initialized() {
		l.mu.Unlock()
		return false
	}
	l.portfolio.Shares = l.portfolio.InvestedValue / l.opts.ReferencePrice
	l.portfolio.InitializedFromReference = true
	doc := l.documentLocked()
	etf := l.portfolio.CurrentETF
	l.mu.Unlock()

	log.Warn().
		Str("etf", etf).
		Float64("referencePrice", l.opts.ReferencePrice).
		Msg("no live quote available, share count derived from configured reference price")

	l.persist(ctx, doc)
	return true
}

// ExecuteTrade rotates the whole position into targetETF at the given
// quotes. Either every effect commits (new instrument, new shares,
// appended record, fee total) and the state persists, or nothing changes
// and a typed error describes why. Concurrent calls are rejected, not
// queued.
func (l *Ledger) ExecuteTrade(ctx context.Context, targetETF string, current, target *models.Quote) (*models.TradeRecord, error) {
	if !l.tradeMu.TryLock() {
		return nil, ErrTradeInFlight
	}
	defer l.tradeMu.Unlock()

	l.mu.Lock()

	if !l.portfolio.Initialized() {
		l.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if targetETF == l.portfolio.CurrentETF {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSameInstrument, targetETF)
	}
	if !current.HasPrice() {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, l.portfolio.CurrentETF)
	}
	if !target.HasPrice() {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, targetETF)
	}

	currentPrice := *current.Price
	targetPrice := *target.Price

	saleValue := l.portfolio.Shares * currentPrice
	available := saleValue - l.opts.Fee
	if available <= 0 {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: sale value %.2f, fee %.2f", ErrFeeExceedsProceeds, saleValue, l.opts.Fee)
	}

	newShares := available / targetPrice
	boughtValue := newShares * targetPrice

	previousValue := l.portfolio.CurrentValue
	if previousValue == 0 {
		previousValue = saleValue
	}

	delta := current.Variation() - target.Variation()
	record := models.TradeRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),

		SoldETF:       l.portfolio.CurrentETF,
		SoldPrice:     currentPrice,
		SoldVariation: current.Variation(),
		SoldShares:    l.portfolio.Shares,
		SoldValue:     saleValue,

		BoughtETF:       targetETF,
		BoughtPrice:     targetPrice,
		BoughtVariation: target.Variation(),
		BoughtShares:    newShares,
		BoughtValue:     boughtValue,

		TradingFees:     l.opts.Fee,
		PreviousValue:   previousValue,
		ValueDifference: boughtValue - previousValue,
		Reason: fmt.Sprintf("delta %.2f%% (%s: %.2f%% vs %s: %.2f%%)",
			delta, l.portfolio.CurrentETF, current.Variation(), targetETF, target.Variation()),
		ExpectedGain: saleValue*delta/100 - l.opts.Fee,
	}

	// Commit
	l.portfolio.CurrentETF = targetETF
	l.portfolio.Shares = newShares
	l.portfolio.TotalFees += l.opts.Fee
	l.portfolio.InitializedFromReference = false
	l.refreshValueLocked(targetPrice)
	l.logs = append(l.logs, record)
	doc := l.documentLocked()
	l.mu.Unlock()

	log.Info().
		Str("sold", record.SoldETF).
		Str("bought", record.BoughtETF).
		Float64("shares", record.BoughtShares).
		Float64("value", record.BoughtValue).
		Float64("valueDifference", record.ValueDifference).
		Msg("trade executed")

	l.persist(ctx, doc)
	return &record, nil
}

// UpdateValue refreshes the current value and performance of the held
// position from the latest known price. Read-path only: no persistence,
// idempotent for identical inputs.
func (l *Ledger) UpdateValue(price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.portfolio.Initialized() || price <= 0 {
		return
	}
	l.refreshValueLocked(price)
}

// Reset returns the ledger to a fresh uninitialized state on the default
// instrument, clears the trade log, and persists immediately.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	l.portfolio = models.Portfolio{
		CurrentETF:    l.opts.DefaultETF,
		InvestedValue: l.opts.InvestedValue,
	}
	l.logs = nil
	doc := l.documentLocked()
	l.mu.Unlock()

	log.Info().
		Str("etf", l.opts.DefaultETF).
		Float64("investedValue", l.opts.InvestedValue).
		Msg("portfolio reset")

	l.persist(ctx, doc)
}

// DeleteRecord removes one trade record by id. Log correction only: the
// portfolio position is not recomputed.
func (l *Ledger) DeleteRecord(ctx context.Context, id string) (*models.TradeRecord, error) {
	l.mu.Lock()
	idx := -1
	for i, rec := range l.logs {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	deleted := l.logs[idx]
	l.logs = append(l.logs[:idx], l.logs[idx+1:]...)
	doc := l.documentLocked()
	l.mu.Unlock()

	log.Info().Str("id", id).Msg("trade record deleted")
	l.persist(ctx, doc)
	return &deleted, nil
}

// Portfolio returns a copy of the current portfolio state.
func (l *Ledger) Portfolio() models.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.portfolio
}

// CurrentETF returns the symbol of the held instrument.
func (l *Ledger) CurrentETF() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.portfolio.CurrentETF
}

// Logs returns trade records most-recent-first. limit <= 0 returns all.
func (l *Ledger) Logs(limit int) []models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.TradeRecord, 0, len(l.logs))
	for i := len(l.logs) - 1; i >= 0; i-- {
		out = append(out, l.logs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Document exports the full persisted layout for the Store round-trip.
func (l *Ledger) Document() *models.PortfolioDocument {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.documentLocked()
}

// --- internal ---

func (l *Ledger) refreshValueLocked(price float64) {
	l.portfolio.CurrentValue = l.portfolio.Shares * price
	l.portfolio.Performance = l.portfolio.CurrentValue - l.portfolio.InvestedValue
	if l.portfolio.InvestedValue > 0 {
		l.portfolio.PerformancePercent = l.portfolio.Performance / l.portfolio.InvestedValue * 100
	}
}

func (l *Ledger) documentLocked() *models.PortfolioDocument {
	logs := make([]models.TradeRecord, len(l.logs))
	copy(logs, l.logs)
	return &models.PortfolioDocument{
		Portfolio:   l.portfolio,
		TradingLogs: logs,
		LastUpdate:  time.Now(),
		Version:     models.DocumentVersion,
	}
}

// persist writes the document to the store. Failures are warnings: the
// in-memory state stays authoritative for the session.
func (l *Ledger) persist(ctx context.Context, doc *models.PortfolioDocument) {
	if l.store == nil {
		return
	}
	if err := l.store.Save(ctx, doc); err != nil {
		log.Warn().Err(err).Msg("failed to persist portfolio state")
	}
}
