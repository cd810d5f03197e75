package signal

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/borsetrader/rotation-backend/internal/strategy"
)

// Tracker de-duplicates trade signals by their (from,to) pair and keeps
// the in-memory history of emitted trade signals for performance analysis.
// The history does not survive a restart; only the trade log is persisted.
type Tracker struct {
	mu       sync.Mutex
	lastPair string
	history  []strategy.Recommendation
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records the outcome of one analysis. It returns true when the
// recommendation is a trade signal for a pair different from the last one
// observed — the only case worth notifying. A hold (or nil) clears the
// remembered pair, so the same rotation can fire again later.
func (t *Tracker) Observe(rec *strategy.Recommendation) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec == nil || rec.Action != strategy.ActionTrade {
		if t.lastPair != "" {
			log.Debug().Str("pair", t.lastPair).Msg("trade signal expired")
			t.lastPair = ""
		}
		return false
	}

	pair := rec.FromETF + "->" + rec.ToETF
	if pair == t.lastPair {
		return false
	}

	log.Info().Str("pair", pair).Float64("delta", rec.Delta).Msg("new trade signal")
	t.lastPair = pair
	t.history = append(t.history, *rec)
	return true
}

// LastPair returns the currently remembered signal pair, or "".
func (t *Tracker) LastPair() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastPair
}

// History returns a copy of all trade signals observed this session.
func (t *Tracker) History() []strategy.Recommendation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]strategy.Recommendation, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPair = ""
	t.history = nil
}
