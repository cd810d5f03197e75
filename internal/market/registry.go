package market

import (
	"fmt"
	"sync"

	"github.com/borsetrader/rotation-backend/internal/models"
)

// Registry holds the static instrument basket plus a mutable latest-quote
// slot per instrument. Identity is immutable after construction; quotes
// are overwritten wholesale on each refresh. Iteration order is the basket
// registration order, which also serves as the tie-break for equal deltas.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	instruments map[string]models.Instrument
	quotes      map[string]*models.Quote
}

func NewRegistry(basket []models.Instrument) (*Registry, error) {
	if len(basket) < 2 {
		return nil, fmt.Errorf("registry needs at least 2 instruments, got %d", len(basket))
	}

	r := &Registry{
		instruments: make(map[string]models.Instrument, len(basket)),
		quotes:      make(map[string]*models.Quote, len(basket)),
	}
	for _, inst := range basket {
		if _, dup := r.instruments[inst.Symbol]; dup {
			return nil, fmt.Errorf("duplicate instrument %q", inst.Symbol)
		}
		r.order = append(r.order, inst.Symbol)
		r.instruments[inst.Symbol] = inst
	}
	return r, nil
}

// Symbols returns the basket symbols in registration order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Has(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instruments[symbol]
	return ok
}

func (r *Registry) Instrument(symbol string) (models.Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instruments[symbol]
	return inst, ok
}

// SetQuote overwrites the latest quote for symbol. Unknown symbols are
// rejected so a misconfigured fetcher cannot grow the basket.
func (r *Registry) SetQuote(symbol string, q *models.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instruments[symbol]; !ok {
		return fmt.Errorf("unknown instrument %q", symbol)
	}
	r.quotes[symbol] = q
	return nil
}

// Quote returns the latest quote for symbol, or nil when none has been
// received yet.
func (r *Registry) Quote(symbol string) *models.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.quotes[symbol]
}

// Snapshot returns all current quotes keyed by symbol, in a copy safe to
// read while refreshes continue.
func (r *Registry) Snapshot() map[string]*models.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*models.Quote, len(r.quotes))
	for sym, q := range r.quotes {
		out[sym] = q
	}
	return out
}

// UsableCount returns how many instruments currently have a quote with
// variation data.
func (r *Registry) UsableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, q := range r.quotes {
		if q.HasVariation() {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
