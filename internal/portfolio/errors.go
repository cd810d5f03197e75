package portfolio

import "errors"

// Ledger errors guard financial-state invariants and are always returned
// explicitly, never swallowed.
var (
	// Invalid operations: rejected synchronously, ledger unchanged.
	ErrNotInitialized     = errors.New("portfolio not initialized")
	ErrSameInstrument     = errors.New("target instrument is already held")
	ErrFeeExceedsProceeds = errors.New("trading fee exceeds sale proceeds")
	ErrTradeInFlight      = errors.New("another trade is already in flight")
	ErrRecordNotFound     = errors.New("trade record not found")

	// Data insufficiency: a required price is not yet known.
	ErrPriceUnavailable = errors.New("price data unavailable")
)

// IsInvalidOperation reports whether err belongs to the invalid-operation
// class of the error taxonomy, as opposed to missing data.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrSameInstrument) ||
		errors.Is(err, ErrFeeExceedsProceeds) ||
		errors.Is(err, ErrTradeInFlight) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsDataInsufficient reports whether err means a quote was missing.
func IsDataInsufficient(err error) bool {
	return errors.Is(err, ErrPriceUnavailable)
}
