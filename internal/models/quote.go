package models

import "time"

// Quote is the latest snapshot for one instrument. Nil fields mean
// "not yet known" and are distinct from zero values; a quote with a nil
// ChangePercent is unusable for delta computation.
type Quote struct {
	Price            *float64  `json:"price"`
	Change           *float64  `json:"change"`
	ChangePercent    *float64  `json:"changePercent"`
	OpenPrice        *float64  `json:"openPrice"`
	Timestamp        string    `json:"timestamp,omitempty"`
	TradingStatus    string    `json:"tradingStatus,omitempty"`
	InstrumentStatus string    `json:"instrumentStatus,omitempty"`
	Volume           *float64  `json:"volume"`
	Bid              *float64  `json:"bid"`
	Ask              *float64  `json:"ask"`
	FetchedAt        time.Time `json:"fetchedAt"`
}

// HasVariation reports whether the quote carries a change-since-open
// percentage and can participate in delta computation.
func (q *Quote) HasVariation() bool {
	return q != nil && q.ChangePercent != nil
}

// HasPrice reports whether the quote carries a usable positive price.
func (q *Quote) HasPrice() bool {
	return q != nil && q.Price != nil && *q.Price > 0
}

// Variation returns the change percentage, or 0 when unknown.
func (q *Quote) Variation() float64 {
	if q == nil || q.ChangePercent == nil {
		return 0
	}
	return *q.ChangePercent
}
