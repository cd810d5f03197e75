package models

import "time"

// QuotePoint is one persisted quote snapshot for an instrument, recorded
// on each successful refresh. Used by the threshold optimizer and the
// history API; the live signal path reads only the in-memory registry.
type QuotePoint struct {
	ID            int64     `json:"id"`
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
	TradingDay    string    `json:"tradingDay"`
	Price         float64   `json:"price"`
	ChangePercent *float64  `json:"changePercent"`
	OpenPrice     *float64  `json:"openPrice"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"createdAt"`
}
