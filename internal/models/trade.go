package models

import "time"

// TradeRecord captures both legs of an executed rotation. Records are
// append-only; deleting one is a log correction, not an undo.
type TradeRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	SoldETF       string  `json:"soldETF"`
	SoldPrice     float64 `json:"soldPrice"`
	SoldVariation float64 `json:"soldVariation"`
	SoldShares    float64 `json:"soldShares"`
	SoldValue     float64 `json:"soldValue"`

	BoughtETF       string  `json:"boughtETF"`
	BoughtPrice     float64 `json:"boughtPrice"`
	BoughtVariation float64 `json:"boughtVariation"`
	BoughtShares    float64 `json:"boughtShares"`
	BoughtValue     float64 `json:"boughtValue"`

	TradingFees     float64 `json:"tradingFees"`
	PreviousValue   float64 `json:"previousValue"`
	ValueDifference float64 `json:"valueDifference"`
	Reason          string  `json:"reason"`
	ExpectedGain    float64 `json:"expectedGain"`
}
