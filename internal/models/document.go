package models

import "time"

const DocumentVersion = "1.0"

// PortfolioDocument is the persisted state layout: the portfolio plus its
// trade log as a single versioned JSON document.
type PortfolioDocument struct {
	Portfolio   Portfolio     `json:"portfolio"`
	TradingLogs []TradeRecord `json:"tradingLogs"`
	LastUpdate  time.Time     `json:"lastUpdate"`
	Version     string        `json:"version"`
}
