package models

// Instrument is the static reference data for one tracked ETF.
// Immutable after registration.
type Instrument struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	ISIN        string `json:"isin" yaml:"isin"`
	WKN         string `json:"wkn" yaml:"wkn"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Currency    string `json:"currency" yaml:"currency"`
}
