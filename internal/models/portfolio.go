package models

// Portfolio is the single-position paper portfolio. Shares == 0 only in
// the uninitialized state before the first usable price for the held
// instrument; a rotation always reinvests the full proceeds.
type Portfolio struct {
	CurrentETF         string  `json:"currentETF"`
	Shares             float64 `json:"shares"`
	InvestedValue      float64 `json:"investedValue"`
	CurrentValue       float64 `json:"currentValue"`
	TotalFees          float64 `json:"totalFees"`
	Performance        float64 `json:"performance"`
	PerformancePercent float64 `json:"performancePercent"`

	// InitializedFromReference marks a share count derived from the
	// configured reference price instead of a live quote.
	InitializedFromReference bool `json:"initializedFromReference,omitempty"`
}

// Initialized reports whether the share count has been established.
func (p Portfolio) Initialized() bool {
	return p.Shares > 0
}
