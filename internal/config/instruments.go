package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/borsetrader/rotation-backend/internal/models"
)

// defaultBasket is the built-in four-ETF basket used when no instruments
// file is configured.
var defaultBasket = []models.Instrument{
	{
		Symbol:      "IWDA",
		ISIN:        "IE00B4L5Y983",
		WKN:         "A0RPWH",
		Name:        "iShares Core MSCI World UCITS ETF",
		Description: "Developed-world equities",
		Currency:    "EUR",
	},
	{
		Symbol:      "VWCE",
		ISIN:        "IE00BK5BQT80",
		WKN:         "A2PKXG",
		Name:        "Vanguard FTSE All-World UCITS ETF (USD) Acc",
		Description: "World equities, developed + emerging",
		Currency:    "EUR",
	},
	{
		Symbol:      "MEUD",
		ISIN:        "LU0908500753",
		WKN:         "LYX0Q0",
		Name:        "Amundi STOXX Europe 600 UCITS ETF Acc",
		Description: "Broad European equities",
		Currency:    "EUR",
	},
	{
		Symbol:      "IMAE",
		ISIN:        "IE00B4K48X80",
		WKN:         "A0RPWG",
		Name:        "iShares Core MSCI Europe UCITS ETF EUR (Acc)",
		Description: "Developed European equities",
		Currency:    "EUR",
	},
}

type instrumentsFile struct {
	Instruments []models.Instrument `yaml:"instruments"`
}

// LoadInstruments returns the instrument basket, either from the YAML file
// at path or the built-in default when path is empty. Basket order is
// preserved; it determines the tie-break order of equal deltas.
func LoadInstruments(path string) ([]models.Instrument, error) {
	if path == "" {
		out := make([]models.Instrument, len(defaultBasket))
		copy(out, defaultBasket)
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instruments file: %w", err)
	}

	var f instrumentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instruments file: %w", err)
	}
	if len(f.Instruments) < 2 {
		return nil, fmt.Errorf("instruments file must define at least 2 instruments, got %d", len(f.Instruments))
	}

	seen := make(map[string]bool, len(f.Instruments))
	for i, inst := range f.Instruments {
		if inst.Symbol == "" || inst.ISIN == "" {
			return nil, fmt.Errorf("instrument %d: symbol and isin are required", i)
		}
		if seen[inst.Symbol] {
			return nil, fmt.Errorf("duplicate instrument symbol %q", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}

	return f.Instruments, nil
}
