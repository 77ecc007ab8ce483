// market/instruments.go
package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/riskdesk/risk"
)

type Category string

const (
	Forex     Category = "forex"
	Crypto    Category = "crypto"
	Synthetic Category = "synthetic"
)

// Instrument is a catalog entry: a symbol spec plus its category.
// The currencies are set for forex pairs only.
type Instrument struct {
	risk.SymbolSpec
	Category      Category `json:"category"`
	BaseCurrency  string   `json:"base_currency,omitempty"`
	QuoteCurrency string   `json:"quote_currency,omitempty"`
}

func fx(name string, point float64, digits int) Instrument {
	return Instrument{
		SymbolSpec: risk.SymbolSpec{
			Name:       name,
			Point:      point,
			Digits:     digits,
			VolumeMin:  0.01,
			VolumeMax:  100,
			VolumeStep: 0.01,
		},
		Category:      Forex,
		BaseCurrency:  name[:3],
		QuoteCurrency: name[3:],
	}
}

func coin(name string, point float64, digits int, vmax float64) Instrument {
	return Instrument{
		SymbolSpec: risk.SymbolSpec{
			Name:       name,
			Point:      point,
			Digits:     digits,
			VolumeMin:  0.01,
			VolumeMax:  vmax,
			VolumeStep: 0.01,
		},
		Category: Crypto,
	}
}

func synth(name string, point float64, digits int, vmin, vmax, step float64) Instrument {
	return Instrument{
		SymbolSpec: risk.SymbolSpec{
			Name:       name,
			Point:      point,
			Digits:     digits,
			VolumeMin:  vmin,
			VolumeMax:  vmax,
			VolumeStep: step,
		},
		Category: Synthetic,
	}
}

// Instruments holds typical broker metadata for the supported symbols.
// Live metadata from the broker always wins over these values.
var Instruments = map[string]Instrument{
	"EURUSD": fx("EURUSD", 0.00001, 5),
	"GBPUSD": fx("GBPUSD", 0.00001, 5),
	"USDJPY": fx("USDJPY", 0.001, 3),
	"AUDUSD": fx("AUDUSD", 0.00001, 5),
	"USDCAD": fx("USDCAD", 0.00001, 5),
	"NZDUSD": fx("NZDUSD", 0.00001, 5),
	"EURGBP": fx("EURGBP", 0.00001, 5),
	"EURJPY": fx("EURJPY", 0.001, 3),
	"GBPJPY": fx("GBPJPY", 0.001, 3),
	"AUDJPY": fx("AUDJPY", 0.001, 3),

	"BTCUSD": coin("BTCUSD", 0.01, 2, 10),
	"ETHUSD": coin("ETHUSD", 0.01, 2, 50),
	"LTCUSD": coin("LTCUSD", 0.01, 2, 100),
	"XRPUSD": coin("XRPUSD", 0.00001, 5, 100),
	"BCHUSD": coin("BCHUSD", 0.01, 2, 100),

	"Volatility 10 Index":  synth("Volatility 10 Index", 0.001, 3, 0.5, 100, 0.01),
	"Volatility 25 Index":  synth("Volatility 25 Index", 0.001, 3, 0.5, 100, 0.01),
	"Volatility 50 Index":  synth("Volatility 50 Index", 0.0001, 4, 4, 1000, 0.01),
	"Volatility 75 Index":  synth("Volatility 75 Index", 0.0001, 4, 0.001, 3, 0.001),
	"Volatility 100 Index": synth("Volatility 100 Index", 0.01, 2, 0.5, 50, 0.01),
	"Boom 300 Index":       synth("Boom 300 Index", 0.001, 3, 1, 5, 0.01),
	"Boom 500 Index":       synth("Boom 500 Index", 0.001, 3, 0.2, 50, 0.01),
	"Boom 1000 Index":      synth("Boom 1000 Index", 0.001, 3, 0.2, 50, 0.01),
	"Crash 300 Index":      synth("Crash 300 Index", 0.001, 3, 0.5, 5, 0.01),
	"Crash 500 Index":      synth("Crash 500 Index", 0.001, 3, 0.2, 50, 0.01),
	"Crash 1000 Index":     synth("Crash 1000 Index", 0.001, 3, 0.2, 50, 0.01),
}

var byKey = func() map[string]string {
	m := make(map[string]string, len(Instruments))
	for name := range Instruments {
		m[symbolKey(name)] = name
	}
	return m
}()

// symbolKey folds case and the separators brokers disagree on, so
// "EUR_USD", "eur/usd" and "EURUSD" are the same symbol.
func symbolKey(s string) string {
	r := strings.NewReplacer("_", "", "/", "", " ", "", "-", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}

// Lookup finds an instrument by name, ignoring case and separators.
func Lookup(name string) (Instrument, error) {
	if full, ok := byKey[symbolKey(name)]; ok {
		return Instruments[full], nil
	}
	return Instrument{}, fmt.Errorf("unknown instrument: %s", name)
}

// Names returns the catalog's symbol names for a category, sorted.
// An empty category returns every symbol.
func Names(c Category) []string {
	var out []string
	for name, in := range Instruments {
		if c == "" || in.Category == c {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
