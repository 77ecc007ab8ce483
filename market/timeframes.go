package market

import (
	"fmt"
	"strings"
	"time"
)

// Timeframes maps the terminal's timeframe codes to minutes.
var Timeframes = map[string]int{
	"M1":  1,
	"M5":  5,
	"M15": 15,
	"M30": 30,
	"H1":  60,
	"H4":  240,
	"D1":  1440,
}

// ParseTimeframe returns the candle duration for a code like "H1".
func ParseTimeframe(code string) (time.Duration, error) {
	m, ok := Timeframes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, fmt.Errorf("unknown timeframe: %s", code)
	}
	return time.Duration(m) * time.Minute, nil
}
