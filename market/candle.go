package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	time.Time
	Volume float64
}

// ReadCandlesCSV parses rows of time,open,high,low,close[,volume].
// Time is RFC3339 or unix seconds. A header row is skipped when its
// first field is not a time.
func ReadCandlesCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Candle
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candles: %w", err)
		}
		line++

		ts, err := parseCandleTime(rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("line %d: want at least 5 fields, got %d", line, len(rec))
		}

		var vals [5]float64
		n := len(rec)
		if n > 6 {
			n = 6
		}
		for i := 1; i < n; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d field %d: %w", line, i+1, err)
			}
			vals[i-1] = v
		}

		c := Candle{
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Time:   ts,
			Volume: vals[4],
		}
		if c.High < c.Low {
			return nil, fmt.Errorf("line %d: high %v below low %v", line, c.High, c.Low)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseCandleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if u, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(u, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad candle time %q", s)
}
