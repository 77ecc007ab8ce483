package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var tradeHeader = []string{"trade_id", "plan_id", "symbol", "direction", "lots", "entry_price", "exit_price", "open_time", "close_time", "realized_pnl", "reason"}

// WriteTradesCSV writes trades with a header row.
func WriteTradesCSV(w io.Writer, recs []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range recs {
		if err := cw.Write([]string{
			t.TradeID,
			t.PlanID,
			t.Symbol,
			t.Direction.String(),
			f(t.Lots),
			f(t.EntryPrice),
			f(t.ExitPrice),
			t.OpenTime.UTC().Format(time.RFC3339),
			t.CloseTime.UTC().Format(time.RFC3339),
			f(t.RealizedPnL),
			t.Reason,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
