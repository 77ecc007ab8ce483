// journal/journal.go
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/riskdesk/risk"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDayNotOpened = errors.New("day not opened")
)

// DayLayout is the key format of a trading day.
const DayLayout = "2006-01-02"

// DayKey returns the trading day t falls on, in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// PlanRecord is a sizing decision as it was presented to the trader.
type PlanRecord struct {
	PlanID         string
	CreatedAt      time.Time
	Symbol         string
	Direction      risk.Direction
	Balance        float64
	Entry          float64
	Stop           float64
	Lots           float64
	RiskAmount     float64
	DistancePoints float64
	Targets        []float64
	Allowed        bool
	Violations     []string // violation and advisory codes
}

// TradeRecord is a closed trade reported back by the caller.
type TradeRecord struct {
	TradeID     string
	PlanID      string // optional
	Symbol      string
	Direction   risk.Direction
	Lots        float64
	EntryPrice  float64
	ExitPrice   float64
	OpenTime    time.Time
	CloseTime   time.Time
	RealizedPnL float64
	Reason      string
}

type Journal interface {
	RecordPlan(ctx context.Context, p PlanRecord) error
	RecordTrade(ctx context.Context, t TradeRecord) (risk.DailyState, error)
	Close() error
}
