package risk

import (
	"fmt"
	"math"
)

const (
	ViolationDailyLoss   = "DAILY_LOSS_LIMIT"
	ViolationMaxDrawdown = "MAX_DRAWDOWN"
)

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Decision is the outcome of the circuit breaker checks.
type Decision struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations,omitempty"`

	DailyLossPct float64 `json:"daily_loss_pct"` // signed: negative when the day is profitable
	Drawdown     float64 `json:"drawdown"`
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate runs the daily loss and drawdown checks for a day's state
// and the current equity. The day's PnL is equity less the starting
// balance, so open positions count toward the daily loss.
func (c *Calculator) Evaluate(day DailyState, equity float64) (Decision, error) {
	d := Decision{Allowed: true}

	if err := requireFinite("equity", equity); err != nil {
		return Decision{}, err
	}
	pnl := equity - day.StartingBalance
	ok, err := c.CheckDailyLimit(pnl, day.StartingBalance)
	if err != nil {
		return Decision{}, err
	}
	if pnl != 0 {
		d.DailyLossPct = -pnl / day.StartingBalance
	}
	if !ok {
		d.add(ViolationDailyLoss,
			fmt.Sprintf("daily loss %.2f%% >= max %.2f%%",
				100*d.DailyLossPct, 100*c.limits.MaxDailyLoss))
	}

	peak := math.Max(day.PeakBalance, day.StartingBalance)
	ok, err = c.CheckDrawdown(peak, equity)
	if err != nil {
		return Decision{}, err
	}
	d.Drawdown = Drawdown(peak, equity)
	if !ok {
		d.add(ViolationMaxDrawdown,
			fmt.Sprintf("drawdown %.2f%% >= max %.2f%%",
				100*d.Drawdown, 100*c.limits.MaxDrawdown))
	}
	return d, nil
}

// PlannedRisk is the money lost if a position of lots is stopped out,
// using the same point model as LotSize.
func PlannedRisk(lots, entry, stop float64, spec SymbolSpec, pointValue float64) float64 {
	if spec.PointValue > 0 {
		pointValue = spec.PointValue
	}
	return lots * math.Abs(entry-stop) / spec.Point * pointValue
}

// RR is the reward to risk ratio of a target.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

func RiskPct(riskAmount, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return riskAmount / equity
}
