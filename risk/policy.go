package risk

import "math"

const (
	DefaultRiskPerTrade  = 0.02
	DefaultMaxDrawdown   = 0.10
	DefaultMaxDailyLoss  = 0.05
	DefaultPointValue    = 10.0 // money per point per standard lot
	DefaultPriceDigits   = 5
	DefaultATRMultiplier = 2.0

	// MinStopPoints replaces a zero stop distance so sizing never divides by zero.
	MinStopPoints = 10.0
)

// DefaultTPRatios are the R:R multiples used when the caller passes none.
var DefaultTPRatios = []float64{1.5, 2.0, 3.0}

// Limits is the calculator configuration. It is fixed once a Calculator
// has been built from it.
type Limits struct {
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"` // 0.02 = 2% of balance
	MaxDrawdown  float64 `json:"max_drawdown" yaml:"max_drawdown"`     // from peak balance
	MaxDailyLoss float64 `json:"max_daily_loss" yaml:"max_daily_loss"` // of the day's starting balance

	// PointValue is the account-currency value of one point for one lot.
	// It is a broker-dependent approximation, hence configurable.
	PointValue float64 `json:"point_value,omitempty" yaml:"point_value,omitempty"`

	// PriceDigits is the rounding precision of computed stop and target prices.
	PriceDigits int `json:"price_digits,omitempty" yaml:"price_digits,omitempty"`
}

// DefaultLimits returns 2% per trade, 10% drawdown and 5% daily loss.
func DefaultLimits() Limits {
	return Limits{
		RiskPerTrade: DefaultRiskPerTrade,
		MaxDrawdown:  DefaultMaxDrawdown,
		MaxDailyLoss: DefaultMaxDailyLoss,
		PointValue:   DefaultPointValue,
		PriceDigits:  DefaultPriceDigits,
	}
}

// withDefaults fills zero PointValue and PriceDigits.
func (l Limits) withDefaults() Limits {
	if l.PointValue == 0 {
		l.PointValue = DefaultPointValue
	}
	if l.PriceDigits == 0 {
		l.PriceDigits = DefaultPriceDigits
	}
	return l
}

func (l Limits) Validate() error {
	if err := requireFraction("risk_per_trade", l.RiskPerTrade); err != nil {
		return err
	}
	if err := requireFraction("max_drawdown", l.MaxDrawdown); err != nil {
		return err
	}
	if err := requireFraction("max_daily_loss", l.MaxDailyLoss); err != nil {
		return err
	}
	if l.PointValue != 0 {
		if err := requirePositive("point_value", l.PointValue); err != nil {
			return err
		}
	}
	if l.PriceDigits < 0 || l.PriceDigits > 10 {
		return invalid("price_digits", float64(l.PriceDigits), "must be within [0, 10]")
	}
	return nil
}

// SymbolSpec is a snapshot of a tradable instrument's tick and volume
// constraints, supplied by the caller for every sizing call.
type SymbolSpec struct {
	Name       string  `json:"name" yaml:"name"`
	Point      float64 `json:"point" yaml:"point"`
	Digits     int     `json:"digits" yaml:"digits"`
	VolumeMin  float64 `json:"volume_min" yaml:"volume_min"`
	VolumeMax  float64 `json:"volume_max" yaml:"volume_max"`
	VolumeStep float64 `json:"volume_step" yaml:"volume_step"`

	// PointValue, when positive, overrides Limits.PointValue for this symbol.
	PointValue float64 `json:"point_value,omitempty" yaml:"point_value,omitempty"`
}

func (s SymbolSpec) Validate() error {
	if err := requirePositive("point", s.Point); err != nil {
		return err
	}
	if err := requirePositive("volume_min", s.VolumeMin); err != nil {
		return err
	}
	if err := requirePositive("volume_max", s.VolumeMax); err != nil {
		return err
	}
	if err := requirePositive("volume_step", s.VolumeStep); err != nil {
		return err
	}
	if s.VolumeMin > s.VolumeMax {
		return invalid("volume_min", s.VolumeMin, "must not exceed volume_max")
	}
	if s.PointValue < 0 || math.IsNaN(s.PointValue) {
		return invalid("point_value", s.PointValue, "must not be negative")
	}
	return nil
}

// DailyState is the caller-owned running state for one trading day.
// The calculator reads it but never updates it.
type DailyState struct {
	Day             string  `json:"day" yaml:"day"` // YYYY-MM-DD
	StartingBalance float64 `json:"starting_balance" yaml:"starting_balance"`
	RealizedPnL     float64 `json:"realized_pnl" yaml:"realized_pnl"`
	PeakBalance     float64 `json:"peak_balance" yaml:"peak_balance"`
}

// NewDailyState opens a day at the given balance. The peak starts at
// the larger of balance and a previously observed peak.
func NewDailyState(day string, balance, peak float64) DailyState {
	return DailyState{
		Day:             day,
		StartingBalance: balance,
		PeakBalance:     math.Max(balance, peak),
	}
}

// Balance is the starting balance plus realized PnL.
func (s DailyState) Balance() float64 {
	return s.StartingBalance + s.RealizedPnL
}

// Record adds the PnL of a closed trade.
func (s *DailyState) Record(pnl float64) {
	s.RealizedPnL += pnl
	s.ObserveEquity(s.Balance())
}

// ObserveEquity raises the peak if equity is a new high.
func (s *DailyState) ObserveEquity(equity float64) {
	if equity > s.PeakBalance {
		s.PeakBalance = equity
	}
}

// Rollover starts a new day at balance, carrying the peak forward.
func (s *DailyState) Rollover(day string, balance float64) {
	*s = NewDailyState(day, balance, s.PeakBalance)
}
