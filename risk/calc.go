package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Advisory is a non-fatal condition noticed during a calculation. The
// calculator returns advisories instead of logging them so callers
// decide how to surface them.
type Advisory struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

const AdvisoryZeroStopDistance = "ZERO_STOP_DISTANCE"

// Sizing is the result of a lot size calculation.
type Sizing struct {
	Lots           float64    `json:"lots"`
	RawLots        float64    `json:"raw_lots"`
	DistancePoints float64    `json:"distance_points"`
	RiskAmount     float64    `json:"risk_amount"`
	PointValue     float64    `json:"point_value"`
	Advisories     []Advisory `json:"advisories,omitempty"`
}

// Calculator sizes positions and checks loss limits. It holds only
// read-only configuration and is safe for concurrent use.
type Calculator struct {
	limits Limits
}

func NewCalculator(l Limits) (*Calculator, error) {
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("risk limits: %w", err)
	}
	return &Calculator{limits: l.withDefaults()}, nil
}

// Limits returns the configuration with defaults applied.
func (c *Calculator) Limits() Limits {
	return c.limits
}

// LotSize computes the volume that risks Limits.RiskPerTrade of balance
// if price travels from entry to stop. The result is clamped to the
// symbol's volume range and rounded to the nearest volume step.
func (c *Calculator) LotSize(balance, entry, stop float64, spec SymbolSpec, dir Direction) (Sizing, error) {
	if err := requirePositive("balance", balance); err != nil {
		return Sizing{}, err
	}
	if err := requireFinite("entry", entry); err != nil {
		return Sizing{}, err
	}
	if err := requireFinite("stop", stop); err != nil {
		return Sizing{}, err
	}
	if err := spec.Validate(); err != nil {
		return Sizing{}, fmt.Errorf("symbol %s: %w", spec.Name, err)
	}
	if !dir.Valid() {
		return Sizing{}, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}

	var s Sizing

	// Absolute distance: both sides measure the stop the same way.
	s.DistancePoints = math.Abs(entry-stop) / spec.Point
	if s.DistancePoints == 0 {
		s.DistancePoints = MinStopPoints
		s.Advisories = append(s.Advisories, Advisory{
			Code: AdvisoryZeroStopDistance,
			Msg:  fmt.Sprintf("stop equals entry %v, using %.0f point minimum", entry, MinStopPoints),
		})
	}

	s.PointValue = c.limits.PointValue
	if spec.PointValue > 0 {
		s.PointValue = spec.PointValue
	}

	s.RiskAmount = balance * c.limits.RiskPerTrade
	s.RawLots = s.RiskAmount / (s.DistancePoints * s.PointValue)
	s.Lots = roundVolume(s.RawLots, spec)
	return s, nil
}

// DynamicStop places a stop multiplier ATRs away from entry, on the
// losing side for dir. Callers without a multiplier of their own pass
// DefaultATRMultiplier; zero puts the stop on the entry.
func (c *Calculator) DynamicStop(entry, atr, multiplier float64, dir Direction) (float64, error) {
	if err := requireFinite("entry", entry); err != nil {
		return 0, err
	}
	if math.IsNaN(atr) || math.IsInf(atr, 0) || atr < 0 {
		return 0, invalid("atr", atr, "must be a non-negative number")
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return 0, invalid("multiplier", multiplier, "must be a non-negative number")
	}
	if !dir.Valid() {
		return 0, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(dir))
	}

	dist := atr * multiplier
	return roundPrice(entry-dir.sign()*dist, c.limits.PriceDigits), nil
}

// MultiTP returns one take-profit price per R:R ratio, in the order
// given. Ratios are not validated. Empty ratios means DefaultTPRatios.
// An invalid direction yields nil.
func (c *Calculator) MultiTP(entry, stop float64, ratios []float64, dir Direction) []float64 {
	if !dir.Valid() {
		return nil
	}
	if len(ratios) == 0 {
		ratios = DefaultTPRatios
	}
	dist := math.Abs(entry - stop)
	tps := make([]float64, 0, len(ratios))
	for _, r := range ratios {
		tps = append(tps, roundPrice(entry+dir.sign()*dist*r, c.limits.PriceDigits))
	}
	return tps
}

// CheckDailyLimit reports whether trading may continue given the day's
// PnL. Only a loss of at least MaxDailyLoss of the starting balance blocks.
func (c *Calculator) CheckDailyLimit(pnl, startingBalance float64) (bool, error) {
	if err := requirePositive("starting_balance", startingBalance); err != nil {
		return false, err
	}
	if err := requireFinite("pnl", pnl); err != nil {
		return false, err
	}
	return !(pnl < 0 && DailyLossPct(pnl, startingBalance) >= c.limits.MaxDailyLoss), nil
}

// CheckDrawdown reports whether equity is still above the MaxDrawdown
// floor measured from peak. The peak is tracked by the caller.
func (c *Calculator) CheckDrawdown(peak, equity float64) (bool, error) {
	if err := requirePositive("peak_balance", peak); err != nil {
		return false, err
	}
	if err := requireFinite("equity", equity); err != nil {
		return false, err
	}
	return Drawdown(peak, equity) < c.limits.MaxDrawdown, nil
}

// DailyLossPct is |pnl| as a fraction of the starting balance.
func DailyLossPct(pnl, startingBalance float64) float64 {
	return math.Abs(pnl) / startingBalance
}

// Drawdown is the fractional decline of equity from peak. It is
// negative when equity is above peak.
func Drawdown(peak, equity float64) float64 {
	return (peak - equity) / peak
}

// roundPrice rounds half away from zero to digits decimal places.
func roundPrice(p float64, digits int) float64 {
	f, _ := decimal.NewFromFloat(p).Round(int32(digits)).Float64()
	return f
}

// roundVolume clamps lots to [VolumeMin, VolumeMax] and then snaps it
// to the nearest multiple of VolumeStep, stepping back inside the range
// if the snap overshot.
func roundVolume(lots float64, spec SymbolSpec) float64 {
	lots = math.Max(spec.VolumeMin, lots)
	lots = math.Min(spec.VolumeMax, lots)

	step := decimal.NewFromFloat(spec.VolumeStep)
	vmin := decimal.NewFromFloat(spec.VolumeMin)
	vmax := decimal.NewFromFloat(spec.VolumeMax)

	n := decimal.NewFromFloat(lots).Div(step).Round(0)
	v := n.Mul(step)
	if v.GreaterThan(vmax) {
		v = v.Sub(step)
	}
	if v.LessThan(vmin) {
		v = v.Add(step)
	}
	f, _ := v.Float64()
	return f
}
