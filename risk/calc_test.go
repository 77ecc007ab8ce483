package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eurusd(point float64) SymbolSpec {
	return SymbolSpec{
		Name:       "EURUSD",
		Point:      point,
		Digits:     5,
		VolumeMin:  0.01,
		VolumeMax:  100,
		VolumeStep: 0.01,
	}
}

func newCalc(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultLimits())
	require.NoError(t, err)
	return c
}

func TestLotSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		balance      float64
		entry, stop  float64
		spec         SymbolSpec
		dir          Direction
		wantLots     float64
		wantDistance float64
		wantRisk     float64
	}{
		{"five digit quote", 10000, 1.1000, 1.0990, eurusd(0.00001), Long, 0.20, 100, 200},
		{"four digit quote", 10000, 1.1000, 1.0990, eurusd(0.0001), Long, 2.0, 10, 200},
		{"short uses absolute distance", 10000, 1.0990, 1.1000, eurusd(0.00001), Short, 0.20, 100, 200},
		{"stop on wrong side still absolute", 10000, 1.1000, 1.1010, eurusd(0.00001), Long, 0.20, 100, 200},
		{"clamped to max", 10_000_000, 1.10000, 1.09999, eurusd(0.00001), Long, 100, 1, 200_000},
		{"clamped to min", 100, 1.1000, 1.0000, eurusd(0.0001), Long, 0.01, 1000, 2},
		{"half step rounds up", 750, 100, 0, SymbolSpec{Point: 1, VolumeMin: 0.01, VolumeMax: 10, VolumeStep: 0.01}, Long, 0.02, 100, 15},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.LotSize(tt.balance, tt.entry, tt.stop, tt.spec, tt.dir)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLots, got.Lots, 1e-9)
			assert.InDelta(t, tt.wantDistance, got.DistancePoints, 1e-6)
			assert.InDelta(t, tt.wantRisk, got.RiskAmount, 1e-9)
			assert.Equal(t, DefaultPointValue, got.PointValue)
			assert.Empty(t, got.Advisories)
		})
	}
}

func TestLotSizeZeroDistanceUsesFloor(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	got, err := c.LotSize(10000, 1.1, 1.1, eurusd(0.0001), Long)
	require.NoError(t, err)

	assert.Equal(t, MinStopPoints, got.DistancePoints)
	assert.False(t, math.IsInf(got.RawLots, 0))
	assert.InDelta(t, 2.0, got.Lots, 1e-9)
	require.Len(t, got.Advisories, 1)
	assert.Equal(t, AdvisoryZeroStopDistance, got.Advisories[0].Code)
}

func TestLotSizeSymbolPointValueOverride(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	spec := eurusd(0.0001)
	spec.PointValue = 1

	got, err := c.LotSize(10000, 1.1000, 1.0990, spec, Long)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.PointValue)
	assert.InDelta(t, 20.0, got.Lots, 1e-9)
}

func TestLotSizeInvalidInput(t *testing.T) {
	t.Parallel()

	bad := func(f func(*SymbolSpec)) SymbolSpec {
		s := eurusd(0.0001)
		f(&s)
		return s
	}

	tests := []struct {
		name    string
		balance float64
		entry   float64
		spec    SymbolSpec
		dir     Direction
	}{
		{"zero balance", 0, 1.1, eurusd(0.0001), Long},
		{"negative balance", -5, 1.1, eurusd(0.0001), Long},
		{"nan entry", 1000, math.NaN(), eurusd(0.0001), Long},
		{"zero point", 1000, 1.1, bad(func(s *SymbolSpec) { s.Point = 0 }), Long},
		{"zero step", 1000, 1.1, bad(func(s *SymbolSpec) { s.VolumeStep = 0 }), Long},
		{"min above max", 1000, 1.1, bad(func(s *SymbolSpec) { s.VolumeMin = 200 }), Long},
		{"unknown direction", 1000, 1.1, eurusd(0.0001), Direction(9)},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.LotSize(tt.balance, tt.entry, 1.0, tt.spec, tt.dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestLotSizeAlwaysInRangeAndOnStep(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	specs := []SymbolSpec{
		eurusd(0.00001),
		{Name: "BTCUSD", Point: 0.01, VolumeMin: 0.01, VolumeMax: 5, VolumeStep: 0.01},
		{Name: "V75", Point: 0.01, VolumeMin: 0.001, VolumeMax: 1, VolumeStep: 0.001},
		{Name: "BOOM", Point: 0.001, VolumeMin: 0.2, VolumeMax: 50, VolumeStep: 0.1},
	}
	balances := []float64{50, 1234.56, 10000, 250000, 9_999_999}
	stops := []float64{0, 0.0001, 0.0137, 0.5, 12.3}

	for _, spec := range specs {
		for _, bal := range balances {
			for _, d := range stops {
				got, err := c.LotSize(bal, 100, 100-d, spec, Long)
				require.NoError(t, err)

				assert.GreaterOrEqual(t, got.Lots, spec.VolumeMin-1e-9, "%s bal=%v d=%v", spec.Name, bal, d)
				assert.LessOrEqual(t, got.Lots, spec.VolumeMax+1e-9, "%s bal=%v d=%v", spec.Name, bal, d)

				steps := got.Lots / spec.VolumeStep
				assert.InDelta(t, math.Round(steps), steps, 1e-6, "%s bal=%v d=%v", spec.Name, bal, d)
			}
		}
	}
}

func TestLotSizeIdempotent(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	a, err := c.LotSize(10000, 1.1000, 1.0990, eurusd(0.00001), Long)
	require.NoError(t, err)
	b, err := c.LotSize(10000, 1.1000, 1.0990, eurusd(0.00001), Long)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDynamicStop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		multiplier float64
		dir        Direction
		want       float64
	}{
		{"long", 2.0, Long, 1.0980},
		{"short", 2.0, Short, 1.1020},
		{"zero multiplier stops at entry", 0, Long, 1.1000},
		{"one and a half", 1.5, Short, 1.1015},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.DynamicStop(1.1000, 0.0010, tt.multiplier, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDynamicStopRoundsToPriceDigits(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	got, err := c.DynamicStop(1.123456789, 0.000123456, 1, Long)
	require.NoError(t, err)
	assert.Equal(t, 1.12333, got)

	l := DefaultLimits()
	l.PriceDigits = 3
	jpy, err := NewCalculator(l)
	require.NoError(t, err)
	got, err = jpy.DynamicStop(149.5, 0.1234, 2, Short)
	require.NoError(t, err)
	assert.Equal(t, 149.747, got)
}

func TestDynamicStopInvalid(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	_, err := c.DynamicStop(1.1, -0.001, 2, Long)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.DynamicStop(1.1, 0.001, -1, Long)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.DynamicStop(1.1, 0.001, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMultiTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entry  float64
		stop   float64
		ratios []float64
		dir    Direction
		want   []float64
	}{
		{"long", 1.1000, 1.0950, []float64{1.5, 2.0}, Long, []float64{1.1075, 1.1100}},
		{"short", 1.1000, 1.1050, []float64{1.5, 2.0}, Short, []float64{1.0925, 1.0900}},
		{"defaults", 1.1000, 1.0950, nil, Long, []float64{1.1075, 1.1100, 1.1150}},
		{"keeps caller order", 1.1000, 1.0950, []float64{3, 1}, Long, []float64{1.1150, 1.1050}},
		{"zero distance", 1.1000, 1.1000, []float64{2}, Short, []float64{1.1}},
		{"invalid direction", 1.1000, 1.0950, []float64{1.5}, Direction(0), nil},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.MultiTP(tt.entry, tt.stop, tt.ratios, tt.dir))
		})
	}
}

func TestMultiTPDoesNotAliasDefaults(t *testing.T) {
	t.Parallel()

	c := newCalc(t)
	tps := c.MultiTP(1.1, 1.095, nil, Long)
	tps[0] = 0
	assert.Equal(t, []float64{1.5, 2.0, 3.0}, DefaultTPRatios)
}

func TestCheckDailyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pnl  float64
		want bool
	}{
		{"six percent loss blocks", -600, false},
		{"four percent loss allowed", -400, true},
		{"exactly at limit blocks", -500, false},
		{"flat", 0, true},
		{"large profit never blocks", 5000, true},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.CheckDailyLimit(tt.pnl, 10000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := c.CheckDailyLimit(-100, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCheckDrawdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		equity float64
		want   bool
	}{
		{"eleven percent blocks", 8900, false},
		{"eight percent allowed", 9200, true},
		{"exactly at limit blocks", 9000, false},
		{"above peak allowed", 11000, true},
	}

	c := newCalc(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.CheckDrawdown(10000, tt.equity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := c.CheckDrawdown(0, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewCalculatorValidatesLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Limits)
	}{
		{"zero risk", func(l *Limits) { l.RiskPerTrade = 0 }},
		{"risk above one", func(l *Limits) { l.RiskPerTrade = 1.5 }},
		{"negative drawdown", func(l *Limits) { l.MaxDrawdown = -0.1 }},
		{"nan daily loss", func(l *Limits) { l.MaxDailyLoss = math.NaN() }},
		{"negative point value", func(l *Limits) { l.PointValue = -1 }},
		{"too many digits", func(l *Limits) { l.PriceDigits = 12 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l := DefaultLimits()
			tt.mut(&l)
			_, err := NewCalculator(l)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestNewCalculatorFillsDefaults(t *testing.T) {
	t.Parallel()

	c, err := NewCalculator(Limits{RiskPerTrade: 0.01, MaxDrawdown: 0.2, MaxDailyLoss: 0.03})
	require.NoError(t, err)
	assert.Equal(t, DefaultPointValue, c.Limits().PointValue)
	assert.Equal(t, DefaultPriceDigits, c.Limits().PriceDigits)
}
