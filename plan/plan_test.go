package plan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/riskdesk/internal/logging"
	"github.com/rustyeddy/riskdesk/journal"
	"github.com/rustyeddy/riskdesk/market"
	"github.com/rustyeddy/riskdesk/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	plans []journal.PlanRecord
	err   error
}

func (f *fakeRecorder) RecordPlan(_ context.Context, p journal.PlanRecord) error {
	if f.err != nil {
		return f.err
	}
	f.plans = append(f.plans, p)
	return nil
}

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func eurusd(t *testing.T) risk.SymbolSpec {
	t.Helper()
	in, err := market.Lookup("EURUSD")
	require.NoError(t, err)
	return in.SymbolSpec
}

func newPlanner(t *testing.T, rec Recorder) *Planner {
	t.Helper()
	calc, err := risk.NewCalculator(risk.DefaultLimits())
	require.NoError(t, err)
	return New(calc, rec, logging.Discard())
}

func TestBuildExplicitStop(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	p, err := newPlanner(t, rec).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Entry:     1.1000,
		Stop:      1.0990,
		Now:       now,
	})
	require.NoError(t, err)

	assert.True(t, p.Allowed())
	assert.Equal(t, StopExplicit, p.StopSource)
	assert.Equal(t, "EURUSD", p.Symbol)
	assert.InDelta(t, 0.20, p.Sizing.Lots, 1e-9)
	assert.InDelta(t, 200, p.PlannedRisk, 1e-6)
	assert.Len(t, p.ID, 26)
	assert.Equal(t, now, p.CreatedAt)

	require.Len(t, p.Targets, 3)
	wantPrices := []float64{1.1015, 1.102, 1.103}
	for i, tgt := range p.Targets {
		assert.Equal(t, risk.DefaultTPRatios[i], tgt.Ratio)
		assert.Equal(t, wantPrices[i], tgt.Price)
		assert.InDelta(t, tgt.Ratio, tgt.RR, 1e-6)
	}

	require.Len(t, rec.plans, 1)
	r := rec.plans[0]
	assert.Equal(t, p.ID, r.PlanID)
	assert.Equal(t, wantPrices, r.Targets)
	assert.True(t, r.Allowed)
	assert.Empty(t, r.Violations)
}

func TestBuildATRStop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		dir      risk.Direction
		wantStop float64
	}{
		{"long", risk.Long, 1.0980},
		{"short", risk.Short, 1.1020},
	}

	pl := newPlanner(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := pl.Build(context.Background(), Request{
				Symbol:    eurusd(t),
				Direction: tt.dir,
				Balance:   10000,
				Entry:     1.1000,
				ATR:       0.0010,
				Ratios:    []float64{1.5, 2.0},
				Now:       now,
			})
			require.NoError(t, err)
			assert.Equal(t, StopATR, p.StopSource)
			assert.Equal(t, tt.wantStop, p.Stop)
			assert.Equal(t, 0.0010, p.ATR)
			assert.InDelta(t, 0.10, p.Sizing.Lots, 1e-9)
			assert.Len(t, p.Targets, 2)
		})
	}
}

func TestBuildATRFromCandles(t *testing.T) {
	t.Parallel()

	var candles []market.Candle
	for i := 0; i < 20; i++ {
		candles = append(candles, market.Candle{
			Open: 1.1, High: 1.101, Low: 1.099, Close: 1.1,
			Time: now.Add(time.Duration(i-20) * time.Hour),
		})
	}

	p, err := newPlanner(t, nil).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Entry:     1.1000,
		Candles:   candles,
		Now:       now,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.002, p.ATR, 1e-9)
	assert.Equal(t, 1.096, p.Stop)
}

func TestBuildBlockedByDailyLoss(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	p, err := newPlanner(t, rec).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Short,
		Balance:   9400,
		Equity:    9400,
		Entry:     1.1000,
		Stop:      1.1000,
		Day:       risk.DailyState{Day: "2026-10-19", StartingBalance: 10000, RealizedPnL: -600, PeakBalance: 10000},
		Now:       now,
	})
	require.NoError(t, err)

	assert.False(t, p.Allowed())
	require.Len(t, p.Decision.Violations, 1)
	assert.Equal(t, risk.ViolationDailyLoss, p.Decision.Violations[0].Code)

	require.Len(t, rec.plans, 1)
	assert.False(t, rec.plans[0].Allowed)
	assert.Equal(t, []string{risk.ViolationDailyLoss, risk.AdvisoryZeroStopDistance}, rec.plans[0].Violations)
}

func TestBuildBlockedByOpenLoss(t *testing.T) {
	t.Parallel()

	p, err := newPlanner(t, nil).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Equity:    9400,
		Entry:     1.1000,
		Stop:      1.0990,
		Now:       now,
	})
	require.NoError(t, err)

	assert.False(t, p.Allowed())
	require.Len(t, p.Decision.Violations, 1)
	assert.Equal(t, risk.ViolationDailyLoss, p.Decision.Violations[0].Code)
	assert.InDelta(t, 0.06, p.Decision.DailyLossPct, 1e-12)
}

func TestBuildEquityDefaultsToDayBalance(t *testing.T) {
	t.Parallel()

	p, err := newPlanner(t, nil).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Entry:     1.1000,
		Stop:      1.0990,
		Day:       risk.DailyState{Day: "2026-10-19", StartingBalance: 10000, RealizedPnL: -550, PeakBalance: 10000},
		Now:       now,
	})
	require.NoError(t, err)

	assert.False(t, p.Allowed())
	assert.InDelta(t, 0.055, p.Decision.DailyLossPct, 1e-12)
}

func TestBuildStopWrongSide(t *testing.T) {
	t.Parallel()

	p, err := newPlanner(t, nil).Build(context.Background(), Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Entry:     1.1000,
		Stop:      1.1010,
		Now:       now,
	})
	require.NoError(t, err)
	require.Len(t, p.Sizing.Advisories, 1)
	assert.Equal(t, AdvisoryStopWrongSide, p.Sizing.Advisories[0].Code)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	pl := newPlanner(t, nil)
	ctx := context.Background()

	_, err := pl.Build(ctx, Request{Symbol: eurusd(t), Balance: 10000, Entry: 1.1, Stop: 1.09})
	assert.ErrorIs(t, err, risk.ErrInvalidArgument)

	_, err = pl.Build(ctx, Request{Symbol: eurusd(t), Direction: risk.Long, Balance: 10000, Entry: 1.1})
	assert.ErrorContains(t, err, "needs a stop price")

	_, err = pl.Build(ctx, Request{Symbol: eurusd(t), Direction: risk.Long, Balance: 10000, Entry: 1.1,
		Candles: make([]market.Candle, 3)})
	assert.ErrorContains(t, err, "not enough candles")

	_, err = pl.Build(ctx, Request{Symbol: eurusd(t), Direction: risk.Long, Balance: 0, Entry: 1.1, Stop: 1.09})
	assert.ErrorIs(t, err, risk.ErrInvalidArgument)

	boom := errors.New("disk full")
	_, err = newPlanner(t, &fakeRecorder{err: boom}).Build(ctx, Request{
		Symbol: eurusd(t), Direction: risk.Long, Balance: 10000, Entry: 1.1, Stop: 1.09,
	})
	assert.ErrorIs(t, err, boom)
}

func TestBuildRecordsToSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	p, err := newPlanner(t, j).Build(ctx, Request{
		Symbol:    eurusd(t),
		Direction: risk.Long,
		Balance:   10000,
		Entry:     1.1000,
		Stop:      1.0950,
		Ratios:    []float64{1.5, 2.0},
		Now:       now,
	})
	require.NoError(t, err)

	plans, err := j.ListPlans(ctx, 0)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, p.ID, plans[0].PlanID)
	assert.Equal(t, []float64{1.1075, 1.11}, plans[0].Targets)
	assert.InDelta(t, 0.04, plans[0].Lots, 1e-9)
}
