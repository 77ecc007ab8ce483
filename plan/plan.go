// Package plan turns a trade idea into a sized, checked plan: stop,
// lot size, take-profit ladder and the circuit breaker verdict.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/riskdesk/indicators"
	"github.com/rustyeddy/riskdesk/journal"
	"github.com/rustyeddy/riskdesk/market"
	"github.com/rustyeddy/riskdesk/pkg/id"
	"github.com/rustyeddy/riskdesk/risk"
)

const (
	StopExplicit = "explicit"
	StopATR      = "atr"

	// AdvisoryStopWrongSide flags a stop placed on the profit side of entry.
	AdvisoryStopWrongSide = "STOP_WRONG_SIDE"
)

// Recorder persists plans. *journal.SQLite satisfies it.
type Recorder interface {
	RecordPlan(ctx context.Context, p journal.PlanRecord) error
}

type Request struct {
	Symbol    risk.SymbolSpec
	Direction risk.Direction
	Balance   float64
	Equity    float64 // 0 means the day's balance, without open positions
	Entry     float64

	// Stop is used as given when non-zero. Otherwise it is placed
	// ATRMultiplier ATRs away (0 means the default), with ATR taken
	// from the field or, when that is zero too, computed over Candles.
	Stop          float64
	ATR           float64
	ATRMultiplier float64
	ATRPeriod     int
	Candles       []market.Candle

	Ratios []float64

	// Day is the caller's running state. A zero Day is opened at Balance.
	Day risk.DailyState

	Now time.Time // zero means time.Now()
}

type Target struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
	RR    float64 `json:"rr"`
}

type Plan struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Symbol      string         `json:"symbol"`
	Direction   risk.Direction `json:"direction"`
	Balance     float64        `json:"balance"`
	Entry       float64        `json:"entry"`
	Stop        float64        `json:"stop"`
	StopSource  string         `json:"stop_source"`
	ATR         float64        `json:"atr,omitempty"`
	Sizing      risk.Sizing    `json:"sizing"`
	PlannedRisk float64        `json:"planned_risk"`
	Targets     []Target       `json:"targets"`
	Decision    risk.Decision  `json:"decision"`
}

// Allowed reports whether the circuit breakers let this trade through.
func (p Plan) Allowed() bool {
	return p.Decision.Allowed
}

// Record converts the plan to its ledger form.
func (p Plan) Record() journal.PlanRecord {
	r := journal.PlanRecord{
		PlanID:         p.ID,
		CreatedAt:      p.CreatedAt,
		Symbol:         p.Symbol,
		Direction:      p.Direction,
		Balance:        p.Balance,
		Entry:          p.Entry,
		Stop:           p.Stop,
		Lots:           p.Sizing.Lots,
		RiskAmount:     p.Sizing.RiskAmount,
		DistancePoints: p.Sizing.DistancePoints,
		Allowed:        p.Allowed(),
	}
	for _, t := range p.Targets {
		r.Targets = append(r.Targets, t.Price)
	}
	for _, v := range p.Decision.Violations {
		r.Violations = append(r.Violations, v.Code)
	}
	for _, a := range p.Sizing.Advisories {
		r.Violations = append(r.Violations, a.Code)
	}
	return r
}

type Planner struct {
	calc *risk.Calculator
	rec  Recorder
	log  *slog.Logger
}

// New returns a Planner. rec may be nil to skip persistence.
func New(calc *risk.Calculator, rec Recorder, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{calc: calc, rec: rec, log: log}
}

// Build sizes and checks a trade. A plan blocked by a loss limit is
// returned with Allowed() false; errors are reserved for bad input and
// ledger failures.
func (p *Planner) Build(ctx context.Context, req Request) (Plan, error) {
	if !req.Direction.Valid() {
		return Plan{}, fmt.Errorf("%w: direction is required", risk.ErrInvalidArgument)
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := Plan{
		ID:         id.NewAt(now),
		CreatedAt:  now,
		Symbol:     req.Symbol.Name,
		Direction:  req.Direction,
		Balance:    req.Balance,
		Entry:      req.Entry,
		Stop:       req.Stop,
		StopSource: StopExplicit,
	}
	log := p.log.With("plan", out.ID, "symbol", out.Symbol, "direction", out.Direction.String())

	if out.Stop == 0 {
		atr, err := resolveATR(req)
		if err != nil {
			return Plan{}, err
		}
		out.ATR = atr
		out.StopSource = StopATR
		mult := req.ATRMultiplier
		if mult == 0 {
			mult = risk.DefaultATRMultiplier
		}
		out.Stop, err = p.calc.DynamicStop(req.Entry, atr, mult, req.Direction)
		if err != nil {
			return Plan{}, err
		}
	}

	sizing, err := p.calc.LotSize(req.Balance, req.Entry, out.Stop, req.Symbol, req.Direction)
	if err != nil {
		return Plan{}, err
	}
	if wrongSide(req.Direction, req.Entry, out.Stop) {
		sizing.Advisories = append(sizing.Advisories, risk.Advisory{
			Code: AdvisoryStopWrongSide,
			Msg:  fmt.Sprintf("%s stop %v is on the profit side of entry %v", req.Direction, out.Stop, req.Entry),
		})
	}
	out.Sizing = sizing
	out.PlannedRisk = risk.PlannedRisk(sizing.Lots, req.Entry, out.Stop, req.Symbol, sizing.PointValue)
	for _, a := range sizing.Advisories {
		log.Warn(a.Msg, "code", a.Code)
	}

	ratios := req.Ratios
	if len(ratios) == 0 {
		ratios = risk.DefaultTPRatios
	}
	for i, price := range p.calc.MultiTP(req.Entry, out.Stop, ratios, req.Direction) {
		out.Targets = append(out.Targets, Target{
			Ratio: ratios[i],
			Price: price,
			RR:    risk.RR(req.Entry, out.Stop, price),
		})
	}

	day := req.Day
	equity := req.Equity
	if day.StartingBalance == 0 {
		day = risk.NewDailyState(journal.DayKey(now), req.Balance, req.Balance)
	}
	if equity == 0 {
		equity = day.Balance()
	}
	out.Decision, err = p.calc.Evaluate(day, equity)
	if err != nil {
		return Plan{}, err
	}
	for _, v := range out.Decision.Violations {
		if v.Code == risk.ViolationMaxDrawdown {
			log.Error(v.Msg, "code", v.Code)
		} else {
			log.Warn(v.Msg, "code", v.Code)
		}
	}

	if p.rec != nil {
		if err := p.rec.RecordPlan(ctx, out.Record()); err != nil {
			return Plan{}, fmt.Errorf("record plan: %w", err)
		}
	}

	log.Info("plan built",
		"entry", out.Entry,
		"stop", out.Stop,
		"lots", sizing.Lots,
		"risk", sizing.RiskAmount,
		"distance_points", sizing.DistancePoints,
		"allowed", out.Allowed(),
	)
	return out, nil
}

func resolveATR(req Request) (float64, error) {
	if req.ATR > 0 {
		return req.ATR, nil
	}
	if len(req.Candles) == 0 {
		return 0, errors.New("plan needs a stop price, an ATR value or candles to compute one")
	}
	period := req.ATRPeriod
	if period == 0 {
		period = indicators.DefaultATRPeriod
	}
	atr, err := indicators.ATRFunc(req.Candles, period)
	if err != nil {
		return 0, fmt.Errorf("atr: %w", err)
	}
	return atr, nil
}

func wrongSide(dir risk.Direction, entry, stop float64) bool {
	if dir == risk.Long {
		return stop > entry
	}
	return stop < entry
}
