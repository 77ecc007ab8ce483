package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/riskdesk/pkg/id"
	"github.com/rustyeddy/riskdesk/risk"
)

// SQLite persists plans, closed trades and the per-day balances the
// circuit breakers need across restarts.
type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// OpenDay starts a trading day at startingBalance. Opening a day that
// already exists returns its stored state unchanged.
func (j *SQLite) OpenDay(ctx context.Context, day string, startingBalance float64) (risk.DailyState, error) {
	if startingBalance <= 0 {
		return risk.DailyState{}, fmt.Errorf("%w: starting balance %v", risk.ErrInvalidArgument, startingBalance)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return risk.DailyState{}, err
	}
	defer tx.Rollback()

	if st, err := dayTx(ctx, tx, day); err == nil {
		return st, nil
	} else if !errors.Is(err, ErrNotFound) {
		return risk.DailyState{}, err
	}

	peak, err := peakTx(ctx, tx)
	if err != nil {
		return risk.DailyState{}, err
	}
	st := risk.NewDailyState(day, startingBalance, peak)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO days (day, starting_balance, realized_pnl, peak_balance)
		VALUES (?, ?, ?, ?)`,
		st.Day, st.StartingBalance, st.RealizedPnL, st.PeakBalance,
	); err != nil {
		return risk.DailyState{}, err
	}
	return st, tx.Commit()
}

// Day returns the stored state of a day, with the peak carried forward
// from earlier days.
func (j *SQLite) Day(ctx context.Context, day string) (risk.DailyState, error) {
	return dayTx(ctx, j.db, day)
}

// Peak returns the highest balance ever observed, 0 on an empty ledger.
func (j *SQLite) Peak(ctx context.Context) (float64, error) {
	return peakTx(ctx, j.db)
}

// ObserveEquity raises the day's peak balance when equity is a new high.
func (j *SQLite) ObserveEquity(ctx context.Context, day string, equity float64) (risk.DailyState, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return risk.DailyState{}, err
	}
	defer tx.Rollback()

	st, err := dayTx(ctx, tx, day)
	if err != nil {
		return risk.DailyState{}, err
	}
	st.ObserveEquity(equity)
	if err := saveDayTx(ctx, tx, st); err != nil {
		return risk.DailyState{}, err
	}
	return st, tx.Commit()
}

// RecordTrade stores a closed trade and adds its PnL to the day it
// closed on. The day must have been opened. A missing TradeID is filled in.
func (j *SQLite) RecordTrade(ctx context.Context, t TradeRecord) (risk.DailyState, error) {
	if t.TradeID == "" {
		t.TradeID = id.New()
	}
	if !t.Direction.Valid() {
		return risk.DailyState{}, fmt.Errorf("%w: trade direction", risk.ErrInvalidArgument)
	}
	if math.IsNaN(t.RealizedPnL) || math.IsInf(t.RealizedPnL, 0) {
		return risk.DailyState{}, fmt.Errorf("%w: realized pnl %v", risk.ErrInvalidArgument, t.RealizedPnL)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return risk.DailyState{}, err
	}
	defer tx.Rollback()

	day := DayKey(t.CloseTime)
	st, err := dayTx(ctx, tx, day)
	if errors.Is(err, ErrNotFound) {
		return risk.DailyState{}, fmt.Errorf("%w: %s", ErrDayNotOpened, day)
	}
	if err != nil {
		return risk.DailyState{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, plan_id, symbol, direction, lots, entry_price, exit_price, open_time, close_time, day, realized_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.PlanID, t.Symbol, t.Direction.String(), t.Lots, t.EntryPrice,
		t.ExitPrice, t.OpenTime.UTC(), t.CloseTime.UTC(), day, t.RealizedPnL, t.Reason,
	)
	if err != nil {
		return risk.DailyState{}, fmt.Errorf("insert trade: %w", err)
	}

	st.Record(t.RealizedPnL)
	if err := saveDayTx(ctx, tx, st); err != nil {
		return risk.DailyState{}, err
	}
	return st, tx.Commit()
}

// RecordPlan stores a sizing decision. A missing PlanID is filled in.
func (j *SQLite) RecordPlan(ctx context.Context, p PlanRecord) error {
	if p.PlanID == "" {
		p.PlanID = id.New()
	}
	targets, err := json.Marshal(p.Targets)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO plans
		(plan_id, created_at, symbol, direction, balance, entry_price, stop_price, lots, risk_amount, distance_points, targets, allowed, violations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PlanID, p.CreatedAt.UTC(), p.Symbol, p.Direction.String(), p.Balance, p.Entry, p.Stop,
		p.Lots, p.RiskAmount, p.DistancePoints, string(targets), p.Allowed, strings.Join(p.Violations, ","),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dayTx loads a day. Its peak is the highest of its own row and every
// earlier day, so a late trade on a past day still raises later peaks.
func dayTx(ctx context.Context, q queryer, day string) (risk.DailyState, error) {
	st := risk.DailyState{Day: day}
	err := q.QueryRowContext(ctx, `
		SELECT d.starting_balance, d.realized_pnl,
		       (SELECT MAX(p.peak_balance) FROM days p WHERE p.day <= d.day)
		FROM days d WHERE d.day = ?`, day).Scan(&st.StartingBalance, &st.RealizedPnL, &st.PeakBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return risk.DailyState{}, fmt.Errorf("day %s: %w", day, ErrNotFound)
	}
	if err != nil {
		return risk.DailyState{}, err
	}
	return st, nil
}

func peakTx(ctx context.Context, q queryer) (float64, error) {
	var peak sql.NullFloat64
	if err := q.QueryRowContext(ctx, `SELECT MAX(peak_balance) FROM days`).Scan(&peak); err != nil {
		return 0, err
	}
	return peak.Float64, nil
}

func saveDayTx(ctx context.Context, tx *sql.Tx, st risk.DailyState) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE days SET realized_pnl = ?, peak_balance = ?
		WHERE day = ?`, st.RealizedPnL, st.PeakBalance, st.Day)
	return err
}
