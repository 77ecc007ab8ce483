package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/riskdesk/risk"
)

const tradeColumns = `trade_id, plan_id, symbol, direction, lots, entry_price, exit_price, open_time, close_time, realized_pnl, reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec TradeRecord
		dir string
	)
	err := s.Scan(
		&rec.TradeID,
		&rec.PlanID,
		&rec.Symbol,
		&dir,
		&rec.Lots,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPnL,
		&rec.Reason,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	if rec.Direction, err = risk.ParseDirection(dir); err != nil {
		return TradeRecord{}, err
	}
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	}
	return rec, err
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlans returns the most recent plans first. limit <= 0 means all.
func (j *SQLite) ListPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	q := `
		SELECT plan_id, created_at, symbol, direction, balance, entry_price, stop_price,
		       lots, risk_amount, distance_points, targets, allowed, violations
		FROM plans
		ORDER BY plan_id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		var (
			p          PlanRecord
			dir        string
			targets    string
			violations string
		)
		if err := rows.Scan(
			&p.PlanID, &p.CreatedAt, &p.Symbol, &dir, &p.Balance, &p.Entry, &p.Stop,
			&p.Lots, &p.RiskAmount, &p.DistancePoints, &targets, &p.Allowed, &violations,
		); err != nil {
			return nil, err
		}
		if p.Direction, err = risk.ParseDirection(dir); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(targets), &p.Targets); err != nil {
			return nil, fmt.Errorf("plan %s targets: %w", p.PlanID, err)
		}
		if violations != "" {
			p.Violations = strings.Split(violations, ",")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates realized results over a set of trades.
type Summary struct {
	Trades       int
	Wins         int
	Losses       int
	NetPnL       float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64 // 0 when there are no losses
}

func Summarize(recs []TradeRecord) Summary {
	var s Summary
	for _, r := range recs {
		s.Trades++
		s.NetPnL += r.RealizedPnL
		switch {
		case r.RealizedPnL > 0:
			s.Wins++
			s.GrossProfit += r.RealizedPnL
		case r.RealizedPnL < 0:
			s.Losses++
			s.GrossLoss -= r.RealizedPnL
		}
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s
}
