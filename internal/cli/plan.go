package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/riskdesk/journal"
	"github.com/rustyeddy/riskdesk/plan"
	"github.com/rustyeddy/riskdesk/risk"
	"github.com/spf13/cobra"
)

func newPlanCmd(rc *RootConfig) *cobra.Command {
	var (
		sf         symbolFlags
		side       = risk.Long
		balance    float64
		equity     float64
		entry      float64
		stop       float64
		atr        float64
		candles    string
		period     int
		multiplier float64
		ratios     []float64
		day        string
		noRecord   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build a full trade plan: stop, size, targets and limit checks",
		Long: `Build a trade plan and record it in the ledger.

The stop is --stop when given, otherwise ATR based (--atr or --candles).
The day's starting balance, realized PnL and peak come from the ledger;
the first plan of a day opens it at --balance.

Examples:
  riskdesk plan --symbol EURUSD --side long --entry 1.1000 --stop 1.0990
  riskdesk plan --symbol GBPJPY --side sell --entry 191.250 --candles gbpjpy_h1.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			spec, err := sf.resolve(rc)
			if err != nil {
				return err
			}
			if balance == 0 {
				balance = rc.Cfg.Account.Balance
			}
			if multiplier == 0 {
				multiplier = rc.Cfg.Risk.ATRMultiplier
			}
			if period == 0 {
				period = rc.Cfg.Risk.ATRPeriod
			}
			if len(ratios) == 0 {
				ratios = rc.Cfg.Risk.TPRatios
			}

			now := time.Now()
			if day == "" {
				day = journal.DayKey(now)
			}

			req := plan.Request{
				Symbol:        spec,
				Direction:     side,
				Balance:       balance,
				Equity:        equity,
				Entry:         entry,
				Stop:          stop,
				ATR:           atr,
				ATRMultiplier: multiplier,
				ATRPeriod:     period,
				Ratios:        ratios,
				Now:           now,
			}
			if stop == 0 && atr == 0 && candles != "" {
				if req.Candles, err = readCandles(candles); err != nil {
					return fmt.Errorf("candles: %w", err)
				}
			}

			var rec plan.Recorder
			if !noRecord {
				j, err := rc.openJournal()
				if err != nil {
					return err
				}
				defer j.Close()

				if req.Day, err = j.OpenDay(ctx, day, balance); err != nil {
					return fmt.Errorf("open day: %w", err)
				}
				if !cmd.Flags().Changed("balance") {
					req.Balance = req.Day.Balance()
				}
				rec = j
			}

			p, err := plan.New(calc, rec, rc.Log).Build(ctx, req)
			if err != nil {
				return err
			}
			return rc.emit(cmd.OutOrStdout(), p, func(w io.Writer) { renderPlan(w, p) })
		},
	}

	sf.register(cmd)
	f := cmd.Flags()
	f.VarP(&side, "side", "s", "long|buy or short|sell")
	f.Float64Var(&balance, "balance", 0, "account balance (default account.balance)")
	f.Float64Var(&equity, "equity", 0, "current equity for the drawdown check (default balance)")
	f.Float64Var(&entry, "entry", 0, "entry price (required)")
	f.Float64Var(&stop, "stop", 0, "stop loss price")
	f.Float64Var(&atr, "atr", 0, "ATR value for an ATR stop")
	f.StringVar(&candles, "candles", "", "candle CSV to compute ATR from")
	f.IntVar(&period, "period", 0, "ATR period (default risk.atr_period)")
	f.Float64Var(&multiplier, "multiplier", 0, "ATR multiplier (default risk.atr_multiplier)")
	f.Float64SliceVar(&ratios, "ratios", nil, "R:R ratios (default risk.tp_ratios)")
	f.StringVar(&day, "day", "", "trading day YYYY-MM-DD (default today)")
	f.BoolVar(&noRecord, "no-record", false, "do not touch the ledger")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func renderPlan(w io.Writer, p plan.Plan) {
	rows := []table.Row{
		{"Plan", p.ID},
		{"Symbol", p.Symbol},
		{"Side", p.Direction},
		{"Entry", p.Entry},
		{"Stop", fmt.Sprintf("%v (%s)", p.Stop, p.StopSource)},
		{"Stop distance", fmt.Sprintf("%.1f points", p.Sizing.DistancePoints)},
		{"Lots", fmt.Sprintf("%.2f", p.Sizing.Lots)},
		{"Risk", fmt.Sprintf("%.2f", p.PlannedRisk)},
		{"Daily loss", fmt.Sprintf("%.2f%%", 100*p.Decision.DailyLossPct)},
		{"Drawdown", fmt.Sprintf("%.2f%%", 100*p.Decision.Drawdown)},
		{"Trading", yesNo(p.Allowed())},
	}
	if p.ATR > 0 {
		rows = append(rows, table.Row{"ATR", p.ATR})
	}
	kvTable(w, "Trade plan", rows)

	t := newTable(w, "Targets")
	t.AppendHeader(table.Row{"#", "R:R", "Price"})
	for i, tgt := range p.Targets {
		t.AppendRow(table.Row{i + 1, tgt.Ratio, tgt.Price})
	}
	t.Render()

	if len(p.Decision.Violations) == 0 && len(p.Sizing.Advisories) == 0 {
		return
	}
	n := newTable(w, "Notes")
	n.AppendHeader(table.Row{"Code", "Detail"})
	for _, v := range p.Decision.Violations {
		n.AppendRow(table.Row{v.Code, v.Msg})
	}
	for _, a := range p.Sizing.Advisories {
		n.AppendRow(table.Row{a.Code, a.Msg})
	}
	n.Render()
}
