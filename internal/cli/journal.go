package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/riskdesk/journal"
	"github.com/rustyeddy/riskdesk/risk"
	"github.com/spf13/cobra"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Manage the SQLite ledger of days, trades and plans",
		Long: `Manage the ledger the circuit breakers read from.

Subcommands:
  open-day     - start a trading day at a balance
  close-trade  - record a closed trade and its realized PnL
  status       - evaluate daily loss and drawdown for a day
  trade        - show one trade
  today | day  - list trades closed on a day
  plans        - list recorded plans
  export       - write trades to CSV`,
	}

	cmd.AddCommand(
		newOpenDayCmd(rc),
		newCloseTradeCmd(rc),
		newStatusCmd(rc),
		newTradeCmd(rc),
		newTodayCmd(rc),
		newDayCmd(rc),
		newPlansCmd(rc),
		newExportCmd(rc),
	)
	return cmd
}

func today() string {
	return journal.DayKey(time.Now())
}

// dayBounds returns [start, end) of a YYYY-MM-DD day in loc.
func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation(journal.DayLayout, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}

func renderDay(w io.Writer, st risk.DailyState) {
	kvTable(w, "Day "+st.Day, []table.Row{
		{"Starting balance", fmt.Sprintf("%.2f", st.StartingBalance)},
		{"Realized PnL", fmt.Sprintf("%.2f", st.RealizedPnL)},
		{"Balance", fmt.Sprintf("%.2f", st.StartingBalance+st.RealizedPnL)},
		{"Peak balance", fmt.Sprintf("%.2f", st.PeakBalance)},
	})
}

func newOpenDayCmd(rc *RootConfig) *cobra.Command {
	var (
		day     string
		balance float64
	)
	cmd := &cobra.Command{
		Use:   "open-day",
		Short: "Start a trading day; an already open day is left untouched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if day == "" {
				day = today()
			}
			if balance == 0 {
				balance = rc.Cfg.Account.Balance
			}
			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			st, err := j.OpenDay(cmd.Context(), day, balance)
			if err != nil {
				return err
			}
			rc.Log.Info("day opened", "day", st.Day, "starting_balance", st.StartingBalance, "peak", st.PeakBalance)
			return rc.emit(cmd.OutOrStdout(), st, func(w io.Writer) { renderDay(w, st) })
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "trading day YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "starting balance (default account.balance)")
	return cmd
}

func newCloseTradeCmd(rc *RootConfig) *cobra.Command {
	var (
		t       journal.TradeRecord
		opened  string
		closed  string
		openDay bool
	)
	t.Direction = risk.Long

	cmd := &cobra.Command{
		Use:   "close-trade",
		Short: "Record a closed trade and add its PnL to the day it closed on",
		Long: `Record a closed trade.

Times are RFC3339; --closed defaults to now. The trade counts toward
the day it closed on, which must be open unless --open-day is given.

Example:
  riskdesk journal close-trade --symbol EURUSD --side long --lots 0.2 \
    --entry 1.1000 --exit 1.0990 --pnl -200 --reason SL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var err error
			t.CloseTime = time.Now()
			if closed != "" {
				if t.CloseTime, err = time.Parse(time.RFC3339, closed); err != nil {
					return fmt.Errorf("--closed: %w", err)
				}
			}
			t.OpenTime = t.CloseTime
			if opened != "" {
				if t.OpenTime, err = time.Parse(time.RFC3339, opened); err != nil {
					return fmt.Errorf("--opened: %w", err)
				}
			}

			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			if openDay {
				if _, err := j.OpenDay(ctx, journal.DayKey(t.CloseTime), rc.Cfg.Account.Balance); err != nil {
					return err
				}
			}

			st, err := j.RecordTrade(ctx, t)
			if errors.Is(err, journal.ErrDayNotOpened) {
				return fmt.Errorf("%w (run journal open-day or pass --open-day)", err)
			}
			if err != nil {
				return err
			}
			rc.Log.Info("trade recorded",
				"symbol", t.Symbol,
				"direction", t.Direction.String(),
				"pnl", t.RealizedPnL,
				"day", st.Day,
				"day_pnl", st.RealizedPnL,
			)
			return rc.emit(cmd.OutOrStdout(), st, func(w io.Writer) { renderDay(w, st) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&t.TradeID, "id", "", "trade id (default generated)")
	f.StringVar(&t.PlanID, "plan", "", "plan id the trade was opened from")
	f.StringVar(&t.Symbol, "symbol", "", "symbol (required)")
	f.VarP(&t.Direction, "side", "s", "long|buy or short|sell")
	f.Float64Var(&t.Lots, "lots", 0, "volume in lots")
	f.Float64Var(&t.EntryPrice, "entry", 0, "entry price")
	f.Float64Var(&t.ExitPrice, "exit", 0, "exit price")
	f.Float64Var(&t.RealizedPnL, "pnl", 0, "realized PnL in account currency (required)")
	f.StringVar(&t.Reason, "reason", "", "close reason, e.g. TP, SL, manual")
	f.StringVar(&opened, "opened", "", "open time, RFC3339")
	f.StringVar(&closed, "closed", "", "close time, RFC3339 (default now)")
	f.BoolVar(&openDay, "open-day", false, "open the close day at account.balance if needed")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("pnl")
	return cmd
}

type statusResult struct {
	Day      risk.DailyState `json:"day"`
	Equity   float64         `json:"equity"`
	Decision risk.Decision   `json:"decision"`
}

func newStatusCmd(rc *RootConfig) *cobra.Command {
	var (
		day    string
		equity float64
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Evaluate daily loss and drawdown for a day in the ledger",
		Long: `Evaluate both circuit breakers for a day.

--equity (default: starting balance plus realized PnL) is checked against
the peak, and a new high raises the stored peak.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if day == "" {
				day = today()
			}
			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			st, err := j.Day(ctx, day)
			if err != nil {
				return err
			}
			if equity == 0 {
				equity = st.StartingBalance + st.RealizedPnL
			}
			if st, err = j.ObserveEquity(ctx, day, equity); err != nil {
				return err
			}
			d, err := calc.Evaluate(st, equity)
			if err != nil {
				return err
			}
			for _, v := range d.Violations {
				rc.Log.Warn(v.Msg, "code", v.Code, "day", day)
			}

			res := statusResult{Day: st, Equity: equity, Decision: d}
			return rc.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				renderDay(w, st)
				rows := []table.Row{
					{"Equity", fmt.Sprintf("%.2f", equity)},
					{"Daily loss", fmt.Sprintf("%.2f%% / %.2f%%", 100*d.DailyLossPct, 100*calc.Limits().MaxDailyLoss)},
					{"Drawdown", fmt.Sprintf("%.2f%% / %.2f%%", 100*d.Drawdown, 100*calc.Limits().MaxDrawdown)},
					{"Trading", yesNo(d.Allowed)},
				}
				for _, v := range d.Violations {
					rows = append(rows, table.Row{v.Code, v.Msg})
				}
				kvTable(w, "Circuit breakers", rows)
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "trading day YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&equity, "equity", 0, "current equity including open positions")
	return cmd
}

func renderTrades(w io.Writer, title string, recs []journal.TradeRecord) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Closed", "Symbol", "Side", "Lots", "Entry", "Exit", "PnL", "Reason", "Trade"})
	for _, r := range recs {
		t.AppendRow(table.Row{
			r.CloseTime.Local().Format("15:04:05"),
			r.Symbol,
			r.Direction,
			r.Lots,
			r.EntryPrice,
			r.ExitPrice,
			fmt.Sprintf("%.2f", r.RealizedPnL),
			r.Reason,
			r.TradeID,
		})
	}
	s := journal.Summarize(recs)
	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d trades", s.Trades), fmt.Sprintf("%dW/%dL", s.Wins, s.Losses),
		"", "", "Net", fmt.Sprintf("%.2f", s.NetPnL), fmt.Sprintf("PF %.2f", s.ProfitFactor), "",
	})
	t.Render()
}

type tradesResult struct {
	Trades  []journal.TradeRecord `json:"trades"`
	Summary journal.Summary       `json:"summary"`
}

func listDay(cmd *cobra.Command, rc *RootConfig, day string) error {
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	j, err := rc.openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	res := tradesResult{Trades: recs, Summary: journal.Summarize(recs)}
	return rc.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
		renderTrades(w, "Trades "+day, recs)
	})
}

func newTodayCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List trades closed today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDay(cmd, rc, today())
		},
	}
}

func newDayCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "List trades closed on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDay(cmd, rc, args[0])
		},
	}
}

func newTradeCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "trade TRADE_ID",
		Short: "Show a single trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			r, err := j.GetTrade(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rc.emit(cmd.OutOrStdout(), r, func(w io.Writer) {
				kvTable(w, "Trade "+r.TradeID, []table.Row{
					{"Plan", r.PlanID},
					{"Symbol", r.Symbol},
					{"Side", r.Direction},
					{"Lots", r.Lots},
					{"Entry", r.EntryPrice},
					{"Exit", r.ExitPrice},
					{"Opened", r.OpenTime.Local().Format(time.DateTime)},
					{"Closed", r.CloseTime.Local().Format(time.DateTime)},
					{"PnL", fmt.Sprintf("%.2f", r.RealizedPnL)},
					{"Reason", r.Reason},
				})
			})
		},
	}
}

func newPlansCmd(rc *RootConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List recorded plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			plans, err := j.ListPlans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return rc.emit(cmd.OutOrStdout(), plans, func(w io.Writer) {
				t := newTable(w, "Plans")
				t.AppendHeader(table.Row{"Created", "Symbol", "Side", "Entry", "Stop", "Lots", "Risk", "Trading", "Notes", "Plan"})
				for _, p := range plans {
					notes := strings.Join(p.Violations, " ")
					t.AppendRow(table.Row{
						p.CreatedAt.Local().Format(time.DateTime),
						p.Symbol,
						p.Direction,
						p.Entry,
						p.Stop,
						fmt.Sprintf("%.2f", p.Lots),
						fmt.Sprintf("%.2f", p.RiskAmount),
						yesNo(p.Allowed),
						notes,
						p.PlanID,
					})
				}
				t.Render()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of plans, 0 for all")
	return cmd
}

func newExportCmd(rc *RootConfig) *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write trades closed in [--from, --to] to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				from = today()
			}
			if to == "" {
				to = from
			}
			start, _, err := dayBounds(time.Local, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			_, end, err := dayBounds(time.Local, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			j, err := rc.openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				fh, err := os.Create(out)
				if err != nil {
					return err
				}
				defer fh.Close()
				w = fh
			}
			if err := journal.WriteTradesCSV(w, recs); err != nil {
				return err
			}
			rc.Log.Info("trades exported", "from", from, "to", to, "count", len(recs), "file", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD (default --from)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}
