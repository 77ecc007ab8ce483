package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Check   string  `json:"check"`
	Allowed bool    `json:"allowed"`
	Value   float64 `json:"value"` // loss or drawdown fraction
	Limit   float64 `json:"limit"`
}

func (r checkResult) render(w io.Writer) {
	kvTable(w, r.Check, []table.Row{
		{"Value", fmt.Sprintf("%.2f%%", 100*r.Value)},
		{"Limit", fmt.Sprintf("%.2f%%", 100*r.Limit)},
		{"Trading", yesNo(r.Allowed)},
	})
}

func newCheckCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the daily loss and drawdown circuit breakers",
		Long: `Evaluate a single circuit breaker from explicit numbers.

Subcommands:
  daily    - has the day's loss reached risk.max_daily_loss?
  drawdown - has equity fallen risk.max_drawdown below the peak?

Use "riskdesk journal status" to evaluate both against the ledger.`,
	}

	var pnl, start float64
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Check the day's PnL against max_daily_loss",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			if start == 0 {
				start = rc.Cfg.Account.Balance
			}
			ok, err := calc.CheckDailyLimit(pnl, start)
			if err != nil {
				return err
			}
			res := checkResult{Check: "Daily loss", Allowed: ok, Value: -pnl / start, Limit: calc.Limits().MaxDailyLoss}
			if !ok {
				rc.Log.Warn("daily loss limit reached", "loss_pct", 100*res.Value)
			}
			return rc.emit(cmd.OutOrStdout(), res, res.render)
		},
	}
	daily.Flags().Float64Var(&pnl, "pnl", 0, "realized plus unrealized PnL of the day")
	daily.Flags().Float64Var(&start, "start", 0, "starting balance of the day (default account.balance)")
	_ = daily.MarkFlagRequired("pnl")

	var peak, equity float64
	drawdown := &cobra.Command{
		Use:   "drawdown",
		Short: "Check equity against max_drawdown from the peak balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			ok, err := calc.CheckDrawdown(peak, equity)
			if err != nil {
				return err
			}
			res := checkResult{Check: "Drawdown", Allowed: ok, Value: (peak - equity) / peak, Limit: calc.Limits().MaxDrawdown}
			if !ok {
				rc.Log.Error("max drawdown reached", "drawdown_pct", 100*res.Value)
			}
			return rc.emit(cmd.OutOrStdout(), res, res.render)
		},
	}
	drawdown.Flags().Float64Var(&peak, "peak", 0, "highest balance observed (required)")
	drawdown.Flags().Float64Var(&equity, "equity", 0, "current equity (required)")
	_ = drawdown.MarkFlagRequired("peak")
	_ = drawdown.MarkFlagRequired("equity")

	cmd.AddCommand(daily, drawdown)
	return cmd
}
