package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/riskdesk/indicators"
	"github.com/rustyeddy/riskdesk/market"
	"github.com/rustyeddy/riskdesk/risk"
	"github.com/spf13/cobra"
)

// symbolFlags lets the caller override catalog metadata with the
// broker's live values.
type symbolFlags struct {
	name       string
	point      float64
	volumeMin  float64
	volumeMax  float64
	volumeStep float64
	pointValue float64
	mid        float64
}

func (sf *symbolFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.name, "symbol", "", "symbol from the catalog (default trading.default_symbol)")
	f.Float64Var(&sf.point, "point", 0, "override: minimum price increment")
	f.Float64Var(&sf.volumeMin, "volume-min", 0, "override: minimum volume")
	f.Float64Var(&sf.volumeMax, "volume-max", 0, "override: maximum volume")
	f.Float64Var(&sf.volumeStep, "volume-step", 0, "override: volume step")
	f.Float64Var(&sf.pointValue, "point-value", 0, "override: money per point per lot")
	f.Float64Var(&sf.mid, "mid", 0, "forex: derive point value from this mid price and account.currency")
}

func (sf *symbolFlags) resolve(rc *RootConfig) (risk.SymbolSpec, error) {
	name := sf.name
	if name == "" {
		name = rc.Cfg.Trading.DefaultSymbol
	}
	in, err := market.Lookup(name)
	if err != nil {
		return risk.SymbolSpec{}, err
	}
	spec := in.SymbolSpec
	if sf.point > 0 {
		spec.Point = sf.point
	}
	if sf.volumeMin > 0 {
		spec.VolumeMin = sf.volumeMin
	}
	if sf.volumeMax > 0 {
		spec.VolumeMax = sf.volumeMax
	}
	if sf.volumeStep > 0 {
		spec.VolumeStep = sf.volumeStep
	}
	if sf.pointValue > 0 {
		spec.PointValue = sf.pointValue
	} else if sf.mid > 0 {
		if spec.PointValue, err = market.PointValue(in, rc.Cfg.Account.Currency, sf.mid); err != nil {
			return risk.SymbolSpec{}, err
		}
	}
	return spec, spec.Validate()
}

func readCandles(path string) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return market.ReadCandlesCSV(f)
}

func newSizeCmd(rc *RootConfig) *cobra.Command {
	var (
		sf      symbolFlags
		balance float64
		entry   float64
		stop    float64
		side    = risk.Long
	)

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute the lot size that risks risk_per_trade of the balance",
		Long: `Compute a lot size from balance, entry and stop.

The stop distance is measured in symbol points. A stop equal to the
entry is replaced by a 10 point minimum and reported as an advisory.

Example:
  riskdesk size --symbol EURUSD --balance 10000 --entry 1.1000 --stop 1.0990`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			s, err := calc.LotSize(balance, entry, stop, spec, side)
			if err != nil {
				return err
			}
			for _, a := range s.Advisories {
				rc.Log.Warn(a.Msg, "code", a.Code, "symbol", spec.Name)
			}
			rc.Log.Debug("lot size", "symbol", spec.Name, "lots", s.Lots, "raw", s.RawLots)

			return rc.emit(cmd.OutOrStdout(), s, func(w io.Writer) {
				rows := []table.Row{
					{"Symbol", spec.Name},
					{"Side", side},
					{"Balance", fmt.Sprintf("%.2f", balance)},
					{"Risk", fmt.Sprintf("%.2f (%.2f%%)", s.RiskAmount, 100*calc.Limits().RiskPerTrade)},
					{"Stop distance", fmt.Sprintf("%.1f points", s.DistancePoints)},
					{"Point value", fmt.Sprintf("%.2f", s.PointValue)},
					{"Raw lots", fmt.Sprintf("%.6f", s.RawLots)},
					{"Lots", fmt.Sprintf("%.2f", s.Lots)},
				}
				for _, a := range s.Advisories {
					rows = append(rows, table.Row{a.Code, a.Msg})
				}
				kvTable(w, "Position size", rows)
			})
		},
	}

	sf.register(cmd)
	f := cmd.Flags()
	f.Float64Var(&balance, "balance", 0, "account balance (default account.balance)")
	f.Float64Var(&entry, "entry", 0, "entry price (required)")
	f.Float64Var(&stop, "stop", 0, "stop loss price (required)")
	f.VarP(&side, "side", "s", "long|buy or short|sell")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("stop")
	return cmd
}

func newStopCmd(rc *RootConfig) *cobra.Command {
	var (
		entry      float64
		atr        float64
		candles    string
		period     int
		multiplier float64
		side       = risk.Long
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Place a stop loss a multiple of ATR away from entry",
		Long: `Place a stop loss multiplier x ATR away from the entry price.

ATR is taken from --atr or computed over a candle CSV
(time,open,high,low,close[,volume]) given with --candles.

Examples:
  riskdesk stop --entry 1.1000 --atr 0.0010
  riskdesk stop --entry 1.1000 --candles eurusd_h1.csv --period 14 --side short`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			if multiplier == 0 {
				multiplier = rc.Cfg.Risk.ATRMultiplier
			}
			if atr == 0 {
				if candles == "" {
					return fmt.Errorf("one of --atr or --candles is required")
				}
				cs, err := readCandles(candles)
				if err != nil {
					return fmt.Errorf("candles: %w", err)
				}
				if period == 0 {
					period = rc.Cfg.Risk.ATRPeriod
				}
				if atr, err = indicators.ATRFunc(cs, period); err != nil {
					return err
				}
			}

			sl, err := calc.DynamicStop(entry, atr, multiplier, side)
			if err != nil {
				return err
			}

			res := struct {
				Entry      float64 `json:"entry"`
				ATR        float64 `json:"atr"`
				Multiplier float64 `json:"multiplier"`
				Stop       float64 `json:"stop"`
			}{entry, atr, multiplier, sl}

			return rc.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				kvTable(w, "ATR stop", []table.Row{
					{"Side", side},
					{"Entry", entry},
					{"ATR", atr},
					{"Multiplier", multiplier},
					{"Stop", sl},
				})
			})
		},
	}

	f := cmd.Flags()
	f.Float64Var(&entry, "entry", 0, "entry price (required)")
	f.Float64Var(&atr, "atr", 0, "ATR value")
	f.StringVar(&candles, "candles", "", "candle CSV to compute ATR from")
	f.IntVar(&period, "period", 0, "ATR period (default risk.atr_period)")
	f.Float64Var(&multiplier, "multiplier", 0, "ATR multiplier (default risk.atr_multiplier)")
	f.VarP(&side, "side", "s", "long|buy or short|sell")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func newTargetsCmd(rc *RootConfig) *cobra.Command {
	var (
		entry  float64
		stop   float64
		ratios []float64
		side   = risk.Long
	)

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Compute take-profit levels at R:R multiples of the stop distance",
		Long: `Compute one take-profit price per reward to risk ratio.

Example:
  riskdesk targets --entry 1.1000 --stop 1.0950 --ratios 1.5,2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := rc.calculator()
			if err != nil {
				return err
			}
			if len(ratios) == 0 {
				ratios = rc.Cfg.Risk.TPRatios
			}
			if len(ratios) == 0 {
				ratios = risk.DefaultTPRatios
			}
			tps := calc.MultiTP(entry, stop, ratios, side)

			return rc.emit(cmd.OutOrStdout(), tps, func(w io.Writer) {
				t := newTable(w, fmt.Sprintf("Take profit (%s, entry %v, stop %v)", side, entry, stop))
				t.AppendHeader(table.Row{"#", "R:R", "Price"})
				for i, tp := range tps {
					t.AppendRow(table.Row{i + 1, ratios[i], tp})
				}
				t.Render()
			})
		},
	}

	f := cmd.Flags()
	f.Float64Var(&entry, "entry", 0, "entry price (required)")
	f.Float64Var(&stop, "stop", 0, "stop loss price (required)")
	f.Float64SliceVar(&ratios, "ratios", nil, "R:R ratios (default risk.tp_ratios)")
	f.VarP(&side, "side", "s", "long|buy or short|sell")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("stop")
	return cmd
}
