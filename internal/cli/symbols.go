package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rustyeddy/riskdesk/market"
	"github.com/spf13/cobra"
)

func newSymbolsCmd(rc *RootConfig) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List the symbol catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []market.Instrument
			for _, name := range market.Names(market.Category(category)) {
				list = append(list, market.Instruments[name])
			}

			return rc.emit(cmd.OutOrStdout(), list, func(w io.Writer) {
				t := newTable(w, "Symbols")
				t.AppendHeader(table.Row{"Symbol", "Category", "Point", "Digits", "Vol min", "Vol max", "Vol step"})
				for _, in := range list {
					t.AppendRow(table.Row{in.Name, in.Category, in.Point, in.Digits, in.VolumeMin, in.VolumeMax, in.VolumeStep})
				}
				t.Render()
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "forex, crypto or synthetic (default all)")
	return cmd
}
