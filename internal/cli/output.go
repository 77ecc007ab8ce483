package cli

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// emit writes v as indented JSON when -o json was given, otherwise it
// calls render to draw tables.
func (rc *RootConfig) emit(w io.Writer, v any, render func(w io.Writer)) error {
	if rc.Output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render(w)
	return nil
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// kvTable renders two-column key/value rows.
func kvTable(w io.Writer, title string, rows []table.Row) {
	t := newTable(w, title)
	t.AppendRows(rows)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	t.Render()
}

func yesNo(ok bool) string {
	if ok {
		return text.FgGreen.Sprint("ALLOWED")
	}
	return text.FgRed.Sprint("BLOCKED")
}
