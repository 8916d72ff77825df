package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// statusTable renders one section of `lectern status`. Columns are
// left-aligned unless marked numeric (counts, durations) or marker (the
// ledger's per-stage completion cells, centered under their stage heading).
type statusTable struct {
	tw     table.Writer
	aligns map[int]text.Align
}

func newStatusTable(headers ...string) *statusTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	row := make(table.Row, len(headers))
	for i, header := range headers {
		row[i] = header
	}
	tw.AppendHeader(row)

	return &statusTable{tw: tw, aligns: make(map[int]text.Align)}
}

// numeric right-aligns the given 1-based columns.
func (t *statusTable) numeric(columns ...int) *statusTable {
	for _, col := range columns {
		t.aligns[col] = text.AlignRight
	}
	return t
}

// marker centers every column from first onward, for the ledger's stage
// cells.
func (t *statusTable) marker(first, last int) *statusTable {
	for col := first; col <= last; col++ {
		t.aligns[col] = text.AlignCenter
	}
	return t
}

func (t *statusTable) addRow(cells ...string) {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	t.tw.AppendRow(row)
}

func (t *statusTable) render() string {
	configs := make([]table.ColumnConfig, 0, len(t.aligns))
	for col, align := range t.aligns {
		configs = append(configs, table.ColumnConfig{
			Number:      col,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	t.tw.SetColumnConfigs(configs)
	return t.tw.Render()
}
