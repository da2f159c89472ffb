package main

import (
	"strconv"

	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. widthMax of zero leaves it unbounded.
type column struct {
	header   string
	align    text.Align
	widthMax int
}

var (
	menuColumns = []column{
		{header: "Meal", align: text.AlignLeft, widthMax: 12},
		{header: "Menu", align: text.AlignLeft, widthMax: 48},
		{header: "Rating", align: text.AlignRight, widthMax: 8},
	}
	activityColumns = []column{
		{header: "Feature", align: text.AlignLeft, widthMax: 12},
		{header: "OK", align: text.AlignRight},
		{header: "Failed", align: text.AlignRight},
		{header: "Avg", align: text.AlignRight, widthMax: 8},
	}
)

// menuTable lays out the mess menu, one meal per row. Long dishes wrap
// inside the Menu column.
func menuTable(entries []types.MenuEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.MealType, e.Menu, display.Rating(e.Rating)})
	}
	return renderTable(menuColumns, rows)
}

// activityTable lays out per-feature request counts from the journal.
func activityTable(stats []journal.FeatureStats) string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			string(s.Feature),
			strconv.Itoa(s.Success),
			strconv.Itoa(s.Failed),
			display.Elapsed(s.Average),
		})
	}
	return renderTable(activityColumns, rows)
}

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    c.widthMax,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
