package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"lacuna/internal/library"
)

// recordTable renders completeness records in the report layout. The
// count columns are right-aligned so fractions and percentages line up.
func recordTable(records []*library.CompletenessRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Title", "Status", "Owned", "Complete", "Missing"})
	for _, record := range records {
		tw.AppendRow(table.Row{
			record.UnitTitle,
			record.Status,
			fmt.Sprintf("%d/%d", record.OwnedCount, record.TotalCount),
			strconv.Itoa(record.Percentage) + "%",
			len(record.Missing),
		})
	}
	tw.SetColumnConfigs(rightAligned(3, 4, 5))
	return tw.Render()
}

// metricTable renders the aggregate statistics, one metric per row.
func metricTable(stats *library.Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Records", stats.Records})
	tw.AppendRow(table.Row{"Complete", stats.Complete})
	tw.AppendRow(table.Row{"Incomplete", stats.Incomplete})
	tw.AppendRow(table.Row{"Unmatched", stats.Unmatched})
	tw.AppendRow(table.Row{"Missing items", stats.MissingItems})
	tw.AppendRow(table.Row{"Average completeness", fmt.Sprintf("%.1f%%", stats.AveragePercentage)})
	tw.SetColumnConfigs(rightAligned(2))
	return tw.Render()
}

func rightAligned(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, number := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      number,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	return configs
}
