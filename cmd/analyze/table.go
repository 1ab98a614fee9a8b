package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxCellRunes = 40

func renderResults(results []result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Category", "Title", "Key detail", "Source", "Item"})

	for _, res := range results {
		if res.Error != "" {
			tw.AppendRow(table.Row{res.Path, "error", clip(res.Error), "", "", ""})
			continue
		}

		detail := ""
		if res.KeyDetail != nil {
			detail = *res.KeyDetail
		}
		tw.AppendRow(table.Row{res.Path, string(res.Category), clip(res.Title), clip(detail), string(res.Source), renderItemCell(res)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxCellRunes {
		return s
	}
	return string(r[:maxCellRunes-3]) + "..."
}

func renderItemCell(res result) string {
	switch {
	case res.Skipped:
		return strconv.FormatInt(res.ItemID, 10) + " (cached)"
	case res.ItemID > 0:
		return strconv.FormatInt(res.ItemID, 10)
	}
	return ""
}
