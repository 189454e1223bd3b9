package dashboard

import (
	"math"
	"sort"

	"nhsdash/internal/dataset"
)

const (
	topProvidersLimit = 10

	colorAnswered60s = "#4CAF50"
	colorCallback10m = "#2196F3"
)

// TopProviders returns the first limit rows ordered by Combined_Rank,
// lowest first. Ties keep file order and missing ranks sort last.
// Providers are not de-duplicated.
func TopProviders(full *dataset.Table, limit int) []dataset.Row {
	rows := full.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].CombinedRank, rows[j].CombinedRank
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a < b
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// buildTopTen compares the two answering KPIs for the best ranked rows,
// or for every row of the selected provider.
func buildTopTen(full, subset *dataset.Table, selector string) Artifact {
	chart := &Chart{
		Type:    ChartBar,
		XAxis:   Axis{Title: "Provider Name"},
		YAxis:   Axis{Title: "Rate (%)"},
		Legend:  Legend{Show: true, Title: "Metrics"},
		BarMode: "group",
	}

	var rows []dataset.Row
	if isAll(selector) {
		rows = TopProviders(full, topProvidersLimit)
		chart.Title = "Top 10 Providers by Performance (Combined KPIs)"
		chart.XAxis.TickAngle = 45
	} else {
		rows = subset.Rows()
		chart.Title = "Performance KPIs for " + selector
	}

	answered := Series{Name: "Answered in 60s", Color: colorAnswered60s}
	callback := Series{Name: "Callback in 10min", Color: colorCallback10m}
	for _, r := range rows {
		chart.Categories = append(chart.Categories, r.Provider)
		answered.Values = append(answered.Values, Float(r.Answered60sRate))
		callback.Values = append(callback.Values, Float(r.Callback10mRate))
	}
	chart.Series = []Series{answered, callback}

	return Artifact{Kind: KindChart, Chart: chart}
}
