package dashboard

import (
	"math"

	"nhsdash/internal/dataset"
)

const maxMarkerSize = 10

// providerPalette colours scatter series in order of first appearance.
var providerPalette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// buildScatter plots calls offered against ambulance dispatches per 1,000
// residents, one marker per row. Marker area is proportional to population.
// Rows whose coordinates are not finite cannot be placed and are left out.
func buildScatter(_, subset *dataset.Table, selector string) Artifact {
	rows := subset.Rows()

	maxPop := 0.0
	for _, r := range rows {
		if isFinite(r.Population) && r.Population > maxPop {
			maxPop = r.Population
		}
	}

	chart := &Chart{
		Type:  ChartScatter,
		XAxis: Axis{Title: "Calls Offered per 1k"},
		YAxis: Axis{Title: "Ambulance Dispatches per 1k"},
	}

	if !isAll(selector) {
		chart.Title = "Call Analysis for " + selector
		series := Series{Name: selector}
		for _, r := range rows {
			if p, ok := scatterPoint(r, maxPop); ok {
				series.Points = append(series.Points, p)
			}
		}
		chart.Series = []Series{series}
		return Artifact{Kind: KindChart, Chart: chart}
	}

	chart.Title = "Calls Offered vs. Ambulance Dispatches (Per 1,000 Residents)"
	chart.Legend = Legend{Show: true, Title: "Provider Name"}

	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Provider]
		if !ok {
			i = len(chart.Series)
			index[r.Provider] = i
			chart.Series = append(chart.Series, Series{
				Name:  r.Provider,
				Color: providerPalette[i%len(providerPalette)],
			})
		}
		if p, ok := scatterPoint(r, maxPop); ok {
			chart.Series[i].Points = append(chart.Series[i].Points, p)
		}
	}

	return Artifact{Kind: KindChart, Chart: chart}
}

func scatterPoint(r dataset.Row, maxPop float64) (Point, bool) {
	if !isFinite(r.CallsOfferedPer1k) || !isFinite(r.DispatchesPer1k) {
		return Point{}, false
	}
	return Point{
		X:     Float(r.CallsOfferedPer1k),
		Y:     Float(r.DispatchesPer1k),
		Size:  markerSize(r.Population, maxPop),
		Label: r.Provider,
	}, true
}

// markerSize maps population to a diameter so that marker area scales
// linearly and the largest population gets maxMarkerSize.
func markerSize(pop, maxPop float64) float64 {
	if !isFinite(pop) || pop <= 0 || maxPop <= 0 {
		return 0
	}
	return maxMarkerSize * math.Sqrt(pop/maxPop)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
