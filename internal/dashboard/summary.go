package dashboard

import (
	"nhsdash/internal/dataset"
)

// buildSummary reports six headline figures for the selected rows.
func buildSummary(_, subset *dataset.Table, _ string) Artifact {
	offered := nanSum(subset.Floats(dataset.ColCallsOffered))
	abandonment := nanMean(subset.Floats(dataset.ColAbandonmentRate)) * 100
	totalCost := nanSum(subset.Floats(dataset.ColTotalCost))
	avgCost := nanMean(subset.Floats(dataset.ColCostPerAnsweredCall))
	through111 := nanSum(subset.Floats(dataset.ColCallsThrough111))
	population := nanSum(subset.Floats(dataset.ColPopulation))

	return Artifact{
		Kind: KindCards,
		Cards: []Card{
			{Label: "Total Calls Offered", Value: formatCount(offered), Raw: Float(offered)},
			{Label: "Average Abandonment Rate", Value: formatPercent(abandonment), Raw: Float(abandonment)},
			{Label: "Total Cost (£)", Value: formatPounds(totalCost), Raw: Float(totalCost)},
			{Label: "Avg Cost per Answered Call (£)", Value: formatPoundsPlain(avgCost), Raw: Float(avgCost)},
			{Label: "Total Calls Through NHS 111", Value: formatCount(through111), Raw: Float(through111)},
			{Label: "Total Caller Population", Value: formatCount(population), Raw: Float(population)},
		},
	}
}
