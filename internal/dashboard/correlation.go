package dashboard

import (
	"nhsdash/internal/dataset"
)

// MissingColumnsMessage is shown instead of the heatmap when the dataset
// lacks a column the correlation needs.
const MissingColumnsMessage = "Error: Missing necessary columns for correlation analysis."

var correlationColumns = []string{dataset.ColTransferTime, dataset.ColAmbulanceDispatches}

// buildCorrelation draws the Pearson correlation matrix of transfer time
// and ambulance dispatches over the selected rows.
func buildCorrelation(_, subset *dataset.Table, selector string) Artifact {
	for _, col := range correlationColumns {
		if !subset.HasColumn(col) {
			return messageArtifact(MissingColumnsMessage)
		}
	}

	data := make([][]float64, len(correlationColumns))
	for i, col := range correlationColumns {
		data[i] = subset.Floats(col)
	}

	matrix := make([][]Float, len(data))
	for i := range data {
		matrix[i] = make([]Float, len(data))
		for j := range data {
			matrix[i][j] = Float(pairwiseCorrelation(data[i], data[j]))
		}
	}

	title := "Correlation Analysis Across All Providers"
	if !isAll(selector) {
		title = "Correlation Analysis for " + selector
	}

	return Artifact{Kind: KindChart, Chart: &Chart{
		Type:  ChartHeatmap,
		Title: title,
		Heatmap: &Heatmap{
			Labels:     append([]string(nil), correlationColumns...),
			Matrix:     matrix,
			TextFormat: ".2f",
			ColorScale: "Blues",
		},
	}}
}
