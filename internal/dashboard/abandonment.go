package dashboard

import (
	"math"
	"sort"

	"nhsdash/internal/dataset"
)

const (
	topAbandonmentLimit = 10
	highlightPull       = 0.1
)

// buildAbandonment ranks providers by abandonment rate, or splits one
// provider's calls into abandoned and answered.
func buildAbandonment(full, subset *dataset.Table, selector string) Artifact {
	if !isAll(selector) {
		var abandoned, answered []float64
		for _, r := range subset.Rows() {
			abandoned = append(abandoned, r.CallsAbandoned)
			answered = append(answered, r.CallsAnswered)
		}

		return Artifact{Kind: KindChart, Chart: &Chart{
			Type:   ChartPie,
			Title:  "Call Outcomes for " + selector,
			Legend: Legend{Show: true},
			Slices: []Slice{
				{Name: "Abandoned Calls", Value: Float(nanSum(abandoned))},
				{Name: "Answered Calls", Value: Float(nanSum(answered))},
			},
		}}
	}

	top := TopAbandonment(full, topAbandonmentLimit)
	slices := make([]Slice, len(top))
	for i, r := range top {
		slices[i] = Slice{Name: r.Provider, Value: Float(r.AbandonmentRate)}
	}
	if len(slices) > 0 {
		slices[0].Pull = highlightPull
	}

	return Artifact{Kind: KindChart, Chart: &Chart{
		Type:   ChartPie,
		Title:  "Top 10 Providers with Highest Abandonment Rate",
		Legend: Legend{Show: true},
		Slices: slices,
	}}
}

// TopAbandonment returns at most limit rows with a positive abandonment
// rate, highest first, keeping only the first row seen for each provider.
func TopAbandonment(full *dataset.Table, limit int) []dataset.Row {
	var candidates []dataset.Row
	for _, r := range full.Rows() {
		if math.IsNaN(r.AbandonmentRate) || r.AbandonmentRate <= 0 {
			continue
		}
		candidates = append(candidates, r)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AbandonmentRate > candidates[j].AbandonmentRate
	})

	seen := make(map[string]struct{}, len(candidates))
	top := make([]dataset.Row, 0, limit)
	for _, r := range candidates {
		if len(top) == limit {
			break
		}
		if _, dup := seen[r.Provider]; dup {
			continue
		}
		seen[r.Provider] = struct{}{}
		top = append(top, r)
	}
	return top
}
