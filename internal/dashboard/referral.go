package dashboard

import (
	"sort"

	"nhsdash/internal/dataset"
)

const (
	colorAERate          = "#ff6961"
	colorPrimaryCareRate = "#77dd77"

	seriesAERate          = "A&E Referral Rate"
	seriesPrimaryCareRate = "Primary Care Referral Rate"
)

type referralTotals struct {
	ae, primaryCare, answered []float64
}

func (t *referralTotals) add(r dataset.Row) {
	t.ae = append(t.ae, r.ReferralsAE)
	t.primaryCare = append(t.primaryCare, r.ReferralsPrimaryCare)
	t.answered = append(t.answered, r.CallsAnswered)
}

// rates recomputes both referral rates from the summed counts.
func (t *referralTotals) rates() (ae, primaryCare float64) {
	answered := nanSum(t.answered)
	return nanSum(t.ae) / answered, nanSum(t.primaryCare) / answered
}

// buildReferral compares A&E and primary-care referral rates. Across all
// providers it plots one pair of bars per provider, alphabetically;
// for a single provider it plots the pair for that provider's rows.
func buildReferral(full, subset *dataset.Table, selector string) Artifact {
	if isAll(selector) {
		return Artifact{Kind: KindChart, Chart: referralByProvider(full)}
	}

	var totals referralTotals
	for _, r := range subset.Rows() {
		totals.add(r)
	}
	ae, pc := totals.rates()

	return Artifact{Kind: KindChart, Chart: &Chart{
		Type:       ChartBar,
		Title:      "Referral Analysis for " + selector,
		XAxis:      Axis{Title: "Referral Type"},
		YAxis:      Axis{Title: "Referral Rate"},
		BarMode:    "group",
		Categories: []string{seriesAERate, seriesPrimaryCareRate},
		Series: []Series{{
			Name:       "Referral Rate",
			Values:     floatValues(ae, pc),
			ItemColors: []string{colorAERate, colorPrimaryCareRate},
		}},
	}}
}

func referralByProvider(full *dataset.Table) *Chart {
	groups := make(map[string]*referralTotals)
	for _, r := range full.Rows() {
		if r.Provider == "" {
			continue
		}
		g, ok := groups[r.Provider]
		if !ok {
			g = &referralTotals{}
			groups[r.Provider] = g
		}
		g.add(r)
	}

	providers := make([]string, 0, len(groups))
	for name := range groups {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	aeRates := make([]Float, len(providers))
	pcRates := make([]Float, len(providers))
	for i, name := range providers {
		ae, pc := groups[name].rates()
		aeRates[i], pcRates[i] = Float(ae), Float(pc)
	}

	return &Chart{
		Type:       ChartBar,
		Title:      "Referral Analysis Across All Providers",
		XAxis:      Axis{Title: "Provider Name", TickAngle: 45},
		YAxis:      Axis{Title: "Referral Rate"},
		Legend:     Legend{Show: true, Title: "Referral Type"},
		BarMode:    "group",
		Categories: providers,
		Series: []Series{
			{Name: seriesAERate, Color: colorAERate, Values: aeRates},
			{Name: seriesPrimaryCareRate, Color: colorPrimaryCareRate, Values: pcRates},
		},
	}
}
