package dashboard

import (
	"errors"
	"fmt"

	"nhsdash/internal/dataset"
)

// View identifiers, as used by the tab strip.
const (
	ViewSummary     = "tab-summary"
	ViewTable       = "tab-table"
	ViewReferral    = "tab-graph"
	ViewCorrelation = "tab-heatmap"
	ViewAbandonment = "tab-pie"
	ViewAnswered    = "tab-bar"
	ViewScatter     = "tab-scatter"
	ViewTopTen      = "tab-bar1"
)

// DefaultView is selected when the page first loads.
const DefaultView = ViewSummary

// ErrUnknownView is returned for a view identifier with no builder.
var ErrUnknownView = errors.New("unknown view")

// View is one selectable tab.
type View struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var views = []View{
	{ID: ViewSummary, Label: "Summary Metrics"},
	{ID: ViewTable, Label: "Data Table"},
	{ID: ViewReferral, Label: "Referral Analysis"},
	{ID: ViewCorrelation, Label: "Correlation Analysis"},
	{ID: ViewAbandonment, Label: "Top 10 Abandonment Rates"},
	{ID: ViewAnswered, Label: "Answered Calls Bar Chart"},
	{ID: ViewScatter, Label: "Calls Offered vs. Ambulance Dispatches"},
	{ID: ViewTopTen, Label: "Top 10 Providers"},
}

// builder produces the artifact body for one view. full is the whole
// table; subset is full filtered by selector.
type builder func(full, subset *dataset.Table, selector string) Artifact

// The "Answered Calls Bar Chart" tab shows the referral chart. "Referral
// Analysis" is an alias for it rather than an empty panel.
var builders = map[string]builder{
	ViewSummary:     buildSummary,
	ViewTable:       buildTable,
	ViewReferral:    buildReferral,
	ViewCorrelation: buildCorrelation,
	ViewAbandonment: buildAbandonment,
	ViewAnswered:    buildReferral,
	ViewScatter:     buildScatter,
	ViewTopTen:      buildTopTen,
}

// Views returns the tabs in display order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// IsView reports whether id names a known view.
func IsView(id string) bool {
	_, ok := builders[id]
	return ok
}

// Build dispatches to the builder for view. It is a pure function of its
// arguments.
func Build(view string, full, subset *dataset.Table, selector string) (Artifact, error) {
	b, ok := builders[view]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	a := b(full, subset, selector)
	a.View = view
	a.Provider = selector
	return a, nil
}

// Render filters full by selector and builds view.
func Render(full *dataset.Table, view, selector string) (Artifact, error) {
	return Build(view, full, full.Filter(selector), selector)
}

func isAll(selector string) bool {
	return selector == dataset.AllProviders
}

func messageArtifact(text string) Artifact {
	return Artifact{Kind: KindMessage, Message: text}
}
