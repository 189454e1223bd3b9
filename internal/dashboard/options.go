package dashboard

import "nhsdash/internal/dataset"

// AllProvidersLabel is the dropdown label of the unfiltered selection.
const AllProvidersLabel = "All Providers"

// ProviderOption is one entry of the provider dropdown.
type ProviderOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ProviderOptions lists the dropdown entries for t: the unfiltered option
// first, then each provider in order of first appearance.
func ProviderOptions(t *dataset.Table) []ProviderOption {
	providers := t.Providers()
	out := make([]ProviderOption, 0, len(providers)+1)
	out = append(out, ProviderOption{Label: AllProvidersLabel, Value: dataset.AllProviders})
	for _, p := range providers {
		out = append(out, ProviderOption{Label: p, Value: p})
	}
	return out
}
