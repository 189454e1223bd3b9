// Package dashboard turns a (view, provider) selection into a renderable
// Artifact.
//
// Each of the eight tabs has a pure builder over the immutable dataset:
//
//	tab-summary   six headline cards
//	tab-table     the selected rows with derived columns
//	tab-graph     A&E vs primary-care referral rates
//	tab-heatmap   transfer time / ambulance dispatch correlation
//	tab-pie       top abandonment rates, or one provider's call outcomes
//	tab-bar       same chart as tab-graph
//	tab-scatter   calls offered vs dispatches per 1,000 residents
//	tab-bar1      top ten providers by Combined_Rank
//
// Build is the dispatcher. Renderer wraps it with a bounded memo cache and
// collapses concurrent identical requests.
package dashboard
