package dashboard

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhsdash/internal/dataset"
	"nhsdash/internal/shared/testutil"
)

func fixtureTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.ReadCSV(strings.NewReader(testutil.NHSCallsCSV))
	require.NoError(t, err)
	return table
}

func render(t *testing.T, table *dataset.Table, view, provider string) Artifact {
	t.Helper()
	a, err := Render(table, view, provider)
	require.NoError(t, err)
	assert.Equal(t, view, a.View)
	assert.Equal(t, provider, a.Provider)
	return a
}

func cardValues(a Artifact) map[string]string {
	out := make(map[string]string, len(a.Cards))
	for _, c := range a.Cards {
		out[c.Label] = c.Value
	}
	return out
}

func TestViews(t *testing.T) {
	vs := Views()
	require.Len(t, vs, 8)
	assert.Equal(t, View{ID: "tab-summary", Label: "Summary Metrics"}, vs[0])
	assert.Equal(t, View{ID: "tab-bar1", Label: "Top 10 Providers"}, vs[7])

	for _, v := range vs {
		assert.True(t, IsView(v.ID), v.ID)
	}
	assert.False(t, IsView("tab-unknown"))

	vs[0].Label = "changed"
	assert.Equal(t, "Summary Metrics", Views()[0].Label)
}

func TestBuild_UnknownView(t *testing.T) {
	table := fixtureTable(t)

	_, err := Render(table, "tab-nope", dataset.AllProviders)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.Contains(t, err.Error(), "tab-nope")
}

func TestSummary(t *testing.T) {
	table := fixtureTable(t)

	tests := []struct {
		name     string
		provider string
		want     map[string]string
	}{
		{
			name:     "all providers",
			provider: dataset.AllProviders,
			want: map[string]string{
				"Total Calls Offered":            "3,500",
				"Average Abandonment Rate":       "13.3%",
				"Total Cost (£)":                 "£32,500.00",
				"Avg Cost per Answered Call (£)": "£7.50",
				"Total Calls Through NHS 111":    "2,700",
				"Total Caller Population":        "900,000",
			},
		},
		{
			name:     "single provider uses only its rows",
			provider: "North West",
			want: map[string]string{
				"Total Calls Offered":            "1,500",
				"Average Abandonment Rate":       "15.0%",
				"Total Cost (£)":                 "£13,000.00",
				"Avg Cost per Answered Call (£)": "£10.00",
				"Total Calls Through NHS 111":    "1,200",
				"Total Caller Population":        "400,000",
			},
		},
		{
			name:     "provider with no calls",
			provider: "Yorkshire",
			want: map[string]string{
				"Total Calls Offered":            "0",
				"Average Abandonment Rate":       "nan%",
				"Total Cost (£)":                 "£1,500.00",
				"Avg Cost per Answered Call (£)": "£0.00",
			},
		},
		{
			name:     "unknown provider aggregates an empty selection",
			provider: "Atlantis",
			want: map[string]string{
				"Total Calls Offered":            "0",
				"Average Abandonment Rate":       "nan%",
				"Total Cost (£)":                 "£0.00",
				"Avg Cost per Answered Call (£)": "£nan",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := render(t, table, ViewSummary, tt.provider)
			assert.Equal(t, KindCards, a.Kind)
			require.Len(t, a.Cards, 6)

			got := cardValues(a)
			for label, value := range tt.want {
				assert.Equal(t, value, got[label], label)
			}
		})
	}
}

func TestSummary_ReferenceScenario(t *testing.T) {
	csv := strings.Join(dataset.RequiredColumns, ",") + "\n" +
		"A,100,80,20,500,300,0,0,10000,0,0,1,0,0\n" +
		"B,50,0,50,250,250,0,0,10000,0,0,2,0,0\n"
	table, err := dataset.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	a := table.Row(0)
	b := table.Row(1)
	assert.Equal(t, 0.2, a.AbandonmentRate)
	assert.Equal(t, 1.0, b.AbandonmentRate)
	assert.Equal(t, 10.0, a.CostPerAnsweredCall)
	assert.Equal(t, 0.0, b.CostPerAnsweredCall)

	summary := render(t, table, ViewSummary, "A")
	assert.Equal(t, "100", cardValues(summary)["Total Calls Offered"])
}

func TestTableView(t *testing.T) {
	table := fixtureTable(t)

	a := render(t, table, ViewTable, "Yorkshire")
	require.Equal(t, KindTable, a.Kind)
	require.NotNil(t, a.Table)

	assert.Equal(t, append(table.Columns(), dataset.DerivedColumns...), a.Table.Columns)
	require.Len(t, a.Table.Rows, 1)

	row := a.Table.Rows[0]
	assert.Equal(t, "Yorkshire", row[0])
	derived := row[len(table.Columns()):]
	assert.Equal(t, []string{"", "1500", "0", "", "", "", ""}, derived)

	all := render(t, table, ViewTable, dataset.AllProviders)
	assert.Len(t, all.Table.Rows, table.Len())
}

func TestReferral(t *testing.T) {
	table := fixtureTable(t)

	t.Run("all providers grouped alphabetically", func(t *testing.T) {
		for _, view := range []string{ViewReferral, ViewAnswered} {
			a := render(t, table, view, dataset.AllProviders)
			c := a.Chart
			require.NotNil(t, c)

			assert.Equal(t, ChartBar, c.Type)
			assert.Equal(t, "Referral Analysis Across All Providers", c.Title)
			assert.Equal(t, Axis{Title: "Provider Name", TickAngle: 45}, c.XAxis)
			assert.Equal(t, "Referral Rate", c.YAxis.Title)
			assert.Equal(t, "group", c.BarMode)
			assert.Equal(t, []string{"London", "North West", "Yorkshire"}, c.Categories)

			require.Len(t, c.Series, 2)
			assert.Equal(t, "#ff6961", c.Series[0].Color)
			assert.Equal(t, "#77dd77", c.Series[1].Color)
			assert.InDelta(t, 0.2, float64(c.Series[0].Values[0]), 1e-12)
			assert.InDelta(t, 0.1, float64(c.Series[0].Values[1]), 1e-12)
			assert.InDelta(t, 0.5, float64(c.Series[1].Values[1]), 1e-12)
			assert.True(t, math.IsNaN(float64(c.Series[0].Values[2])))
		}
	})

	t.Run("single provider sums its rows", func(t *testing.T) {
		a := render(t, table, ViewReferral, "North West")
		c := a.Chart

		assert.Equal(t, "Referral Analysis for North West", c.Title)
		assert.Equal(t, "Referral Type", c.XAxis.Title)
		assert.Zero(t, c.XAxis.TickAngle)
		assert.Equal(t, []string{"A&E Referral Rate", "Primary Care Referral Rate"}, c.Categories)
		require.Len(t, c.Series, 1)
		assert.Equal(t, []string{"#ff6961", "#77dd77"}, c.Series[0].ItemColors)
		assert.InDelta(t, 0.1, float64(c.Series[0].Values[0]), 1e-12)
		assert.InDelta(t, 0.5, float64(c.Series[0].Values[1]), 1e-12)
	})
}

func TestCorrelation(t *testing.T) {
	table := fixtureTable(t)

	t.Run("all providers", func(t *testing.T) {
		a := render(t, table, ViewCorrelation, dataset.AllProviders)
		require.Equal(t, KindChart, a.Kind)

		c := a.Chart
		assert.Equal(t, ChartHeatmap, c.Type)
		assert.Equal(t, "Correlation Analysis Across All Providers", c.Title)
		require.NotNil(t, c.Heatmap)
		assert.Equal(t, []string{dataset.ColTransferTime, dataset.ColAmbulanceDispatches}, c.Heatmap.Labels)
		assert.Equal(t, ".2f", c.Heatmap.TextFormat)
		assert.Equal(t, "Blues", c.Heatmap.ColorScale)

		m := c.Heatmap.Matrix
		assert.InDelta(t, 1.0, float64(m[0][0]), 1e-9)
		assert.InDelta(t, 1.0, float64(m[1][1]), 1e-9)
		assert.InDelta(t, 0.9522, float64(m[0][1]), 1e-3)
		assert.InDelta(t, float64(m[0][1]), float64(m[1][0]), 1e-12)
	})

	t.Run("provider without transfer times", func(t *testing.T) {
		a := render(t, table, ViewCorrelation, "Yorkshire")
		assert.Equal(t, "Correlation Analysis for Yorkshire", a.Chart.Title)
		assert.False(t, a.Chart.Heatmap.Matrix[0][1].IsFinite())
	})

	t.Run("missing column gives message", func(t *testing.T) {
		csv := strings.Join(dataset.RequiredColumns, ",") + "\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80\n"
		noTransfer, err := dataset.ReadCSV(strings.NewReader(csv))
		require.NoError(t, err)

		a := render(t, noTransfer, ViewCorrelation, "A")
		assert.Equal(t, KindMessage, a.Kind)
		assert.Equal(t, MissingColumnsMessage, a.Message)
		assert.Nil(t, a.Chart)
	})
}

func TestAbandonment(t *testing.T) {
	table := fixtureTable(t)

	t.Run("top providers deduplicated", func(t *testing.T) {
		a := render(t, table, ViewAbandonment, dataset.AllProviders)
		c := a.Chart

		assert.Equal(t, ChartPie, c.Type)
		assert.Equal(t, "Top 10 Providers with Highest Abandonment Rate", c.Title)
		require.Len(t, c.Slices, 2)
		assert.Equal(t, Slice{Name: "North West", Value: 0.2, Pull: 0.1}, c.Slices[0])
		assert.Equal(t, "London", c.Slices[1].Name)
		assert.Zero(t, c.Slices[1].Pull)
	})

	t.Run("single provider outcomes", func(t *testing.T) {
		a := render(t, table, ViewAbandonment, "London")
		c := a.Chart

		assert.Equal(t, "Call Outcomes for London", c.Title)
		assert.Equal(t, []Slice{
			{Name: "Abandoned Calls", Value: 200},
			{Name: "Answered Calls", Value: 1800},
		}, c.Slices)
	})
}

func TestTopAbandonment_Properties(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.Join(dataset.RequiredColumns, ",") + "\n")
	for i := 0; i < 30; i++ {
		name := string(rune('A' + i%15))
		abandoned := (i * 7) % 40
		b.WriteString(name + ",100,80," + strconv.Itoa(abandoned) + ",1,1,1,1,1000,1,1,1,1,1\n")
	}
	table, err := dataset.ReadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	top := TopAbandonment(table, 10)
	assert.LessOrEqual(t, len(top), 10)

	seen := map[string]bool{}
	for i, r := range top {
		assert.Greater(t, r.AbandonmentRate, 0.0)
		assert.False(t, seen[r.Provider], "duplicate provider %s", r.Provider)
		seen[r.Provider] = true
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].AbandonmentRate, r.AbandonmentRate)
		}
	}
}

func TestScatter(t *testing.T) {
	table := fixtureTable(t)

	t.Run("all providers coloured by provider", func(t *testing.T) {
		a := render(t, table, ViewScatter, dataset.AllProviders)
		c := a.Chart

		assert.Equal(t, ChartScatter, c.Type)
		assert.Equal(t, "Calls Offered vs. Ambulance Dispatches (Per 1,000 Residents)", c.Title)
		assert.Equal(t, "Calls Offered per 1k", c.XAxis.Title)
		assert.Equal(t, "Ambulance Dispatches per 1k", c.YAxis.Title)
		assert.True(t, c.Legend.Show)

		require.Len(t, c.Series, 3)
		assert.Equal(t, "North West", c.Series[0].Name)
		assert.Equal(t, "London", c.Series[1].Name)
		assert.NotEqual(t, c.Series[0].Color, c.Series[1].Color)
		require.Len(t, c.Series[0].Points, 2)
		assert.Empty(t, c.Series[2].Points, "non-finite rows are not plotted")

		london := c.Series[1].Points[0]
		assert.Equal(t, Float(4), london.X)
		assert.InDelta(t, 0.24, float64(london.Y), 1e-12)
		assert.InDelta(t, 10.0, london.Size, 1e-12)
		assert.InDelta(t, 10*math.Sqrt(0.4), c.Series[0].Points[0].Size, 1e-9)
	})

	t.Run("single provider hides legend", func(t *testing.T) {
		a := render(t, table, ViewScatter, "North West")
		c := a.Chart

		assert.Equal(t, "Call Analysis for North West", c.Title)
		assert.False(t, c.Legend.Show)
		require.Len(t, c.Series, 1)
		assert.Empty(t, c.Series[0].Color)
		assert.Len(t, c.Series[0].Points, 2)
		for _, p := range c.Series[0].Points {
			assert.LessOrEqual(t, p.Size, 10.0)
		}
	})
}

func TestTopTen(t *testing.T) {
	table := fixtureTable(t)

	t.Run("ranked across all providers", func(t *testing.T) {
		a := render(t, table, ViewTopTen, dataset.AllProviders)
		c := a.Chart

		assert.Equal(t, "Top 10 Providers by Performance (Combined KPIs)", c.Title)
		assert.Equal(t, Axis{Title: "Provider Name", TickAngle: 45}, c.XAxis)
		assert.Equal(t, "Rate (%)", c.YAxis.Title)
		assert.Equal(t, Legend{Show: true, Title: "Metrics"}, c.Legend)
		assert.Equal(t, []string{"London", "Yorkshire", "North West", "North West"}, c.Categories)

		require.Len(t, c.Series, 2)
		assert.Equal(t, Series{Name: "Answered in 60s", Color: "#4CAF50", Values: floatValues(90.1, 0, 85.5, 75)}, c.Series[0])
		assert.Equal(t, "Callback in 10min", c.Series[1].Name)
		assert.Equal(t, "#2196F3", c.Series[1].Color)
	})

	t.Run("single provider keeps all its rows", func(t *testing.T) {
		a := render(t, table, ViewTopTen, "North West")
		c := a.Chart

		assert.Equal(t, "Performance KPIs for North West", c.Title)
		assert.Zero(t, c.XAxis.TickAngle)
		assert.Equal(t, []string{"North West", "North West"}, c.Categories)
	})
}

func TestTopProviders_Properties(t *testing.T) {
	var b strings.Builder
	b.WriteString(strings.Join(dataset.RequiredColumns, ",") + "\n")
	ranks := []string{"7", "", "3", "12", "1", "3", "9", "2", "15", "4", "8", "6", "11", ""}
	for i, rank := range ranks {
		b.WriteString("P" + strconv.Itoa(i) + ",1,1,0,1,1,1,1,1000,1,1," + rank + ",1,1\n")
	}
	table, err := dataset.ReadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	top := TopProviders(table, 10)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.LessOrEqual(t, top[i-1].CombinedRank, top[i].CombinedRank)
	}
	assert.Equal(t, "P2", top[2].Provider, "ties keep file order")
	assert.Equal(t, "P5", top[3].Provider)

	short := TopProviders(table.Filter("P1"), 10)
	require.Len(t, short, 1)
	assert.True(t, math.IsNaN(short[0].CombinedRank))
}

func TestProviderOptions(t *testing.T) {
	options := ProviderOptions(fixtureTable(t))

	require.Len(t, options, len(testutil.FixtureProviders)+1)
	assert.Equal(t, ProviderOption{Label: AllProvidersLabel, Value: dataset.AllProviders}, options[0])
	for i, p := range testutil.FixtureProviders {
		assert.Equal(t, p, options[i+1].Label)
		assert.Equal(t, p, options[i+1].Value)
	}
}
