package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhsdash/internal/shared/testutil"
)

func loadFixture(t *testing.T) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(testutil.NHSCallsCSV))
	require.NoError(t, err)
	return table
}

func TestTable_Filter(t *testing.T) {
	table := loadFixture(t)

	tests := []struct {
		name     string
		selector string
		wantLen  int
	}{
		{"all providers", AllProviders, 4},
		{"provider with two rows", "North West", 2},
		{"single row provider", "London", 1},
		{"unknown provider", "Atlantis", 0},
		{"match is exact", "north west", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subset := table.Filter(tt.selector)
			assert.Equal(t, tt.wantLen, subset.Len())

			if tt.selector != AllProviders {
				for _, r := range subset.Rows() {
					assert.Equal(t, tt.selector, r.Provider)
				}
			}
			assert.Equal(t, table.Columns(), subset.Columns())
		})
	}
}

func TestTable_Providers(t *testing.T) {
	table := loadFixture(t)

	assert.Equal(t, testutil.FixtureProviders, table.Providers())
	assert.True(t, table.HasProvider("Yorkshire"))
	assert.False(t, table.HasProvider(AllProviders))
}

func TestTable_RowsIsACopy(t *testing.T) {
	table := loadFixture(t)

	rows := table.Rows()
	rows[0].Provider = "changed"

	assert.Equal(t, "North West", table.Row(0).Provider)
}

func TestTable_Floats(t *testing.T) {
	table := loadFixture(t)

	assert.Equal(t, []float64{1000, 2000, 500, 0}, table.Floats(ColCallsOffered))
	assert.Nil(t, table.Floats("Not A Column"))
}
