package dataset

import (
	"slices"
)

// Row is one provider-period record with its derived metrics.
// Missing numeric cells hold NaN.
type Row struct {
	Provider string

	CallsOffered         float64
	CallsAnswered        float64
	CallsAbandoned       float64
	CostCallHandlers     float64
	CostClinicalStaff    float64
	ReferralsAE          float64
	ReferralsPrimaryCare float64
	Population           float64
	AmbulanceDispatches  float64
	CallsThrough111      float64
	CombinedRank         float64
	Answered60sRate      float64
	Callback10mRate      float64
	TransferTimeMinutes  float64

	AbandonmentRate     float64
	TotalCost           float64
	CostPerAnsweredCall float64
	AERate              float64
	PrimaryCareRate     float64
	CallsOfferedPer1k   float64
	DispatchesPer1k     float64

	// Cells holds the source text of every file column, in header order.
	Cells []string
}

// Table is the loaded dataset. It is never modified after construction,
// so it can be shared between goroutines without locking.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

func newTable(columns []string, rows []Row) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// Columns returns the source column names in file order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether the source file carried the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns a copy of the rows, safe for the caller to reorder.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Floats collects one numeric column across all rows.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		v, ok := r.Float(col)
		if !ok {
			return nil
		}
		out = append(out, v)
	}
	return out
}
