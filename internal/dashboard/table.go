package dashboard

import (
	"nhsdash/internal/dataset"
)

// buildTable shows the selected rows as loaded, followed by the derived
// columns.
func buildTable(_, subset *dataset.Table, _ string) Artifact {
	columns := append(subset.Columns(), dataset.DerivedColumns...)

	rows := make([][]string, 0, subset.Len())
	for _, r := range subset.Rows() {
		cells := make([]string, 0, len(columns))
		cells = append(cells, r.Cells...)
		for _, col := range dataset.DerivedColumns {
			v, _ := r.Float(col)
			cells = append(cells, formatCell(v))
		}
		rows = append(rows, cells)
	}

	return Artifact{
		Kind:  KindTable,
		Table: &TableData{Columns: columns, Rows: rows},
	}
}
