package exporter

import (
	"regexp"
	"strings"

	"nhsdash/internal/dataset"
)

// Headers returns the export header: the source columns in file order
// followed by the derived columns.
func Headers(t *dataset.Table) []string {
	return append(t.Columns(), dataset.DerivedColumns...)
}

// Records flattens t into CSV records aligned with Headers. Source cells
// are copied verbatim.
func Records(t *dataset.Table) [][]string {
	records := make([][]string, 0, t.Len())
	for _, row := range t.Rows() {
		rec := make([]string, 0, len(row.Cells)+len(dataset.DerivedColumns))
		rec = append(rec, row.Cells...)
		for _, col := range dataset.DerivedColumns {
			v, _ := row.Float(col)
			rec = append(rec, formatFloat(v))
		}
		records = append(records, rec)
	}
	return records
}

// Values flattens t into typed workbook rows aligned with Headers. Known
// numeric columns carry float64 values; everything else stays text.
func Values(t *dataset.Table) [][]interface{} {
	columns := t.Columns()
	out := make([][]interface{}, 0, t.Len())
	for _, row := range t.Rows() {
		vals := make([]interface{}, 0, len(columns)+len(dataset.DerivedColumns))
		for i, col := range columns {
			if v, ok := row.Float(col); ok {
				vals = append(vals, cellValue(v))
				continue
			}
			vals = append(vals, row.Cells[i])
		}
		for _, col := range dataset.DerivedColumns {
			v, _ := row.Float(col)
			vals = append(vals, cellValue(v))
		}
		out = append(out, vals)
	}
	return out
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds the download name for a provider selection, for example
// "nhs-calls-north-west.csv".
func Filename(provider, ext string) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(provider), "-"), "-")
	if slug == "" {
		slug = "all"
	}
	return "nhs-calls-" + slug + "." + strings.TrimPrefix(ext, ".")
}
