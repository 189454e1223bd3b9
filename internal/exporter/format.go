package exporter

import (
	"math"
	"strconv"
)

// formatFloat renders a derived value for CSV output. NaN is written as an
// empty cell and infinities as inf/-inf, which spreadsheet tools and
// pandas both read back.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellValue converts a numeric value for a workbook cell. Non-finite
// values become empty cells.
func cellValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
