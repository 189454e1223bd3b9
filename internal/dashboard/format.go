package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// nonFinite spells NaN and infinities the way the summary cards always have.
func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "nan", true
	case math.IsInf(v, 1):
		return "inf", true
	case math.IsInf(v, -1):
		return "-inf", true
	}
	return "", false
}

// formatCount groups thousands. Whole numbers print without a fraction;
// anything else keeps its shortest exact decimal form.
func formatCount(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}

	decimals := 0
	if s := strconv.FormatFloat(v, 'f', -1, 64); strings.Contains(s, ".") {
		decimals = len(s) - strings.Index(s, ".") - 1
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

func formatPercent(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s + "%"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func formatPounds(v float64) string {
	if s, ok := nonFinite(v); ok {
		return "£" + s
	}
	return "£" + printer.Sprintf("%.2f", v)
}

func formatPoundsPlain(v float64) string {
	if s, ok := nonFinite(v); ok {
		return "£" + s
	}
	return "£" + strconv.FormatFloat(v, 'f', 2, 64)
}

// formatCell renders a table value. Non-finite values render empty.
func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
