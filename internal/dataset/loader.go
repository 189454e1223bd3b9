package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "nhsdash/internal/errors"
)

// Loader reads the dashboard dataset from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader that reports progress to logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// Load reads path and returns the derived table. Files ending in .xlsx are
// read as workbooks (first sheet); anything else is parsed as CSV.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	l.logger.InfoContext(ctx, "loading dataset", slog.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to open dataset", err).InFile(path)
	}
	defer file.Close()

	var table *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = ReadXLSX(file)
	default:
		table, err = ReadCSV(file)
	}
	if err != nil {
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			appErr.InFile(path)
		}
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("providers", len(table.Providers())),
		slog.Bool("has_transfer_time", table.HasColumn(ColTransferTime)),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

// ReadCSV parses a CSV stream. A leading UTF-8 BOM is skipped.
func ReadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apierrors.NewParsingError("dataset is empty", nil)
	}
	if err != nil {
		return nil, apierrors.NewParsingError("failed to read CSV", err)
	}

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apierrors.NewParsingError("failed to read CSV", err)
		}
		// Quoted fields may span lines, so the record's line comes from
		// the reader rather than its index.
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	return buildTable(header, records, lines)
}

// ReadXLSX parses the first worksheet of an Excel workbook. Cells are read
// raw so number formats such as "#,##0" or percentages do not leak into
// the parsed values.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apierrors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierrors.NewParsingError("failed to read worksheet", err).InSheet(sheets[0])
	}
	if len(rows) == 0 {
		return nil, apierrors.NewParsingError("dataset is empty", nil).InSheet(sheets[0])
	}

	table, err := FromRecords(rows[0], rows[1:])
	if err != nil {
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			appErr.InSheet(sheets[0])
		}
		return nil, err
	}
	return table, nil
}

// FromRecords builds a table from a header and its data records, the
// header being line 1. Every required column must be present. Empty
// numeric cells become NaN; any other unparseable numeric cell, or a
// record with values beyond the header, fails the load.
func FromRecords(header []string, records [][]string) (*Table, error) {
	return buildTable(header, records, nil)
}

// buildTable is FromRecords with explicit source lines for each record.
// A nil lines slice numbers records consecutively from line 2.
func buildTable(header []string, records [][]string, lines []int) (*Table, error) {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apierrors.NewSchemaError(missing)
	}

	numeric := append(append([]string{}, RequiredColumns[1:]...), OptionalColumns...)

	rows := make([]Row, 0, len(records))
	for n, rec := range records {
		if isBlank(rec) {
			continue
		}

		line := n + 2
		if lines != nil {
			line = lines[n]
		}

		// Trailing empty fields are tolerated; values past the header are not.
		if len(rec) > len(columns) && !isBlank(rec[len(columns):]) {
			return nil, apierrors.NewParsingError(
				fmt.Sprintf("record has %d fields, header has %d", len(rec), len(columns)), nil).
				AtCell(line, "", "")
		}

		cells := make([]string, len(columns))
		copy(cells, rec)

		row := Row{
			Provider:            cells[idx[ColProvider]],
			TransferTimeMinutes: math.NaN(),
			Cells:               cells,
		}
		for _, col := range numeric {
			i, ok := idx[col]
			if !ok {
				continue
			}
			v, err := parseNumber(cells[i])
			if err != nil {
				return nil, apierrors.NewParsingError("invalid numeric cell", err).
					AtCell(line, col, cells[i])
			}
			*row.numericField(col) = v
		}

		Derive(&row)
		rows = append(rows, row)
	}

	return newTable(columns, rows), nil
}

// parseNumber reads a numeric cell. Blank and NaN-like cells yield NaN.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
