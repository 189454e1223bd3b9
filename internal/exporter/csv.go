package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"nhsdash/internal/dataset"
)

// utf8BOM helps Excel recognise UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to dst.
func (w *CSVWriter) WriteCSV(dst io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := dst.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(dst)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTable writes t with its derived columns, prefixed with a BOM.
func (w *CSVWriter) WriteTable(dst io.Writer, t *dataset.Table) error {
	records := Records(t)

	w.logger.Debug("writing CSV export",
		slog.Int("record_count", len(records)),
		slog.Int("column_count", len(t.Columns())+len(dataset.DerivedColumns)))

	return w.WriteCSV(dst, WriteOptions{
		Headers:   Headers(t),
		Records:   records,
		BOMPrefix: true,
	})
}
