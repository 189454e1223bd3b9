package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"nhsdash/internal/dataset"
)

// DefaultSheetName names the single worksheet of an export.
const DefaultSheetName = "NHS Calls"

// XLSXWriter writes tables as Excel workbooks.
type XLSXWriter struct {
	logger *slog.Logger
	sheet  string
}

// NewXLSXWriter creates a workbook writer using DefaultSheetName.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{
		logger: logger.With(slog.String("component", "xlsx_exporter")),
		sheet:  DefaultSheetName,
	}
}

// WriteTable streams t into a one-sheet workbook and writes it to dst.
// The header row is bold and frozen.
func (w *XLSXWriter) WriteTable(dst io.Writer, t *dataset.Table) error {
	headers := Headers(t)
	rows := Values(t)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", w.sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if err := sw.SetColWidth(1, len(headers), 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}

	w.logger.Debug("writing XLSX export",
		slog.Int("record_count", len(rows)),
		slog.Int("column_count", len(headers)))

	if _, err := f.WriteTo(dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
