package dataset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "nhsdash/internal/errors"
	"nhsdash/internal/shared/testutil"
)

func TestLoader_LoadCSV(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	path := testutil.WriteNHSCallsCSV(t)

	table, err := NewLoader(logger).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 4, table.Len())
	assert.True(t, table.HasColumn(ColTransferTime))
	assert.Equal(t, ColProvider, table.Columns()[0])

	nw := table.Row(0)
	assert.Equal(t, "North West", nw.Provider)
	assert.Equal(t, 1000.0, nw.CallsOffered)
	assert.Equal(t, 0.1, nw.AbandonmentRate)
	assert.Equal(t, 9000.0, nw.TotalCost)
	assert.Equal(t, 10.0, nw.CostPerAnsweredCall)
	assert.Equal(t, 5.0, nw.CallsOfferedPer1k)
	assert.Equal(t, 12.5, nw.TransferTimeMinutes)
	assert.Equal(t, "85.5", nw.Cells[12])

	yorkshire := table.Row(3)
	assert.True(t, math.IsNaN(yorkshire.TransferTimeMinutes), "blank cell loads as NaN")
	assert.True(t, math.IsNaN(yorkshire.AbandonmentRate))
	assert.Equal(t, 0.0, yorkshire.CostPerAnsweredCall)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
	testutil.AssertLogAttr(t, logs, "rows", int64(4))
}

func TestReadCSV(t *testing.T) {
	header := strings.Join(RequiredColumns, ",")

	tests := []struct {
		name     string
		input    string
		wantErr  string
		wantType apierrors.ErrorType
		check    func(t *testing.T, table *Table)
	}{
		{
			name:  "utf-8 BOM is skipped",
			input: "\xEF\xBB\xBF" + testutil.NHSCallsCSV,
			check: func(t *testing.T, table *Table) {
				assert.True(t, table.HasColumn(ColProvider))
				assert.Equal(t, "North West", table.Row(0).Provider)
			},
		},
		{
			name:  "optional transfer time column may be absent",
			input: header + "\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80\n",
			check: func(t *testing.T, table *Table) {
				assert.False(t, table.HasColumn(ColTransferTime))
				assert.True(t, math.IsNaN(table.Row(0).TransferTimeMinutes))
				assert.Equal(t, 0.2, table.Row(0).AbandonmentRate)
			},
		},
		{
			name:  "blank lines and extra columns",
			input: header + ",Region\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80,North\n,,,,,,,,,,,,,,\n",
			check: func(t *testing.T, table *Table) {
				assert.Equal(t, 1, table.Len())
				assert.Equal(t, "Region", table.Columns()[len(table.Columns())-1])
				assert.Equal(t, "North", table.Row(0).Cells[14])
			},
		},
		{
			name:  "quoted provider with comma",
			input: header + "\n\"Kent, Surrey & Sussex\",100,80,20,500,300,8,40,20000,4,60,1,90,80\n",
			check: func(t *testing.T, table *Table) {
				assert.Equal(t, []string{"Kent, Surrey & Sussex"}, table.Providers())
			},
		},
		{
			name:     "missing required column",
			input:    "Provider Name,Nhs1 Number Calls Offered SUM\nA,1\n",
			wantErr:  "missing required columns",
			wantType: apierrors.ErrTypeSchema,
		},
		{
			name:     "non numeric cell",
			input:    header + "\nA,lots,80,20,500,300,8,40,20000,4,60,1,90,80\n",
			wantErr:  "invalid numeric cell",
			wantType: apierrors.ErrTypeParsing,
		},
		{
			name:  "trailing empty fields",
			input: header + "\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80,,\n",
			check: func(t *testing.T, table *Table) {
				assert.Equal(t, 1, table.Len())
				assert.Len(t, table.Row(0).Cells, len(RequiredColumns))
			},
		},
		{
			name:     "values beyond the header",
			input:    header + "\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80,surplus\n",
			wantErr:  "record has 15 fields, header has 14 (line 2)",
			wantType: apierrors.ErrTypeParsing,
		},
		{
			name:     "empty input",
			input:    "",
			wantErr:  "dataset is empty",
			wantType: apierrors.ErrTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var appErr *apierrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.wantType, appErr.Type)
				return
			}
			require.NoError(t, err)
			tt.check(t, table)
		})
	}
}

func TestReadCSV_InvalidCellContext(t *testing.T) {
	input := strings.Join(RequiredColumns, ",") + "\nA,100,80,20,500,300,8,40,20000,4,60,1,90,80\nB,1,1,0,1,1,1,1,1000,1,1,x,1,1\n"

	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 3, appErr.Line)
	assert.Equal(t, ColCombinedRank, appErr.Column)
	assert.Equal(t, "x", appErr.Value)
	assert.Contains(t, err.Error(), `line 3, column "Combined_Rank", value "x"`)
}

func TestReadCSV_MultilineFieldLine(t *testing.T) {
	input := strings.Join(RequiredColumns, ",") +
		"\n\"Kent,\nSurrey\",100,80,20,500,300,8,40,20000,4,60,1,90,80" +
		"\nB,1,1,0,1,1,1,1,1000,1,1,x,1,1\n"

	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 4, appErr.Line, "the quoted provider spans lines 2 and 3")
	assert.Equal(t, ColCombinedRank, appErr.Column)
}

func TestLoader_LoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 0, len(RequiredColumns)+1)
	for _, c := range append(append([]string{}, RequiredColumns...), ColTransferTime) {
		header = append(header, c)
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{
		"London", 2000, 1800, 200, 9000, 9000, 360, 900, 500000, 120, 1500, 1, 90.1, 80, 15,
	}))

	path := filepath.Join(t.TempDir(), "calls.xlsx")
	require.NoError(t, f.SaveAs(path))

	logger, _ := testutil.NewTestLogger(t)
	table, err := NewLoader(logger).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	row := table.Row(0)
	assert.Equal(t, "London", row.Provider)
	assert.Equal(t, 0.1, row.AbandonmentRate)
	assert.Equal(t, 10.0, row.CostPerAnsweredCall)
	assert.Equal(t, 15.0, row.TransferTimeMinutes)
}

func TestReadXLSX_NumberFormats(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(RequiredColumns))
	for i, c := range RequiredColumns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{
		"London", 12345.5, 1800, 200, 9000, 9000, 360, 900, 500000, 120, 1500, 1, 0.901, 80,
	}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9}) // 0%
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", thousands))
	require.NoError(t, f.SetCellStyle("Sheet1", "M2", "M2", percent))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	table, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	row := table.Row(0)
	assert.Equal(t, 12345.5, row.CallsOffered)
	assert.Equal(t, "12345.5", row.Cells[1])
	assert.Equal(t, "0.901", row.Cells[12])
}

func TestReadXLSX_ErrorsNameTheSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Calls"))

	header := make([]interface{}, len(RequiredColumns))
	for i, c := range RequiredColumns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow("Calls", "A1", &header))
	require.NoError(t, f.SetSheetRow("Calls", "A2", &[]interface{}{
		"London", "lots", 1800, 200, 9000, 9000, 360, 900, 500000, 120, 1500, 1, 90, 80,
	}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadXLSX(&buf)
	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Calls", appErr.Sheet)
	assert.Equal(t, 2, appErr.Line)
	assert.Equal(t, ColCallsOffered, appErr.Column)
}

func TestLoader_LoadErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	loader := NewLoader(logger)

	t.Run("missing file is a storage error", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "NHS Calls.csv"))
		require.Error(t, err)

		var appErr *apierrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apierrors.ErrTypeStorage, appErr.Type)
	})

	t.Run("parse errors carry the path", func(t *testing.T) {
		path := testutil.WriteFile(t, "bad.csv", "Provider Name\nA\n")
		_, err := loader.Load(context.Background(), path)

		var appErr *apierrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, path, appErr.Path)
		assert.Equal(t, apierrors.ErrTypeSchema, appErr.Type)
		assert.Equal(t, RequiredColumns[1:], appErr.Missing)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := loader.Load(ctx, testutil.WriteNHSCallsCSV(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
