package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadCSV(t *testing.T) {
	input := "0,0,0\n10,5,4\n20,9,7\n30,12,9\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 20, 30}, table.Levels)
	assert.Equal(t, [][]float64{{0, 0}, {5, 4}, {9, 7}, {12, 9}}, table.Profits)
}

func TestReadCSVSkipsHeaderAndBlankRows(t *testing.T) {
	input := "investment,plant A,plant B\n\n0, 0, 0\n10, 5.5, 4\n,,\n20, 9, 7\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 20}, table.Levels)
	assert.Equal(t, [][]float64{{0, 0}, {5.5, 4}, {9, 7}}, table.Profits)
}

func TestReadCSVKeepsRaggedRowsForValidation(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("0,0,0\n10,5\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}, {5}}, table.Profits)
}

func TestReadCSVReportsBadCell(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("0,0\n10,abc\n"))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Row)
	assert.Equal(t, 2, parseErr.Column)
	assert.Equal(t, "abc", parseErr.Value)
	assert.True(t, IsInputError(err))
}

func TestReadCSVReportsEmptyCell(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("0,0,0\n10,,4\n"))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Error(), "empty cell")
}

func TestReadCSVMalformedQuotes(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("0,\"0\n"))
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestReadWorkbook(t *testing.T) {
	data := workbook(t, "Sheet1", [][]interface{}{
		{0, 0, 0},
		{10, 5, 4},
		{20, 9, 7},
		{30, 12, 9},
	})

	table, err := ReadWorkbook(bytes.NewReader(data), "")
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 20, 30}, table.Levels)
	assert.Equal(t, [][]float64{{0, 0}, {5, 4}, {9, 7}, {12, 9}}, table.Profits)
}

func TestReadWorkbookNamedSheet(t *testing.T) {
	data := workbook(t, "Profits", [][]interface{}{
		{"level", "A"},
		{0, 0},
		{5, 3},
		{10, 7},
	})

	table, err := ReadWorkbook(bytes.NewReader(data), "Profits")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10}, table.Levels)
	assert.Equal(t, [][]float64{{0}, {3}, {7}}, table.Profits)

	_, err = ReadWorkbook(bytes.NewReader(data), "Missing")
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestReadWorkbookGarbage(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a zip archive"), "")
	require.Error(t, err)

	var formatErr *FormatError
	assert.True(t, errors.As(err, &formatErr))
	assert.True(t, IsInputError(err))
}

func TestReadDispatch(t *testing.T) {
	xlsx := workbook(t, "Sheet1", [][]interface{}{{0, 0}, {5, 3}})

	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantErr  error
	}{
		{"Workbook", "profits.xlsx", xlsx, nil},
		{"Workbook upper case", "PROFITS.XLSX", xlsx, nil},
		{"CSV", "profits.csv", []byte("0,0\n5,3\n"), nil},
		{"Unsupported", "profits.ods", []byte("0,0\n"), ErrUnsupportedFormat},
		{"Empty", "profits.csv", []byte("  \n"), ErrEmptyUpload},
		{"Header only", "profits.csv", []byte("level,a\n"), ErrEmptyUpload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read(tt.fileName, bytes.NewReader(tt.data), Options{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsInputError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 5}, table.Levels)
			assert.Equal(t, [][]float64{{0}, {3}}, table.Profits)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profits.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,0\n5,3\n10,7\n"), 0600))

	table, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 10}, table.Levels)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	require.Error(t, err)
	assert.False(t, IsInputError(err))
}

func TestFromArray(t *testing.T) {
	table := FromArray([][]float64{{0, 0, 0}, {}, {10, 5, 4}})
	assert.Equal(t, []float64{0, 10}, table.Levels)
	assert.Equal(t, [][]float64{{0, 0}, {5, 4}}, table.Profits)
}
