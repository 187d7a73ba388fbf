// Package ingest turns uploaded tabular data into a budget ladder and a
// profit matrix.
//
// The expected layout has one row per budget level: the first column holds
// the investment amount, every following column the profit of one
// enterprise at that amount. A leading header row is tolerated.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file extensions that are neither
	// a workbook nor delimited text.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyUpload is returned when the input holds no data rows.
	ErrEmptyUpload = errors.New("no data rows found")
)

// Table is the parsed budget ladder and profit matrix.
type Table struct {
	Levels  []float64
	Profits [][]float64
}

// Options tunes parsing.
type Options struct {
	// Sheet selects a workbook sheet; the first sheet is used when empty.
	Sheet string
}

// ParseError points at the cell that could not be read as a number.
// Row and Column are 1-based as shown by spreadsheet tools.
type ParseError struct {
	Row    int
	Column int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d column %d: empty cell", e.Row, e.Column)
	}
	return fmt.Sprintf("row %d column %d: %q is not a number", e.Row, e.Column, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatError reports input that could not be decoded as the format its
// file name claims.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unable to read %s: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// FromArray splits rows of numbers into levels and profits.
func FromArray(rows [][]float64) *Table {
	table := &Table{
		Levels:  make([]float64, 0, len(rows)),
		Profits: make([][]float64, 0, len(rows)),
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		table.Levels = append(table.Levels, row[0])
		table.Profits = append(table.Profits, append([]float64(nil), row[1:]...))
	}
	return table
}

// FromRows parses textual cells. Shape problems such as ragged rows are
// left for allocation.Validate to report.
func FromRows(rows [][]string) (*Table, error) {
	table := &Table{}
	first := true
	for r, record := range rows {
		cells := trimTrailingBlanks(record)
		if len(cells) == 0 {
			continue
		}
		if first {
			first = false
			if _, err := parseNumber(cells[0]); err != nil {
				continue
			}
		}

		values := make([]float64, len(cells))
		for c, cell := range cells {
			v, err := parseNumber(cell)
			if err != nil {
				return nil, &ParseError{Row: r + 1, Column: c + 1, Value: strings.TrimSpace(cell), Err: err}
			}
			values[c] = v
		}
		table.Levels = append(table.Levels, values[0])
		table.Profits = append(table.Profits, values[1:])
	}

	if len(table.Levels) == 0 {
		return nil, ErrEmptyUpload
	}
	return table, nil
}

// ReadCSV parses comma-separated input.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{Format: "CSV", Err: err}
	}
	return FromRows(records)
}

// ReadWorkbook parses an .xlsx workbook.
func ReadWorkbook(r io.Reader, sheet string) (*Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &FormatError{Format: "workbook", Err: err}
	}
	defer func() {
		_ = book.Close()
	}()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyUpload
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &FormatError{Format: fmt.Sprintf("sheet %q", sheet), Err: err}
	}
	return FromRows(rows)
}

// Read dispatches on the file extension of fileName.
func Read(fileName string, r io.Reader, opts Options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyUpload
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(bytes.NewReader(data), opts.Sheet)
	case ".csv", ".txt":
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// Load opens path and reads it with Read.
func Load(path string, opts Options) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer file.Close()

	return Read(filepath.Base(path), file, opts)
}

// IsInputError reports whether err was caused by the uploaded content
// rather than by the reader.
func IsInputError(err error) bool {
	var parseErr *ParseError
	var formatErr *FormatError
	return errors.As(err, &parseErr) ||
		errors.As(err, &formatErr) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyUpload)
}

func parseNumber(cell string) (float64, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(trimmed, 64)
}

func trimTrailingBlanks(record []string) []string {
	end := len(record)
	for end > 0 && strings.TrimSpace(record[end-1]) == "" {
		end--
	}
	return record[:end]
}
