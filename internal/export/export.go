// Package export writes query result sets to spreadsheet workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/goextract/internal/database"
)

// DefaultSheet is the name of the single sheet in every workbook.
const DefaultSheet = "Sheet1"

// WriteError reports a failure to produce a workbook.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write workbook %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer persists a result set to a file.
type Writer interface {
	Write(result *database.ResultSet, path string) error
}

// ExcelWriter writes one .xlsx workbook per result set.
type ExcelWriter struct {
	// Header writes the column names as a bold first row.
	Header bool
}

// NewExcelWriter creates an ExcelWriter.
func NewExcelWriter(header bool) *ExcelWriter {
	return &ExcelWriter{Header: header}
}

// Write streams result into a new workbook at path. Rows keep their fetch
// order and NULL values become empty cells. An empty result set still
// produces a valid workbook.
func (w *ExcelWriter) Write(result *database.ResultSet, path string) error {
	if result == nil {
		result = &database.ResultSet{}
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("failed to create stream writer: %w", err)}
	}

	row := 1
	if w.Header && len(result.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
		})
		if err != nil {
			return &WriteError{Path: path, Err: fmt.Errorf("failed to create header style: %w", err)}
		}

		header := make([]interface{}, len(result.Columns))
		for i, name := range result.Columns {
			header[i] = excelize.Cell{StyleID: style, Value: name}
		}
		if err := writeRow(sw, row, header); err != nil {
			return &WriteError{Path: path, Err: err}
		}
		row++
	}

	for _, values := range result.Rows {
		if err := writeRow(sw, row, values); err != nil {
			return &WriteError{Path: path, Err: err}
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("failed to flush rows: %w", err)}
	}
	if err := f.SaveAs(path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeRow(sw *excelize.StreamWriter, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
