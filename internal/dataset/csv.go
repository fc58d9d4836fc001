package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ParseError reports a CSV field that could not be parsed as a number.
// Row and Column are zero-based data coordinates.
type ParseError struct {
	Row    int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse field at row %d column %d: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadCSV parses a comma-separated numeric matrix. When hasHeader is set the
// first record provides variable names; otherwise columns are auto-named
// X1..Xn. Values are parsed as IEEE-754 single precision.
func ReadCSV(r io.Reader, hasHeader bool) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var names []string
	if hasHeader {
		record, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
		names = append(names, record...)
	}

	var rows [][]float32
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowIdx, err)
		}
		row := make([]float32, len(record))
		for col, field := range record {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, &ParseError{Row: rowIdx, Column: col, Err: err}
			}
			row[col] = float32(v)
		}
		rows = append(rows, row)
		rowIdx++
	}

	ds, err := FromRows(rows)
	if err != nil {
		return nil, err
	}
	if hasHeader {
		if err := ds.SetVariableNames(names); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// ReadCSVFile opens and parses a CSV file.
func ReadCSVFile(path string, hasHeader bool) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, hasHeader)
}

// WriteCSV writes the dataset with a header row. Columns appear in their
// storage order, not hash order.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(d.columns))
	for _, v := range d.variables {
		header[v.Index] = v.Name
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(d.columns))
	for i := 0; i < d.rows; i++ {
		for j, col := range d.columns {
			record[j] = strconv.FormatFloat(float64(col[i]), 'g', -1, 32)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
