package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"confcurve/domain/curve"
	"confcurve/internal"
	"confcurve/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader reads batch comparisons from Excel or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger.With("DataReader")}
}

// Load implements ports.ComparisonSource
func (r *DataReader) Load(ctx context.Context) ([]curve.Comparison, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.Comparisons(data)
}

// ReadData reads the first sheet (or the CSV file) into header-keyed rows
func (r *DataReader) ReadData() (*SheetData, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// readExcelData reads the first worksheet of a workbook
func (r *DataReader) readExcelData() (*SheetData, error) {
	readStart := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", sheets[0], float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read CSV file: %w", err))
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into SheetData, normalising header names
func (r *DataReader) processRows(rows [][]string) (*SheetData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		h := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := headerAliases[h]; ok {
			h = canonical
		}
		headers[i] = h
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return nil, errors.InvalidInput(fmt.Sprintf("missing required column %q", col))
		}
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SheetData{Headers: headers, Rows: dataRows}, nil
}

// Comparisons converts rows into comparisons. Unnamed rows are named by row number.
func (r *DataReader) Comparisons(data *SheetData) ([]curve.Comparison, error) {
	out := make([]curve.Comparison, 0, len(data.Rows))
	for i, row := range data.Rows {
		c, err := parseRow(row)
		if err != nil {
			// +2: one for the header, one for 1-based numbering
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseRow(row RawRowData) (curve.Comparison, error) {
	var (
		c   curve.Comparison
		err error
	)
	c.Name = row[ColName]
	if c.Repetitions, err = parseInt(row, ColR); err != nil {
		return c, err
	}
	if c.Folds, err = parseInt(row, ColK); err != nil {
		return c, err
	}
	if c.TrainSize, err = parseFloat(row, ColN1); err != nil {
		return c, err
	}
	if c.TestSize, err = parseFloat(row, ColN2); err != nil {
		return c, err
	}
	if c.EffectSize, err = parseFloat(row, ColEffectSize); err != nil {
		return c, err
	}
	if c.Variance, err = parseFloat(row, ColVariance); err != nil {
		return c, err
	}
	if row[ColM] != "" {
		if c.Intervals, err = parseInt(row, ColM); err != nil {
			return c, err
		}
	}
	if row[ColLevel] != "" {
		if c.Level, err = parseFloat(row, ColLevel); err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseInt(row RawRowData, col string) (int, error) {
	v, err := strconv.Atoi(row[col])
	if err != nil {
		// Spreadsheets often store integers as "10.0"
		f, ferr := strconv.ParseFloat(row[col], 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, errors.InvalidInput(fmt.Sprintf("column %s: %q is not an integer", col, row[col]))
		}
		return int(f), nil
	}
	return v, nil
}

func parseFloat(row RawRowData, col string) (float64, error) {
	v, err := strconv.ParseFloat(row[col], 64)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("column %s: %q is not a number", col, row[col]))
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
