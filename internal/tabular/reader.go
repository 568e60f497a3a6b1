package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"dompet/internal/core"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readTable returns the header and data rows of the source. Any failure to
// parse the source as a table is reported as core.ErrUnreadableInput.
func readTable(r io.Reader, f Format) ([]string, [][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch f {
	case CSV:
		rows, err = readCSV(r)
	case XLSX:
		rows, err = readXLSX(r)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported format %q", core.ErrUnreadableInput, f)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no header row", core.ErrUnreadableInput)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return header, rows[1:], nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	rows, err := parseCSV(data, ',')
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) == 1 && strings.Contains(rows[0][0], ";") {
		return parseCSV(data, ';')
	}
	return rows, nil
}

func parseCSV(data []byte, comma rune) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	// Raw values keep dates as serial numbers instead of locale-formatted text.
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}
