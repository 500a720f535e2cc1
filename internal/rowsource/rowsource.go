// Package rowsource loads order rows from CSV and XLSX files.
package rowsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the rows of a .csv or .xlsx file. The first row is the header.
func Load(path string) ([]model.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return ParseCSV(data)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownFormat, filepath.Ext(path))
	}
}

// ParseCSV parses CSV bytes. Bytes that are not valid UTF-8 are decoded as
// Shift_JIS. A UTF-8 byte order mark is dropped.
func ParseCSV(data []byte) ([]model.Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Shift_JIS: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		records = append(records, record)
	}
	return toRows(records)
}

// LoadXLSX reads the first sheet of a workbook.
func LoadXLSX(path string) ([]model.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrNoHeader)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return toRows(records)
}

// toRows keys each record by the header. Blank records are skipped and
// short records are padded with empty values.
func toRows(records [][]string) ([]model.Row, error) {
	if len(records) == 0 {
		return nil, common.ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	if strings.Join(header, "") == "" {
		return nil, common.ErrNoHeader
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		var row model.Row
		for i, column := range header {
			if column == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = record[i]
			}
			row.Set(column, value)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, common.ErrNoRows
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
