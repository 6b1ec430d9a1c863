package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"bompick/internal"
)

// Table is one ingested BOM file: the header row kept separate from the
// body rows.
type Table struct {
	Headers []string
	Rows    []internal.RawRow
}

// ReadBOM reads a BOM table from an xlsx/xlsm workbook, a delimited text
// file, or an HTML document containing a table.
func ReadBOM(path string) (Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(blob)
	case ".csv", ".txt":
		return parseCSV(blob)
	case ".html", ".htm":
		return parseHTML(blob)
	default:
		return Table{}, fmt.Errorf("unsupported bom format: %s", filepath.Ext(path))
	}
}

func parseXLSX(blob []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, &SchemaError{Reason: "workbook has no header row"}
	}

	table := Table{Headers: rows[0]}
	for _, row := range rows[1:] {
		if rowEmpty(row) {
			continue
		}
		table.Rows = append(table.Rows, internal.RawRow(row))
	}
	return table, nil
}

func parseCSV(blob []byte) (Table, error) {
	blob = bytes.TrimPrefix(blob, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(blob))
	reader.Comma = sniffDelimiter(blob)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, &SchemaError{Reason: "file has no header row"}
	}

	table := Table{Headers: records[0]}
	for _, row := range records[1:] {
		if rowEmpty(row) {
			continue
		}
		table.Rows = append(table.Rows, internal.RawRow(row))
	}
	return table, nil
}

// sniffDelimiter picks the separator that splits the header row into the
// most fields.
func sniffDelimiter(blob []byte) rune {
	line := blob
	if i := bytes.IndexByte(blob, '\n'); i >= 0 {
		line = blob[:i]
	}

	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, sep := range []byte{';', '\t'} {
		if count := bytes.Count(line, []byte{sep}); count > bestCount {
			best = rune(sep)
			bestCount = count
		}
	}
	return best
}

func parseHTML(blob []byte) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return Table{}, err
	}

	var table Table
	found := false
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rows := sel.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			table.Headers = append(table.Headers, strings.TrimSpace(cell.Text()))
		})
		rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			var row internal.RawRow
			tr.Find("td,th").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, strings.TrimSpace(cell.Text()))
			})
			if !rowEmpty(row) {
				table.Rows = append(table.Rows, row)
			}
		})
		found = true
		return false
	})

	if !found {
		return Table{}, &SchemaError{Reason: "document contains no usable table"}
	}
	return table, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
