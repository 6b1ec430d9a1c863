package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bompick/internal"
)

var exportHeaders = []string{
	"refdes", "quantity", "description", "package",
	"mpn", "supplier_part_number", "manufacturer",
	"value", "voltage", "stock", "unit_price", "lifecycle", "product_url",
}

// ExportRows writes the resolved BOM to xlsx or csv, chosen by the
// output extension.
func ExportRows(rows []internal.ExportRow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(outputPath), ".csv") {
		return exportCSV(rows, outputPath)
	}
	return exportXLSX(rows, outputPath)
}

func exportXLSX(rows []internal.ExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RefDes)
		set(2, row.Quantity)
		set(3, row.Description)
		set(4, row.Package)
		set(5, row.MPN)
		set(6, row.SupplierPartNumber)
		set(7, row.Manufacturer)
		set(8, row.Value)
		set(9, row.Voltage)
		set(10, derefInt(row.Stock))
		set(11, derefFloat(row.UnitPrice))
		set(12, row.Lifecycle)
		set(13, row.ProductURL)
	}

	return f.SaveAs(outputPath)
}

func exportCSV(rows []internal.ExportRow, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.RefDes,
			strconv.Itoa(row.Quantity),
			row.Description,
			row.Package,
			row.MPN,
			row.SupplierPartNumber,
			row.Manufacturer,
			row.Value,
			row.Voltage,
			intString(row.Stock),
			floatString(row.UnitPrice),
			row.Lifecycle,
			row.ProductURL,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.5f", *v)
}
