package bom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the worksheet holding the BOM rows in spreadsheet exports
const ExportSheetName = "BOM"

// ExportHeader is the fixed column order of BOM exports
var ExportHeader = []string{
	"Project ID",
	"Project Name",
	"Client Name",
	"Part ID",
	"Part Name",
	"Category",
	"Quantity",
	"Status",
	"Expected Delivery",
	"Selected Vendor",
	"Vendor Price (₹)",
}

// ProjectInfo identifies the project an export belongs to
type ProjectInfo struct {
	ID         string
	Name       string
	ClientName string
}

// ExportRows flattens the tree into one row per item, without the header
func ExportRows(project ProjectInfo, tree Tree) [][]string {
	var rows [][]string
	for _, c := range tree {
		for _, item := range c.Items {
			vendor, price := "", ""
			if item.FinalizedVendor != nil {
				vendor = item.FinalizedVendor.Name
				price = strconv.FormatFloat(item.FinalizedVendor.Price, 'f', -1, 64)
			}
			rows = append(rows, []string{
				project.ID,
				project.Name,
				project.ClientName,
				item.PartID,
				item.Name,
				c.Name,
				strconv.Itoa(item.Quantity),
				item.Status.Label(),
				item.ExpectedDelivery,
				vendor,
				price,
			})
		}
	}
	return rows
}

// WriteCSV writes the header and item rows. Every field is double quoted with
// embedded quotes doubled, and rows are separated by CRLF.
func WriteCSV(w io.Writer, project ProjectInfo, tree Tree) error {
	rows := append([][]string{ExportHeader}, ExportRows(project, tree)...)
	lines := make([]string, len(rows))
	for i, row := range rows {
		fields := make([]string, len(row))
		for j, field := range row {
			fields[j] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		lines[i] = strings.Join(fields, ",")
	}
	_, err := io.WriteString(w, strings.Join(lines, "\r\n"))
	return err
}

// WriteXLSX writes the same rows as WriteCSV as a spreadsheet with a styled
// header. Quantity and price cells are numeric.
func WriteXLSX(w io.Writer, project ProjectInfo, tree Tree) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range ExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ExportSheetName, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(ExportSheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	row := 2
	for _, c := range tree {
		for _, item := range c.Items {
			values := []interface{}{
				project.ID,
				project.Name,
				project.ClientName,
				item.PartID,
				item.Name,
				c.Name,
				item.Quantity,
				item.Status.Label(),
				item.ExpectedDelivery,
				"",
				"",
			}
			if item.FinalizedVendor != nil {
				values[9] = item.FinalizedVendor.Name
				values[10] = item.FinalizedVendor.Price
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(ExportSheetName, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	for i, width := range []float64{12, 20, 20, 14, 24, 16, 10, 12, 18, 20, 16} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ExportSheetName, col, col, width); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
