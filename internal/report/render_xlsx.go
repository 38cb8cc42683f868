package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"clientbooks/internal/records/models"
)

const (
	sheetName   = "Clients"
	reportTitle = "Client Financial Report"
	headerRow   = 4
)

// RenderXLSX writes the record set as a styled workbook: a title block, a
// bold header row and right-aligned numeric columns. generatedAt is the only
// content allowed to vary between runs over the same record set.
func RenderXLSX(records []models.Record, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	numericStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "right"}})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellValue(sheetName, "A1", reportTitle); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, "A2", "Generated "+generatedAt.UTC().Format(dateLayout)); err != nil {
		return nil, err
	}

	for col, name := range reportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("F%d", headerRow), headerStyle); err != nil {
		return nil, err
	}

	for i := range records {
		row := headerRow + 1 + i
		for col, value := range reportRow(&records[i]) {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
		// Revenue, Expenses, Net Profit right-aligned.
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("E%d", row), numericStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "C", "F", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
