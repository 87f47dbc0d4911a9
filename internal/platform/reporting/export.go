package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// WriteXLSX renders report as a single-sheet workbook with a frozen header.
func WriteXLSX(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := report.MeasureID
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return fmt.Errorf("create date style: %w", err)
	}

	for i, col := range report.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(col)); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
	}

	for r, rec := range report.Results {
		for i, col := range report.Columns {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
			if _, isTime := v.(time.Time); isTime {
				if err := f.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
					return fmt.Errorf("style %s: %w", cell, err)
				}
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func columnWidth(col string) float64 {
	switch {
	case strings.HasSuffix(col, "_id"):
		return 38
	case len(col) > 18:
		return float64(len(col) + 2)
	default:
		return 20
	}
}

func cellValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return "Sí"
		}
		return "No"
	case []byte:
		return string(t)
	case map[string]any, []any:
		return fmt.Sprint(t)
	}
	return v
}
