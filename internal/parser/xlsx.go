package parser

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
	"github.com/xuri/excelize/v2"
)

type xlsxCodec struct{}

func (xlsxCodec) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read loads the selected sheet. The first row is the header.
func (xlsxCodec) Read(path string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, path, opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("sheet %q: no columns to parse", sheet)
	}
	return table.FromRecords(rows[0], rows[1:])
}

func pickSheet(f *excelize.File, path string, opt Options) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook '%s' has no sheets", filepath.Base(path))
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			opt.SheetName, filepath.Base(path), strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
	}
	return sheets[idx-1], nil
}

// Write stores the table on the workbook's first sheet, numbers as numeric cells and
// missing cells left blank.
func (xlsxCodec) Write(path string, t *table.Table, opt Options) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if opt.SheetName != "" {
		if err := f.SetSheetName(sheet, opt.SheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = opt.SheetName
	}

	header := make([]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.Rows(); i++ {
		row := make([]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			switch {
			case c.IsMissing(i):
				row[j] = nil
			case c.Kind == table.Numeric && !math.IsInf(c.Nums[i], 0):
				row[j] = c.Nums[i]
			default:
				row[j] = c.Cell(i)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
