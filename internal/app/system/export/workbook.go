// Package export builds xlsx workbooks for directory downloads.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	minColWidth = 12
	maxColWidth = 40
	widthSample = 50
)

// SheetSpec is one worksheet: a header row followed by Rows.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Workbook wraps an excelize file built from SheetSpecs.
type Workbook struct {
	File *excelize.File
}

// NewWorkbook lays out sheets in order. The first sheet replaces the
// default "Sheet1". Header cells are bold and carry an auto-filter.
func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export: no sheets")
	}
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("new sheet %q: %w", s.Title, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &Workbook{File: f}, nil
}

func writeSheet(f *excelize.File, s SheetSpec, headerStyle int) error {
	for c, h := range s.Header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellStr(s.Title, cell, h); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	if len(s.Header) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(s.Header), 1)
		_ = f.SetCellStyle(s.Title, "A1", end, headerStyle)
		_ = f.AutoFilter(s.Title, "A1:"+end, nil)
	}

	for r, row := range s.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(s.Title, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// width from the header and the first rows
	for c := range s.Header {
		w := len(s.Header[c])
		for r := 0; r < min(widthSample, len(s.Rows)); r++ {
			if c < len(s.Rows[r]) && len(s.Rows[r][c]) > w {
				w = len(s.Rows[r][c])
			}
		}
		width := float64(w) * 0.9
		width = max(width, minColWidth)
		width = min(width, maxColWidth)
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(s.Title, col, col, width)
	}
	return nil
}

// WriteTo streams the workbook as xlsx.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	return wb.File.WriteTo(w)
}

// Close releases the workbook's temporary resources.
func (wb *Workbook) Close() error {
	return wb.File.Close()
}
