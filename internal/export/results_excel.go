// Package export renders result sheets for download.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetSpec is one worksheet of string cells.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Workbook wraps an excelize file built from sheet specs.
type Workbook struct {
	File *excelize.File
}

// NewWorkbook builds a workbook with one worksheet per spec. Header rows are
// bold and filterable.
func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("at least one sheet is required")
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("new style: %w", err)
	}

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		for col, h := range s.Header {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}

		if len(s.Header) > 0 {
			end, err := excelize.CoordinatesToCellName(len(s.Header), 1)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellStyle(name, "A1", end, bold)
			_ = f.AutoFilter(name, "A1:"+end, nil)
		}

		for r, row := range s.Rows {
			for c, val := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}

		for c := 1; c <= len(s.Header); c++ {
			width := len(s.Header[c-1])
			for r := 0; r < minInt(50, len(s.Rows)); r++ {
				if c-1 < len(s.Rows[r]) && len(s.Rows[r][c-1]) > width {
					width = len(s.Rows[r][c-1])
				}
			}
			w := float64(width) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			colName, err := excelize.ColumnNumberToName(c)
			if err != nil {
				return nil, err
			}
			_ = f.SetColWidth(name, colName, colName, w)
		}
	}

	return &Workbook{File: f}, nil
}

// Bytes serializes the workbook as xlsx.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.File.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases resources held by the workbook.
func (w *Workbook) Close() error {
	return w.File.Close()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
