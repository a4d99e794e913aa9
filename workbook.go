// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an open spreadsheet document. It is not safe for
// concurrent use; the engine assumes a single writer per file path.
type Workbook struct {
	xl     *excelize.File
	merged map[string][]mergeArea
	// Path is where Save persists to. For legacy (.xls) sources this is
	// the converted working copy, not the original.
	Path string
}

// mergeArea is one merged region, 1-indexed, inclusive.
// Only the top-left anchor of a region is writable.
type mergeArea struct {
	r1, c1, r2, c2 int
}

func (a mergeArea) contains(row, col int) bool {
	return a.r1 <= row && row <= a.r2 && a.c1 <= col && col <= a.c2
}

func (a mergeArea) anchor(row, col int) bool { return row == a.r1 && col == a.c1 }

// Open opens an .xlsx workbook. It returns ErrNotFound when the path is
// absent and a wrapped ErrBadFormat when the container cannot be parsed.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w: %w", path, ErrBadFormat, err)
	}
	return &Workbook{xl: xl, Path: path}, nil
}

// New creates an in-memory workbook whose first sheet is named sheetName.
// Save fails until a Path is set with SaveAs.
func New(sheetName string) *Workbook {
	xl := excelize.NewFile()
	if sheetName != "" && sheetName != "Sheet1" {
		xl.SetSheetName("Sheet1", sheetName)
	}
	return &Workbook{xl: xl}
}

func (wb *Workbook) Close() error {
	if wb == nil || wb.xl == nil {
		return nil
	}
	xl := wb.xl
	wb.xl = nil
	return xl.Close()
}

// Sheets lists the sheet names in workbook order.
func (wb *Workbook) Sheets() []string { return wb.xl.GetSheetList() }

// Sheet resolves name case-sensitively, returning ErrSheetNotFound when
// the workbook has no such sheet. Callers wanting positional fallback
// use FirstSheet.
func (wb *Workbook) Sheet(name string) (string, error) {
	for _, s := range wb.xl.GetSheetList() {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrSheetNotFound)
}

// FirstSheet returns the workbook's first sheet name, or "" when empty.
func (wb *Workbook) FirstSheet() string {
	sheets := wb.xl.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// Dims reports the bounding box of the sheet's content, extended to
// cover merged regions.
func (wb *Workbook) Dims(sheet string) (maxRow, maxCol int) {
	rows, err := wb.xl.GetRows(sheet)
	if err == nil {
		maxRow = len(rows)
		for _, row := range rows {
			if len(row) > maxCol {
				maxCol = len(row)
			}
		}
	}
	for _, a := range wb.mergeAreas(sheet) {
		if a.r2 > maxRow {
			maxRow = a.r2
		}
		if a.c2 > maxCol {
			maxCol = a.c2
		}
	}
	return maxRow, maxCol
}

func (wb *Workbook) mergeAreas(sheet string) []mergeArea {
	if areas, ok := wb.merged[sheet]; ok {
		return areas
	}
	var areas []mergeArea
	if merges, err := wb.xl.GetMergeCells(sheet); err == nil {
		for _, mc := range merges {
			c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
			if err != nil {
				continue
			}
			c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
			if err != nil {
				continue
			}
			areas = append(areas, mergeArea{r1: r1, c1: c1, r2: r2, c2: c2})
		}
	}
	if wb.merged == nil {
		wb.merged = make(map[string][]mergeArea)
	}
	wb.merged[sheet] = areas
	return areas
}

// InMergedRegion reports whether (row, col) belongs to a merged region
// but is not that region's writable top-left anchor.
func (wb *Workbook) InMergedRegion(sheet string, row, col int) bool {
	for _, a := range wb.mergeAreas(sheet) {
		if a.contains(row, col) {
			return !a.anchor(row, col)
		}
	}
	return false
}

// SetCell writes value at the 1-indexed (row, col). Writes aimed at a
// non-anchor member of a merged region are skipped; the skip is
// observable only through the returned applied flag, never as an error.
// nil empties the cell.
func (wb *Workbook) SetCell(sheet string, row, col int, value any) (applied bool, err error) {
	if wb.InMergedRegion(sheet, row, col) {
		return false, nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false, fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	switch v := value.(type) {
	case nil:
		err = wb.xl.SetCellValue(sheet, axis, nil)
	case string:
		err = wb.xl.SetCellStr(sheet, axis, v)
	case float64:
		err = wb.xl.SetCellFloat(sheet, axis, v, -1, 64)
	case float32:
		err = wb.xl.SetCellFloat(sheet, axis, float64(v), -1, 64)
	case int:
		err = wb.xl.SetCellInt(sheet, axis, v)
	case int64:
		err = wb.xl.SetCellInt(sheet, axis, int(v))
	case time.Time:
		err = wb.xl.SetCellValue(sheet, axis, v)
	case Value:
		return wb.SetCell(sheet, row, col, v.Any())
	default:
		err = wb.xl.SetCellValue(sheet, axis, v)
	}
	if err != nil {
		return false, fmt.Errorf("%s[%s]: %w", sheet, axis, err)
	}
	return true, nil
}

// CellString reads the formatted value at the 1-indexed (row, col).
func (wb *Workbook) CellString(sheet string, row, col int) string {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	s, _ := wb.xl.GetCellValue(sheet, axis)
	return s
}

// Save persists the workbook to its Path, writing a sibling temp file
// first and renaming it into place so a failed save leaves the original
// untouched.
func (wb *Workbook) Save() error {
	if wb.Path == "" {
		return errors.New("workbook has no path")
	}
	return wb.SaveAs(wb.Path)
}

// SaveAs persists the workbook to path atomically and remembers path for
// later Saves.
func (wb *Workbook) SaveAs(path string) error {
	tmp := fmt.Sprintf("%s.tmp%d", path, os.Getpid())
	fh, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %q: %w", tmp, err)
	}
	if _, err = wb.xl.WriteTo(fh); err != nil {
		fh.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %q: %w", tmp, err)
	}
	if err = fh.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %q: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %q to %q: %w", tmp, path, err)
	}
	wb.Path = path
	return nil
}

// SaveCopy writes the workbook to path without changing wb.Path.
// Render uses it for the disposable working copy.
func (wb *Workbook) SaveCopy(path string) error {
	if err := wb.xl.SaveAs(path); err != nil {
		return fmt.Errorf("save copy %q: %w", path, err)
	}
	return nil
}

// stem returns the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
