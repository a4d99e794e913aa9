// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"log/slog"
	"strings"
)

// Mutator projects a Dataset onto one worksheet without letting the
// sheet grow without bound across repeated runs.
type Mutator struct {
	log    *slog.Logger
	wb     *Workbook
	sheet  string
	opts   Options
	Header HeaderLocator
}

// NewMutator targets sheet in wb. The sheet must already exist.
func NewMutator(wb *Workbook, sheet string, opts Options, log *slog.Logger) *Mutator {
	if log == nil {
		log = slog.Default()
	}
	return &Mutator{wb: wb, sheet: sheet, opts: opts.withDefaults(), log: log,
		Header: KeywordLocator{}}
}

// FindInsertionRow scans from minRow for the first row whose leading
// ScanCols cells are all empty. When the sheet has no such window it
// returns the fixed DefaultRow: overwriting in place is what keeps the
// file from accreting rows on every run, so the result must never track
// a growing max row.
func (m *Mutator) FindInsertionRow(minRow int) int {
	if minRow <= 0 {
		minRow = m.opts.MinScanRow
	}
	maxRow, maxCol := m.wb.Dims(m.sheet)
	k := m.opts.ScanCols
	if maxCol > 0 && maxCol < k {
		k = maxCol
	}
	// The scan stays within the existing bounds: the row past max_row
	// always looks free, and returning it on every run is exactly the
	// append-forever failure the default row exists to stop.
	for row := minRow; row <= maxRow; row++ {
		empty := true
		for col := 1; col <= k; col++ {
			if m.wb.CellString(m.sheet, row, col) != "" {
				empty = false
				break
			}
		}
		if empty {
			return row
		}
	}
	m.log.Warn("no empty row found, using default insertion row",
		"sheet", m.sheet, "default", m.opts.DefaultRow)
	return m.opts.DefaultRow
}

// ClearRegion empties every non-merged cell in
// [startRow, startRow+rowCount+ClearMargin) x [1, colCount].
// Running it before each write is what makes repeated updates replace
// rather than accumulate.
func (m *Mutator) ClearRegion(startRow, rowCount, colCount int) {
	end := startRow + rowCount + m.opts.ClearMargin
	for row := startRow; row < end; row++ {
		for col := 1; col <= colCount; col++ {
			if m.wb.InMergedRegion(m.sheet, row, col) {
				continue
			}
			if _, err := m.wb.SetCell(m.sheet, row, col, nil); err != nil {
				m.log.Debug("skip cell during clear", "row", row, "col", col, "error", err)
			}
		}
	}
	m.log.Info("cleared region", "sheet", m.sheet, "rows", [2]int{startRow, end - 1}, "cols", colCount)
}

// WriteDataset writes the column names at startRow and the data rows
// below, coercing each Value to its cell type. Nulls leave the cell
// empty. A single cell failure is logged and skipped, never fatal.
func (m *Mutator) WriteDataset(startRow int, ds *Dataset) {
	if ds == nil || (len(ds.Rows) == 0 && len(ds.Columns) == 0) {
		m.log.Info("no data to write", "sheet", m.sheet)
		return
	}
	for col, name := range ds.Columns {
		if applied, err := m.wb.SetCell(m.sheet, startRow, col+1, name); err != nil {
			m.log.Warn("could not write header", "col", name, "error", err)
		} else if !applied {
			m.log.Debug("skipped merged cell for header", "row", startRow, "col", col+1)
		}
	}
	for i, row := range ds.Rows {
		r := startRow + 1 + i
		for j, v := range row {
			if v.IsNull() {
				continue
			}
			if applied, err := m.wb.SetCell(m.sheet, r, j+1, v); err != nil {
				m.log.Warn("could not write cell", "row", r, "col", j+1, "error", err)
			} else if !applied {
				m.log.Debug("skipped merged cell", "row", r, "col", j+1)
			}
		}
	}
	m.log.Info("wrote dataset", "sheet", m.sheet, "startRow", startRow, "rows", len(ds.Rows))
}

// Update is the full idempotent sequence: header refresh, locate the
// insertion row, clear the bounded region, write the dataset.
//
// A row holding this dataset's own column names from an earlier run is
// preferred over the first empty window, so repeated updates overwrite
// the same region instead of appending below it.
func (m *Mutator) Update(ds *Dataset, title, timestamp string) {
	m.UpdateHeader(title, timestamp)
	start := m.findHeaderRow(ds)
	if start == 0 {
		start = m.FindInsertionRow(0)
	}
	cols := len(ds.Columns)
	if cols == 0 {
		_, cols = m.wb.Dims(m.sheet)
	}
	m.ClearRegion(start, len(ds.Rows)+1, cols)
	m.WriteDataset(start, ds)
}

// findHeaderRow returns the first row at or below MinScanRow whose
// leading cells equal the dataset's column names, or 0 when the sheet
// holds no earlier copy of this dataset.
func (m *Mutator) findHeaderRow(ds *Dataset) int {
	if len(ds.Columns) == 0 {
		return 0
	}
	k := len(ds.Columns)
	if k > m.opts.ScanCols {
		k = m.opts.ScanCols
	}
	maxRow, _ := m.wb.Dims(m.sheet)
	for row := m.opts.MinScanRow; row <= maxRow; row++ {
		match := true
		for col := 1; col <= k; col++ {
			if m.wb.CellString(m.sheet, row, col) != ds.Columns[col-1] {
				match = false
				break
			}
		}
		if match {
			return row
		}
	}
	return 0
}

// UpdateHeader rewrites the title and timestamp cells through the
// configured HeaderLocator.
func (m *Mutator) UpdateHeader(title, timestamp string) {
	m.Header.Update(m, title, timestamp)
}

// AddProcessingNote stamps the first empty cell in the top-right note
// area (rows 1-5, columns H-L). Best-effort.
func (m *Mutator) AddProcessingNote(timestamp string) {
	for row := 1; row <= 5; row++ {
		for col := 8; col <= 12; col++ {
			if m.wb.CellString(m.sheet, row, col) != "" {
				continue
			}
			if applied, err := m.wb.SetCell(m.sheet, row, col, "Processed: "+timestamp); err == nil && applied {
				m.log.Info("added processing note", "row", row, "col", col)
				return
			}
		}
	}
}

// HeaderLocator decides which cells receive the new title and
// timestamp. The keyword scan is fuzzy by nature, so it sits behind an
// interface a fixed-address strategy can replace.
type HeaderLocator interface {
	Update(m *Mutator, title, timestamp string)
}

// KeywordLocator scans the top-left header area for label-looking cells
// and overwrites them in place. It never adds rows.
type KeywordLocator struct{}

var (
	titleWords = []string{"balance", "benefit", "client", "fund", "sheet", "report"}
	stampWords = []string{"date", "generated", "updated", "time"}
)

func (KeywordLocator) Update(m *Mutator, title, timestamp string) {
	// An empty title means timestamp-only refresh.
	titleDone := title == ""
	for row := 1; row <= 5; row++ {
		for col := 1; col <= 5; col++ {
			text := strings.ToLower(m.wb.CellString(m.sheet, row, col))
			if text == "" {
				continue
			}
			if !titleDone && containsAny(text, titleWords) {
				if applied, _ := m.wb.SetCell(m.sheet, row, col, title); applied {
					m.log.Info("updated title cell", "row", row, "col", col)
					titleDone = true
				}
				continue
			}
			if containsAny(text, stampWords) {
				if applied, _ := m.wb.SetCell(m.sheet, row, col, "Updated: "+timestamp); applied {
					m.log.Info("updated timestamp cell", "row", row, "col", col)
				}
			}
		}
	}
	if titleDone {
		return
	}
	// No header found; fall back to the top-left corner.
	if applied, _ := m.wb.SetCell(m.sheet, 1, 1, title); applied {
		m.wb.SetCell(m.sheet, 2, 1, "Generated: "+timestamp)
		m.log.Info("added new header", "title", title)
	}
}

// FixedLocator writes the title and timestamp at known 1-indexed cells,
// for sheets whose layout is exact.
type FixedLocator struct {
	TitleRow, TitleCol int
	StampRow, StampCol int
}

func (l FixedLocator) Update(m *Mutator, title, timestamp string) {
	if l.TitleRow > 0 && l.TitleCol > 0 {
		m.wb.SetCell(m.sheet, l.TitleRow, l.TitleCol, title)
	}
	if l.StampRow > 0 && l.StampCol > 0 {
		m.wb.SetCell(m.sheet, l.StampRow, l.StampCol, "Updated: "+timestamp)
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
