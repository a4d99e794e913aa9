// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func benefitsDataset() *Dataset {
	return &Dataset{
		Columns: []string{"Client", "Balance", "Date"},
		Rows: [][]Value{
			{Str("Test Client 1"), Num(1000), Date(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))},
			{Str("Test Client 2"), Num(2000), Date(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))},
		},
	}
}

func TestWriteDataset(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", nil)
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	m := NewMutator(wb, "Sheet1", Options{}, nil)
	ds := benefitsDataset()
	m.WriteDataset(6, ds)

	for col, want := range []string{"Client", "Balance", "Date"} {
		if got := wb.CellString("Sheet1", 6, col+1); got != want {
			t.Errorf("header cell(6,%d) = %q, want %q", col+1, got, want)
		}
	}
	if got := wb.CellString("Sheet1", 7, 1); got != "Test Client 1" {
		t.Errorf("cell(7,1) = %q", got)
	}
	if got := wb.CellString("Sheet1", 7, 2); got != "1000" {
		t.Errorf("cell(7,2) = %q", got)
	}
	if got := wb.CellString("Sheet1", 8, 1); got != "Test Client 2" {
		t.Errorf("cell(8,1) = %q", got)
	}
	// The row below the dataset stays empty.
	for col := 1; col <= 3; col++ {
		if got := wb.CellString("Sheet1", 9, col); got != "" {
			t.Errorf("cell(9,%d) = %q, want empty", col, got)
		}
	}
}

func TestWriteDatasetSkipsNulls(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", map[string]any{"B7": "keep"})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	ds := &Dataset{
		Columns: []string{"A", "B"},
		Rows:    [][]Value{{Str("x"), {}}},
	}
	NewMutator(wb, "Sheet1", Options{}, nil).WriteDataset(6, ds)

	// The null is not written as "None"/"nan" text; the cell keeps its
	// prior content.
	if got := wb.CellString("Sheet1", 7, 2); got != "keep" {
		t.Errorf("null overwrote cell: %q", got)
	}
}

func TestFindInsertionRow(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", map[string]any{
		"A1": "Client Funds", "A3": "x", "B3": "y", "A5": "x",
	})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	m := NewMutator(wb, "Sheet1", Options{}, nil)
	if got := m.FindInsertionRow(3); got != 4 {
		t.Errorf("FindInsertionRow = %d, want 4 (first row with empty scan window)", got)
	}
}

func TestFindInsertionRowBounded(t *testing.T) {
	// A worksheet whose every row is occupied must fall back to the
	// fixed default, never to a value tracking max_row.
	dir := t.TempDir()
	f := excelize.NewFile()
	const maxRow = 10000
	for r := 1; r <= maxRow; r++ {
		axis, _ := excelize.CoordinatesToCellName(1, r)
		f.SetCellStr("Sheet1", axis, "existing")
	}
	path := filepath.Join(dir, "full.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	opts := DefaultOptions()
	got := NewMutator(wb, "Sheet1", opts, nil).FindInsertionRow(0)
	if got != opts.DefaultRow {
		t.Errorf("FindInsertionRow = %d, want fixed default %d", got, opts.DefaultRow)
	}
	if got >= maxRow {
		t.Errorf("FindInsertionRow = %d tracks max_row, must stay bounded", got)
	}
}

func TestClearRegionSkipsMerged(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A6", "data")
	f.SetCellValue("Sheet1", "B6", "more")
	f.SetCellValue("Sheet1", "A8", "Merged Block")
	if err := f.MergeCell("Sheet1", "A8", "B9"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "clear.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	NewMutator(wb, "Sheet1", Options{}, nil).ClearRegion(6, 1, 4)
	if got := wb.CellString("Sheet1", 6, 1); got != "" {
		t.Errorf("cell(6,1) = %q, want cleared", got)
	}
	if got := wb.CellString("Sheet1", 6, 2); got != "" {
		t.Errorf("cell(6,2) = %q, want cleared", got)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "SUMMARY", map[string]any{
		"A1": "Client Funds Balance",
		"A2": "Date generated",
		"A3": "Account: 40-22-31 00614352",
		"B4": "Week 23",
		"A5": "Figures in GBP",
	})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	ds := benefitsDataset()
	m := NewMutator(wb, "SUMMARY", Options{}, nil)
	m.Update(ds, "Balance Report", "01/06/2026 09:00")
	rowsAfterFirst, _ := wb.Dims("SUMMARY")
	first := snapshotCells(wb, "SUMMARY", rowsAfterFirst+2, 6)

	m.Update(ds, "Balance Report", "01/06/2026 09:00")
	rowsAfterSecond, _ := wb.Dims("SUMMARY")
	second := snapshotCells(wb, "SUMMARY", rowsAfterFirst+2, 6)

	if rowsAfterSecond > rowsAfterFirst {
		t.Errorf("max row grew from %d to %d: update duplicated rows", rowsAfterFirst, rowsAfterSecond)
	}
	if first != second {
		t.Errorf("cell contents differ between runs:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func snapshotCells(wb *Workbook, sheet string, rows, cols int) string {
	var out string
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			if s := wb.CellString(sheet, r, c); s != "" {
				out += fmt.Sprintf("(%d,%d)=%s\n", r, c, s)
			}
		}
	}
	return out
}

func TestKeywordHeaderUpdate(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", map[string]any{
		"A1": "Client Funds Sheet",
		"B2": "Date: 01/01/2020",
		"D4": "some other label",
	})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	m := NewMutator(wb, "Sheet1", Options{}, nil)
	m.UpdateHeader("Balance before benefits", "02/06/2026 10:30")

	if got := wb.CellString("Sheet1", 1, 1); got != "Balance before benefits" {
		t.Errorf("title cell = %q", got)
	}
	if got := wb.CellString("Sheet1", 2, 2); got != "Updated: 02/06/2026 10:30" {
		t.Errorf("timestamp cell = %q", got)
	}
	if got := wb.CellString("Sheet1", 4, 4); got != "some other label" {
		t.Errorf("unrelated cell changed: %q", got)
	}
}

func TestKeywordHeaderFallsBackToTopLeft(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", nil)
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	NewMutator(wb, "Sheet1", Options{}, nil).UpdateHeader("New Report", "02/06/2026 10:30")
	if got := wb.CellString("Sheet1", 1, 1); got != "New Report" {
		t.Errorf("A1 = %q", got)
	}
	if got := wb.CellString("Sheet1", 2, 1); got != "Generated: 02/06/2026 10:30" {
		t.Errorf("A2 = %q", got)
	}
}

func TestFixedLocator(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", map[string]any{"A1": "Balance Sheet"})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	m := NewMutator(wb, "Sheet1", Options{}, nil)
	m.Header = FixedLocator{TitleRow: 3, TitleCol: 2, StampRow: 4, StampCol: 2}
	m.UpdateHeader("Exact Title", "ts")

	if got := wb.CellString("Sheet1", 3, 2); got != "Exact Title" {
		t.Errorf("fixed title cell = %q", got)
	}
	// The keyword-looking A1 is left alone.
	if got := wb.CellString("Sheet1", 1, 1); got != "Balance Sheet" {
		t.Errorf("A1 = %q, want untouched", got)
	}
}

func TestAddProcessingNote(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", map[string]any{"H1": "busy"})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	NewMutator(wb, "Sheet1", Options{}, nil).AddProcessingNote("03/06/2026 08:00")
	if got := wb.CellString("Sheet1", 1, 9); got != "Processed: 03/06/2026 08:00" {
		t.Errorf("note cell I1 = %q", got)
	}
	if got := wb.CellString("Sheet1", 1, 8); got != "busy" {
		t.Errorf("H1 = %q, want untouched", got)
	}
}
