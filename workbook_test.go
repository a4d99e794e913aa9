// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// newTestWorkbook writes an xlsx with the given sheet and cell values
// ("A1" style addressing) into dir and returns its path.
func newTestWorkbook(t *testing.T, dir, sheet string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for axis, v := range cells {
		if err := f.SetCellValue(sheet, axis, v); err != nil {
			t.Fatalf("set %s: %v", axis, err)
		}
	}
	path := filepath.Join(dir, "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "nope.xlsx")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v, want ErrNotFound", err)
	}

	garbage := filepath.Join(dir, "garbage.xlsx")
	if err := os.WriteFile(garbage, []byte("this is not a zip container"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(garbage); !errors.Is(err, ErrBadFormat) {
		t.Errorf("garbage file: got %v, want ErrBadFormat", err)
	}
}

func TestSheetResolution(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "SUMMARY", map[string]any{"A1": "x"})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	if name, err := wb.Sheet("SUMMARY"); err != nil || name != "SUMMARY" {
		t.Errorf("Sheet(SUMMARY) = %q, %v", name, err)
	}
	// Sheet names are case-sensitive.
	if _, err := wb.Sheet("summary"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Sheet(summary): got %v, want ErrSheetNotFound", err)
	}
	if got := wb.FirstSheet(); got != "SUMMARY" {
		t.Errorf("FirstSheet = %q", got)
	}
}

func TestSetCellTypes(t *testing.T) {
	path := newTestWorkbook(t, t.TempDir(), "Sheet1", nil)
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	for _, tc := range []struct {
		value any
		want  string
		row   int
	}{
		{value: "hello", want: "hello", row: 1},
		{value: 12.5, want: "12.5", row: 2},
		{value: 7, want: "7", row: 3},
		{value: Str("typed"), want: "typed", row: 4},
		{value: Num(3.25), want: "3.25", row: 5},
	} {
		applied, err := wb.SetCell("Sheet1", tc.row, 1, tc.value)
		if err != nil || !applied {
			t.Fatalf("SetCell(%v): applied=%t err=%v", tc.value, applied, err)
		}
		if got := wb.CellString("Sheet1", tc.row, 1); got != tc.want {
			t.Errorf("cell(%d,1) = %q, want %q", tc.row, got, tc.want)
		}
	}

	// Date cells keep a time value.
	when := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if applied, err := wb.SetCell("Sheet1", 6, 1, when); err != nil || !applied {
		t.Fatalf("date write: applied=%t err=%v", applied, err)
	}
	if got := wb.CellString("Sheet1", 6, 1); got == "" {
		t.Error("date cell is empty after write")
	}
}

func TestMergedRegionWritesAreNoOps(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Merged Title")
	if err := f.MergeCell("Sheet1", "A1", "C2"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "merged.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	// Every non-anchor member: applied=false, no error, display unchanged.
	for _, rc := range [][2]int{{1, 2}, {1, 3}, {2, 1}, {2, 2}, {2, 3}} {
		applied, err := wb.SetCell("Sheet1", rc[0], rc[1], "overwrite")
		if err != nil {
			t.Fatalf("merged member (%d,%d): %v", rc[0], rc[1], err)
		}
		if applied {
			t.Errorf("merged member (%d,%d): applied=true, want false", rc[0], rc[1])
		}
	}
	if got := wb.CellString("Sheet1", 1, 1); got != "Merged Title" {
		t.Errorf("merged display value = %q, want unchanged", got)
	}
	// The anchor stays writable.
	if applied, err := wb.SetCell("Sheet1", 1, 1, "New Title"); err != nil || !applied {
		t.Errorf("anchor write: applied=%t err=%v", applied, err)
	}
}

func TestDimsCoversMergedRegions(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "B3", "x")
	if err := f.MergeCell("Sheet1", "D5", "F8"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "dims.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	maxRow, maxCol := wb.Dims("Sheet1")
	if maxRow < 8 || maxCol < 6 {
		t.Errorf("Dims = (%d,%d), want at least (8,6) covering the merge", maxRow, maxCol)
	}
}

func TestSaveAsLeavesOriginalOnNewPath(t *testing.T) {
	dir := t.TempDir()
	path := newTestWorkbook(t, dir, "Sheet1", map[string]any{"A1": "v1"})
	wb, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	wb.SetCell("Sheet1", 1, 1, "v2")
	other := filepath.Join(dir, "copy.xlsx")
	if err := wb.SaveAs(other); err != nil {
		t.Fatal(err)
	}
	// No temp litter next to the destination.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "test.xlsx" && e.Name() != "copy.xlsx" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}

	saved, err := Open(other)
	if err != nil {
		t.Fatal(err)
	}
	defer saved.Close()
	if got := saved.CellString("Sheet1", 1, 1); got != "v2" {
		t.Errorf("saved cell = %q, want v2", got)
	}
}
