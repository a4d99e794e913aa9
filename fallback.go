// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
)

// sheetGrid snapshots the sheet's visible content as text rows.
// Rows with no content are dropped; dates are reformatted to
// DD/MM/YYYY; cells in money columns get a currency prefix and two
// decimals; text longer than CellRunes runes is truncated with "...".
// Columns beyond PageCols are dropped, which keeps pagination purely
// vertical and deterministic.
func sheetGrid(wb *Workbook, sheet string, opts Options) [][]string {
	maxRow, maxCol := wb.Dims(sheet)
	if maxCol > opts.PageCols {
		maxCol = opts.PageCols
	}
	var grid [][]string
	var money []bool
	for r := 1; r <= maxRow; r++ {
		row := make([]string, maxCol)
		empty := true
		for c := 1; c <= maxCol; c++ {
			s := wb.CellString(sheet, r, c)
			if s == "" {
				continue
			}
			empty = false
			if money == nil { // header row decides which columns are monetary
				row[c-1] = truncateCell(s, opts.CellRunes)
				continue
			}
			row[c-1] = formatGridCell(s, money[c-1], opts.CellRunes)
		}
		if empty {
			continue
		}
		if money == nil {
			money = make([]bool, maxCol)
			for c, h := range row {
				money[c] = isMoneyColumn(h)
			}
		}
		grid = append(grid, row)
	}
	return grid
}

var moneyWords = []string{"balance", "amount", "total", "£"}

func isMoneyColumn(header string) bool {
	return containsAny(strings.ToLower(header), moneyWords)
}

func formatGridCell(s string, money bool, maxRunes int) string {
	v := ParseValue(s)
	if v.IsDate() {
		return v.String()
	}
	if f, ok := v.Float(); ok && money {
		return fmt.Sprintf("£%.2f", f)
	}
	return truncateCell(s, maxRunes)
}

func truncateCell(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

// renderGridPDF reproduces the grid as a paged, bordered table: a title
// line, bold header row repeated on every page, at most PageRows data
// rows per page and a generation timestamp footer.
func renderGridPDF(grid [][]string, title, outPDF string, opts Options) error {
	if len(grid) == 0 {
		return fmt.Errorf("worksheet is empty: %w", ErrConversionFailed)
	}
	headers, contents := grid[0], grid[1:]
	gridSizes := computeGridSizes(grid)

	m := pdf.NewMaroto(consts.Landscape, consts.A4)
	m.SetPageMargins(10, 15, 10)
	alternate := color.Color{Red: 230, Green: 230, Blue: 230}
	generated := time.Now().Format(Timestamp)
	m.RegisterFooter(func() {
		m.Row(6, func() {
			m.Col(12, func() {
				m.Text("Generated: "+generated, props.Text{
					Size: 8, Align: consts.Center, Top: 2,
				})
			})
		})
	})

	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(title, props.Text{
				Style: consts.Bold, Size: 14, Align: consts.Center,
			})
		})
	})

	for start := 0; start < len(contents) || start == 0; start += opts.PageRows {
		if start > 0 {
			m.AddPage()
		}
		end := start + opts.PageRows
		if end > len(contents) {
			end = len(contents)
		}
		m.TableList(headers, contents[start:end], props.TableList{
			HeaderProp: props.TableListContent{
				Family:    consts.Arial,
				Style:     consts.Bold,
				Size:      9,
				GridSizes: gridSizes,
			},
			ContentProp: props.TableListContent{
				Family:    consts.Courier,
				Size:      8,
				GridSizes: gridSizes,
			},
			Align:                consts.Left,
			AlternatedBackground: &alternate,
			HeaderContentSpace:   4,
			Line:                 true,
		})
	}
	return m.OutputFileAndClose(outPDF)
}

// computeGridSizes distributes maroto's 12 grid columns over the
// table's columns in proportion to their content width.
func computeGridSizes(grid [][]string) []uint {
	cols := len(grid[0])
	if cols == 0 {
		return nil
	}
	widths := make([]float64, cols)
	var total float64
	for _, row := range grid {
		for i, s := range row {
			if i < cols {
				widths[i] += float64(len(s))
			}
		}
	}
	for _, w := range widths {
		total += w
	}
	sizes := make([]uint, cols)
	var used uint
	for i, w := range widths {
		s := uint(1)
		if total > 0 {
			if p := uint(w / total * 12); p > 1 {
				s = p
			}
		}
		sizes[i] = s
		used += s
	}
	// Clamp overflow so the sizes fit maroto's 12-column grid.
	for used > 12 {
		shrunk := false
		for i := 0; i < cols && used > 12; i++ {
			if sizes[i] > 1 {
				sizes[i]--
				used--
				shrunk = true
			}
		}
		if !shrunk {
			break
		}
	}
	if used < 12 {
		sizes[cols-1] += 12 - used
	}
	return sizes
}
