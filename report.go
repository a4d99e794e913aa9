// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Reporter is the procedure-facing surface: it knows which workbook and
// sheet each report title belongs to, updates the sheet and renders the
// snapshot. Every entry point answers with a boolean the way Generate
// does.
type Reporter struct {
	log  *slog.Logger
	gen  *Generator
	opts Options
}

// NewReporter wires a Reporter around gen.
func NewReporter(gen *Generator, opts Options, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{gen: gen, opts: opts.withDefaults(), log: log}
}

// ReconItem is one reconciliation figure.
type ReconItem struct {
	Key   string
	Value string
}

// BalanceReport updates the worksheet belonging to title and prints it
// to outPDF. Titles mentioning benefits go to the deposit & withdrawal
// workbook's BENEFITS sheet; balance snapshots before/after benefits
// (and anything else) go to the client funds SUMMARY sheet.
func (rp *Reporter) BalanceReport(ctx context.Context, ds *Dataset, outPDF, title string) bool {
	ts := time.Now().Format(Timestamp)
	rp.log.Info("creating balance report", "title", title, "out", outPDF)

	lower := strings.ToLower(title)
	file, sheet := rp.opts.ClientFundsFile, "SUMMARY"
	if strings.Contains(lower, "benefits") &&
		!strings.Contains(lower, "before benefits") && !strings.Contains(lower, "after benefits") {
		file, sheet = rp.opts.DepositWithdrawalFile, "BENEFITS"
	}
	return rp.updateAndPrint(ctx, file, sheet, ds, outPDF, title, ts)
}

// updateAndPrint loads file, projects ds onto sheet, saves the original
// (a failed save is logged and the render still runs, matching the
// procedure's audit-first behavior) and renders the snapshot. A missing
// source file degrades to a fresh single-sheet workbook so the audit
// trail still gets its PDF.
func (rp *Reporter) updateAndPrint(ctx context.Context, file, sheet string, ds *Dataset, outPDF, title, ts string) bool {
	wb, err := Open(file)
	if err != nil {
		rp.log.Warn("source workbook unavailable, creating fallback workbook", "file", file, "error", err)
		return rp.printNewWorkbook(ctx, ds, outPDF, title, ts)
	}
	defer wb.Close()

	name, err := wb.Sheet(sheet)
	if err != nil {
		name = wb.FirstSheet()
		rp.log.Warn("sheet not found, using first sheet", "wanted", sheet, "using", name)
	}

	m := NewMutator(wb, name, rp.opts, rp.log)
	if !ds.Empty() {
		m.Update(ds, title, ts)
	} else {
		m.UpdateHeader(title, ts)
	}
	m.AddProcessingNote(ts)

	if err := wb.Save(); err != nil {
		rp.log.Error("could not save updated workbook, continuing with render", "file", file, "error", err)
	}
	return rp.gen.Generate(ctx, RenderJob{Workbook: wb, Sheet: name, OutPDF: outPDF, Title: title})
}

// printNewWorkbook builds a fresh workbook carrying ds and a note that
// the original could not be updated, then renders it.
func (rp *Reporter) printNewWorkbook(ctx context.Context, ds *Dataset, outPDF, title, ts string) bool {
	wb := New("Benefits Processing")
	defer wb.Close()
	sheet := wb.FirstSheet()
	wb.SetCell(sheet, 1, 1, title)
	wb.SetCell(sheet, 2, 1, "Generated: "+ts)
	wb.SetCell(sheet, 3, 1, "Note: created as fallback, original worksheet could not be updated")
	if ds != nil && (len(ds.Rows) > 0 || len(ds.Columns) > 0) {
		NewMutator(wb, sheet, rp.opts, rp.log).WriteDataset(5, ds)
	}
	return rp.gen.Generate(ctx, RenderJob{Workbook: wb, Sheet: sheet, OutPDF: outPDF, Title: title})
}

// ReconciliationReport updates the bank reconciliation workbook (a
// legacy .xls, read through the external converter) with the given
// figures and prints it. When the file is missing or cannot be
// converted, a fresh workbook carries the figures instead.
func (rp *Reporter) ReconciliationReport(ctx context.Context, items []ReconItem, outPDF string) bool {
	ts := time.Now().Format(Timestamp)
	rp.log.Info("creating reconciliation report", "file", rp.opts.ReconciliationFile, "out", outPDF)

	wb, err := rp.gen.Converter().OpenLegacy(ctx, rp.opts.ReconciliationFile)
	if err != nil {
		rp.log.Warn("reconciliation workbook unavailable, creating fallback workbook", "error", err)
		return rp.printNewReconciliation(ctx, items, outPDF, ts)
	}
	defer wb.Close()
	sheet := wb.FirstSheet()

	// Refresh any date-looking header cell in place.
	m := NewMutator(wb, sheet, rp.opts, rp.log)
	m.UpdateHeader("", ts)

	// The figures go below the existing content as a dated block.
	maxRow, _ := wb.Dims(sheet)
	row := maxRow + 2
	wb.SetCell(sheet, row, 1, fmt.Sprintf("=== Reconciliation Update %s ===", ts))
	for i, it := range items {
		wb.SetCell(sheet, row+1+i, 1, it.Key+":")
		wb.SetCell(sheet, row+1+i, 2, it.Value)
	}
	if err := wb.Save(); err != nil {
		rp.log.Error("could not save reconciliation working copy", "error", err)
	}
	return rp.gen.Generate(ctx, RenderJob{Workbook: wb, Sheet: sheet, OutPDF: outPDF, Title: "Bank Reconciliation"})
}

func (rp *Reporter) printNewReconciliation(ctx context.Context, items []ReconItem, outPDF, ts string) bool {
	wb := New("Bank Reconciliation")
	defer wb.Close()
	sheet := wb.FirstSheet()
	wb.SetCell(sheet, 1, 1, "LD Clients Cash Bank Reconciliation")
	wb.SetCell(sheet, 2, 1, "Generated: "+ts)
	wb.SetCell(sheet, 3, 1, "Note: created as fallback, original .xls file could not be updated")
	for i, it := range items {
		wb.SetCell(sheet, 5+i, 1, it.Key+":")
		wb.SetCell(sheet, 5+i, 2, it.Value)
	}
	return rp.gen.Generate(ctx, RenderJob{Workbook: wb, Sheet: sheet, OutPDF: outPDF, Title: "Bank Reconciliation"})
}
