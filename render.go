// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ProgressFunc reports render progress to the caller's UI.
// percent runs 0-100.
type ProgressFunc func(percent int, message string)

// RenderJob describes one render request. It lives for a single
// Generate call.
type RenderJob struct {
	// Workbook is the (already mutated) source document.
	Workbook *Workbook
	// Sheet is rendered; when it does not exist the first sheet is used.
	Sheet string
	// OutPDF is the destination path.
	OutPDF string
	// Title keys the throttle together with OutPDF and titles the
	// fallback rendering.
	Title string
}

// Generator renders worksheets to PDF. It prefers the external office
// converter and falls back to the built-in table renderer; internal
// failures never escape Generate, which only ever answers with a
// boolean so a long procedural caller can keep stepping.
type Generator struct {
	log      *slog.Logger
	progress ProgressFunc
	throttle *Throttle
	conv     *Converter
	opts     Options
}

// NewGenerator wires a Generator. throttle and conv may be nil, in
// which case fresh ones are created from opts; log and progress are
// optional collaborators owned by the caller.
func NewGenerator(opts Options, throttle *Throttle, conv *Converter, log *slog.Logger, progress ProgressFunc) *Generator {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	if throttle == nil {
		throttle = NewThrottle(opts.MaxGenerations, log)
	}
	if conv == nil {
		conv = NewConverter(opts.ConvertTimeout, log)
	}
	return &Generator{opts: opts, throttle: throttle, conv: conv, log: log, progress: progress}
}

func (g *Generator) report(percent int, message string) {
	if g.progress != nil {
		g.progress(percent, message)
	}
}

// Generate runs the render state machine for job: throttle gate,
// disposable working copy, external conversion, then the built-in
// renderer when the external tool is unavailable or its output fails
// verification. A throttled request is a successful no-op.
func (g *Generator) Generate(ctx context.Context, job RenderJob) bool {
	if !g.throttle.Allow(job.OutPDF, job.Title) {
		return true
	}
	g.log.Info("rendering worksheet to PDF", "sheet", job.Sheet, "out", job.OutPDF)

	sheet, err := job.Workbook.Sheet(job.Sheet)
	if err != nil {
		sheet = job.Workbook.FirstSheet()
		if sheet == "" {
			g.log.Error("workbook has no sheets", "out", job.OutPDF)
			return false
		}
		g.log.Warn("sheet not found, using first sheet", "wanted", job.Sheet, "using", sheet)
	}

	g.report(30, "Saving working copy")
	work := filepath.Join(os.TempDir(), fmt.Sprintf("%s_temp_%s.%d.xlsx",
		stem(job.OutPDF), time.Now().Format("150405"), os.Getpid()))
	if err := job.Workbook.SaveCopy(work); err != nil {
		g.log.Error("could not save working copy", "error", &RenderError{Err: err, Path: work, Stage: "save"})
		return false
	}
	defer func() {
		if err := os.Remove(work); err != nil {
			g.log.Warn("could not remove working copy", "path", work, "error", err)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(job.OutPDF), 0o755); err != nil {
		g.log.Error("could not create output directory", "error", err)
		return false
	}

	g.report(50, "Converting to PDF")
	if g.convertExternal(ctx, work, job.OutPDF) {
		g.report(100, "PDF ready: "+filepath.Base(job.OutPDF))
		return true
	}

	g.report(70, "Rendering built-in PDF")
	if err := g.renderFallback(job.Workbook, sheet, job.Title, job.OutPDF); err != nil {
		g.log.Error("fallback render failed", "error", &RenderError{Err: err, Path: job.OutPDF, Stage: "render"})
		return false
	}
	if !g.verify(job.OutPDF) {
		return false
	}
	g.report(100, "PDF ready: "+filepath.Base(job.OutPDF))
	return true
}

// convertExternal is strategy A: office suite conversion of the working
// copy, the same-stem output moved onto the destination, then size
// verification. Any failure hands over to the fallback.
func (g *Generator) convertExternal(ctx context.Context, work, outPDF string) bool {
	if !g.conv.Available() {
		g.log.Info("office converter not found, using built-in renderer")
		return false
	}
	produced, err := g.conv.Convert(ctx, work, "pdf", filepath.Dir(outPDF))
	if err != nil {
		g.log.Warn("external conversion failed", "error", &RenderError{Err: err, Path: work, Stage: "convert"})
		return false
	}
	if abs, err := filepath.Abs(outPDF); err == nil && produced != abs {
		if err = moveFile(produced, outPDF); err != nil {
			g.log.Warn("could not move converted PDF", "from", produced, "to", outPDF, "error", err)
			return false
		}
	}
	return g.verify(outPDF)
}

// verify accepts the destination only when it exists and is plausibly a
// real PDF; an empty or missing output is a failure, not a success.
func (g *Generator) verify(outPDF string) bool {
	fi, err := os.Stat(outPDF)
	if err != nil || fi.Size() < g.opts.MinPDFSize {
		var size int64
		if fi != nil {
			size = fi.Size()
		}
		g.log.Warn("output PDF missing or too small",
			"path", outPDF, "size", size, "min", g.opts.MinPDFSize,
			"error", &RenderError{Err: ErrConversionFailed, Path: outPDF, Stage: "verify"})
		return false
	}
	g.log.Info("PDF written", "path", outPDF, "size", fi.Size())
	return true
}

// renderFallback is strategy B: the worksheet grid rendered as a paged
// bordered table. An empty worksheet is an error, not a blank file.
func (g *Generator) renderFallback(wb *Workbook, sheet, title, outPDF string) error {
	grid := sheetGrid(wb, sheet, g.opts)
	if len(grid) == 0 {
		return fmt.Errorf("sheet %q: %w", sheet, ErrConversionFailed)
	}
	if title == "" {
		title = sheet
	}
	return renderGridPDF(grid, title, outPDF, g.opts)
}

// Throttle exposes the generator's throttle, letting the caller inspect
// or reset it.
func (g *Generator) Throttle() *Throttle { return g.throttle }

// Converter exposes the external converter, e.g. for legacy workbook
// opening.
func (g *Generator) Converter() *Converter { return g.conv }
