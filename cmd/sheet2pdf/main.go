// Copyright 2026, Tamás Gulácsi.

// Command sheet2pdf is the headless fallback for the office bookkeeping
// workflow: it updates the client-funds worksheets from a benefits CSV
// and prints worksheet snapshots to PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/sheetpdf"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		slog.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	opts := sheetpdf.DefaultOptions()

	fs := flag.NewFlagSet("sheet2pdf", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	fs.StringVar(&opts.ClientFundsFile, "client-funds", opts.ClientFundsFile, "client funds workbook")
	fs.StringVar(&opts.DepositWithdrawalFile, "deposit-withdrawal", opts.DepositWithdrawalFile, "deposit & withdrawal workbook")
	fs.StringVar(&opts.ReconciliationFile, "reconciliation", opts.ReconciliationFile, "bank reconciliation workbook (.xls)")
	fs.IntVar(&opts.DefaultRow, "default-row", opts.DefaultRow, "fallback data insertion row")
	fs.DurationVar(&opts.ConvertTimeout, "convert-timeout", opts.ConvertTimeout, "office converter timeout")
	flagBinary := fs.String("soffice", "", "office suite binary (default: probe libreoffice/soffice/loffice)")

	newEngine := func(progress sheetpdf.ProgressFunc) *sheetpdf.Generator {
		conv := sheetpdf.NewConverter(opts.ConvertTimeout, logger)
		conv.Binary = *flagBinary
		return sheetpdf.NewGenerator(opts, nil, conv, logger, progress)
	}
	progress := func(percent int, message string) {
		logger.Info("progress", "percent", percent, "message", message)
	}

	balanceFS := flag.NewFlagSet("balance", flag.ContinueOnError)
	flagTitle := balanceFS.String("title", "Balance Report "+time.Now().Format("02/01/2006"), "report title")
	flagCharset := balanceFS.String("charset", "", "benefits CSV charset (default UTF-8)")
	balanceCmd := &ffcli.Command{
		Name:       "balance",
		ShortUsage: "sheet2pdf balance [flags] benefits.csv out.pdf",
		ShortHelp:  "update the ledger from a benefits CSV and print the balance PDF",
		FlagSet:    balanceFS,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return flag.ErrHelp
			}
			ds, err := sheetpdf.ReadCSV(args[0], *flagCharset)
			if err != nil {
				return err
			}
			rp := sheetpdf.NewReporter(newEngine(progress), opts, logger)
			if !rp.BalanceReport(ctx, ds, args[1], *flagTitle) {
				return errors.New("balance report failed")
			}
			return nil
		},
	}

	renderFS := flag.NewFlagSet("render", flag.ContinueOnError)
	flagSheet := renderFS.String("sheet", "", "worksheet name (default: first sheet)")
	flagRenderTitle := renderFS.String("title", "", "PDF title (default: sheet name)")
	renderCmd := &ffcli.Command{
		Name:       "render",
		ShortUsage: "sheet2pdf render [flags] workbook.xlsx out.pdf",
		ShortHelp:  "print one worksheet to PDF without updating it",
		FlagSet:    renderFS,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return flag.ErrHelp
			}
			gen := newEngine(progress)
			wb, err := gen.Converter().OpenLegacy(ctx, args[0])
			if err != nil {
				return err
			}
			defer wb.Close()
			ok := gen.Generate(ctx, sheetpdf.RenderJob{
				Workbook: wb, Sheet: *flagSheet,
				OutPDF: args[1], Title: *flagRenderTitle,
			})
			if !ok {
				return errors.New("render failed")
			}
			return nil
		},
	}

	app := ffcli.Command{Name: "sheet2pdf", FlagSet: fs,
		Subcommands: []*ffcli.Command{balanceCmd, renderCmd},
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}
