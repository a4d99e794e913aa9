// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package sheetpdf updates semi-structured Excel worksheets in place and
// prints them to PDF, either through a headless office suite or through a
// built-in table renderer.
package sheetpdf

import "time"

// Options configures worksheet mutation and rendering.
// The zero value of each field means its default.
type Options struct {
	// ClientFundsFile is the client ledger workbook.
	ClientFundsFile string
	// ReconciliationFile is the legacy (.xls) bank reconciliation workbook.
	ReconciliationFile string
	// DepositWithdrawalFile is the deposit & withdrawal workbook.
	DepositWithdrawalFile string

	// DefaultRow is where data insertion falls back to when no empty
	// scan window exists. Keeping this fixed forces overwrite-in-place
	// instead of appending past max_row on every run.
	//
	// The value matches the spreadsheets observed in production; confirm
	// it against the live files before changing.
	DefaultRow int
	// ClearMargin is how many rows past the dataset the clear pass
	// covers, absorbing dataset shrinkage between runs.
	ClearMargin int
	// ScanCols is how many leading columns must be empty for a row to
	// count as free.
	ScanCols int
	// MinScanRow is the first row considered for insertion.
	MinScanRow int

	// ConvertTimeout bounds the external converter subprocess.
	ConvertTimeout time.Duration
	// MinPDFSize is the smallest output accepted as a real PDF.
	MinPDFSize int64
	// MaxGenerations caps render attempts per (destination, title) key.
	MaxGenerations int

	// PageRows and PageCols cap the fallback renderer's grid per page.
	// Rows beyond PageRows flow onto following pages; columns beyond
	// PageCols are dropped.
	PageRows int
	PageCols int
	// CellRunes is the widest cell text the fallback table keeps before
	// truncating with "...".
	CellRunes int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		ClientFundsFile:       "Client Funds spreadsheet.xlsx",
		ReconciliationFile:    "LD Clients Cash  Bank Reconciliation.xls",
		DepositWithdrawalFile: "Deposit & Withdrawal Sheet.xlsx",

		DefaultRow:  10,
		ClearMargin: 10,
		ScanCols:    6,
		MinScanRow:  3,

		ConvertTimeout: 60 * time.Second,
		MinPDFSize:     1024,
		MaxGenerations: 5,

		PageRows:  40,
		PageCols:  10,
		CellRunes: 12,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ClientFundsFile == "" {
		o.ClientFundsFile = d.ClientFundsFile
	}
	if o.ReconciliationFile == "" {
		o.ReconciliationFile = d.ReconciliationFile
	}
	if o.DepositWithdrawalFile == "" {
		o.DepositWithdrawalFile = d.DepositWithdrawalFile
	}
	if o.DefaultRow <= 0 {
		o.DefaultRow = d.DefaultRow
	}
	if o.ClearMargin <= 0 {
		o.ClearMargin = d.ClearMargin
	}
	if o.ScanCols <= 0 {
		o.ScanCols = d.ScanCols
	}
	if o.MinScanRow <= 0 {
		o.MinScanRow = d.MinScanRow
	}
	if o.ConvertTimeout <= 0 {
		o.ConvertTimeout = d.ConvertTimeout
	}
	if o.MinPDFSize <= 0 {
		o.MinPDFSize = d.MinPDFSize
	}
	if o.MaxGenerations <= 0 {
		o.MaxGenerations = d.MaxGenerations
	}
	if o.PageRows <= 0 {
		o.PageRows = d.PageRows
	}
	if o.PageCols <= 0 {
		o.PageCols = d.PageCols
	}
	if o.CellRunes <= 0 {
		o.CellRunes = d.CellRunes
	}
	return o
}

// Timestamp is the display format used in headers and footers.
const Timestamp = "02/01/2006 15:04"

// DateFormat is how date cells are rendered in the fallback table.
const DateFormat = "02/01/2006"
