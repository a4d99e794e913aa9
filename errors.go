// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the source file does not exist.
var ErrNotFound = errors.New("file not found")

// ErrBadFormat indicates the container could not be parsed as a spreadsheet.
var ErrBadFormat = errors.New("bad spreadsheet format")

// ErrSheetNotFound indicates the named sheet is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrConversionTimeout indicates the external converter exceeded its deadline.
var ErrConversionTimeout = errors.New("conversion timed out")

// ErrConversionFailed indicates the external converter ran but produced
// no usable output.
var ErrConversionFailed = errors.New("conversion failed")

// RenderError wraps a failure of one stage of a render request.
type RenderError struct {
	Err   error
	Path  string
	Stage string // "save", "convert", "verify", "render"
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q (%s): %v", e.Path, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
