// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Value is one scalar cell value: null, number, text or date.
// The zero Value is null.
type Value struct {
	date time.Time
	str  string
	num  float64
	kind byte // 0 null, 'n' number, 's' text, 'd' date
}

func Num(f float64) Value     { return Value{kind: 'n', num: f} }
func Str(s string) Value      { return Value{kind: 's', str: s} }
func Date(t time.Time) Value  { return Value{kind: 'd', date: t} }
func (v Value) IsNull() bool  { return v.kind == 0 }
func (v Value) IsDate() bool  { return v.kind == 'd' }
func (v Value) Float() (float64, bool) { return v.num, v.kind == 'n' }

// Any returns the underlying value for a typed cell write, nil for null.
func (v Value) Any() any {
	switch v.kind {
	case 'n':
		return v.num
	case 's':
		return v.str
	case 'd':
		return v.date
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case 'n':
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case 's':
		return v.str
	case 'd':
		return v.date.Format(DateFormat)
	}
	return ""
}

// Dataset is an ordered set of named columns over row-major values.
// The engine never mutates it.
type Dataset struct {
	Columns []string
	Rows    [][]Value
}

func (ds *Dataset) Empty() bool { return ds == nil || len(ds.Rows) == 0 }

// ParseValue classifies a raw text field: numeric-looking fields become
// numbers, DD/MM/YYYY and ISO dates become dates, empty fields null,
// everything else text.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return Num(f)
	}
	for _, layout := range []string{DateFormat, "2006-01-02", "02/01/2006 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t)
		}
	}
	return Str(s)
}

// ReadCSV reads a benefits CSV into a Dataset. The first record is the
// header; the separator is sniffed from the leading bytes; charset ""
// or "utf-8" means no transcoding.
func ReadCSV(path, charset string) (*Dataset, error) {
	enc, err := getEncoding(charset)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return nil, err
	}
	defer fh.Close()
	r := io.Reader(fh)
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	sep := rune(',')
	for _, r := range string(b) {
		if r == '"' || r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		sep = r
		break
	}

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%q: %w: %w", path, ErrBadFormat, err)
	}
	ds := &Dataset{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%q: %w", path, err)
		}
		row := make([]Value, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = ParseValue(rec[i])
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// DatasetFromSheet reads the sheet's first row as column names and the
// rest as data, classifying each field the same way ReadCSV does.
func DatasetFromSheet(wb *Workbook, sheet string) (*Dataset, error) {
	sheet, err := wb.Sheet(sheet)
	if err != nil {
		return nil, err
	}
	maxRow, maxCol := wb.Dims(sheet)
	if maxRow == 0 || maxCol == 0 {
		return &Dataset{}, nil
	}
	ds := &Dataset{Columns: make([]string, maxCol)}
	for c := 1; c <= maxCol; c++ {
		ds.Columns[c-1] = wb.CellString(sheet, 1, c)
	}
	for r := 2; r <= maxRow; r++ {
		row := make([]Value, maxCol)
		for c := 1; c <= maxCol; c++ {
			row[c-1] = ParseValue(wb.CellString(sheet, r, c))
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func getEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}
