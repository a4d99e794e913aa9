// Copyright 2026, Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetpdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Converter drives a headless office suite for format conversion.
// The zero value probes the usual LibreOffice binary names on first use.
type Converter struct {
	log *slog.Logger
	// Binary overrides discovery; set it to a nonexistent name to force
	// the fallback renderer.
	Binary  string
	Timeout time.Duration

	found    string
	searched bool
}

// NewConverter returns a Converter with the given subprocess timeout.
func NewConverter(timeout time.Duration, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultOptions().ConvertTimeout
	}
	return &Converter{Timeout: timeout, log: log}
}

// candidate binary names, most common first.
var sofficeNames = []string{"libreoffice", "soffice", "loffice"}

// binary resolves the converter executable: the explicit override, the
// system PATH, then well-known per-OS install directories.
func (c *Converter) binary() (string, bool) {
	if c.searched {
		return c.found, c.found != ""
	}
	c.searched = true
	names := sofficeNames
	if c.Binary != "" {
		names = []string{c.Binary}
	}
	for _, name := range names {
		if runtime.GOOS == "windows" && filepath.Ext(name) != ".exe" {
			name += ".exe"
		}
		if p, err := exec.LookPath(name); err == nil {
			c.found = p
			return p, true
		}
		for _, dir := range sofficeDirs() {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				c.found = p
				return p, true
			}
		}
	}
	return "", false
}

func sofficeDirs() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"/usr/bin", "/usr/local/bin", "/snap/bin", "/opt/libreoffice/program"}
	case "darwin":
		return []string{
			"/Applications/LibreOffice.app/Contents/MacOS",
			"/opt/homebrew/bin", "/usr/local/bin",
		}
	case "windows":
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return []string{filepath.Join(pf, "LibreOffice", "program")}
	}
	return nil
}

// Available reports whether the external converter can be invoked.
func (c *Converter) Available() bool {
	_, ok := c.binary()
	return ok
}

// Convert runs the office suite headless, converting src into format
// ("pdf", "xlsx") inside outDir, and returns the produced file's path
// (the source stem with the new extension). The subprocess is bounded
// by the Converter's timeout; overruns map to ErrConversionTimeout and
// an exit failure or missing output to ErrConversionFailed.
func (c *Converter) Convert(ctx context.Context, src, format, outDir string) (string, error) {
	bin, ok := c.binary()
	if !ok {
		return "", fmt.Errorf("office suite binary: %w", ErrNotFound)
	}
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	outAbs, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(outAbs, 0o755); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin,
		"--headless", "--invisible", "--nodefault", "--nolockcheck",
		"--nologo", "--norestore",
		"--convert-to", format, "--outdir", outAbs, srcAbs)
	// LibreOffice must not try to reach an X display.
	cmd.Env = append(os.Environ(), "DISPLAY=")
	var stderr strings.Builder
	cmd.Stderr = &stderr

	c.log.Info("running office converter", "binary", bin, "format", format, "src", srcAbs)
	if err = cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s after %s: %w", bin, c.Timeout, ErrConversionTimeout)
		}
		return "", fmt.Errorf("%s: %w: %w (%s)", bin, ErrConversionFailed, err, strings.TrimSpace(stderr.String()))
	}

	out := filepath.Join(outAbs, stem(srcAbs)+"."+format)
	if _, err = os.Stat(out); err != nil {
		return "", fmt.Errorf("expected output %q: %w", out, ErrConversionFailed)
	}
	return out, nil
}

// ToXLSX converts a legacy .xls workbook into a .xlsx working copy in
// outDir and returns its path.
func (c *Converter) ToXLSX(ctx context.Context, xlsPath, outDir string) (string, error) {
	return c.Convert(ctx, xlsPath, "xlsx", outDir)
}

// OpenLegacy opens path regardless of variant: .xlsx directly, .xls by
// first converting a working copy. Changes to a legacy workbook are
// saved to the converted copy, never back to the .xls original.
func (c *Converter) OpenLegacy(ctx context.Context, path string) (*Workbook, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xls") {
		return Open(path)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return nil, err
	}
	converted, err := c.ToXLSX(ctx, path, os.TempDir())
	if err != nil {
		return nil, fmt.Errorf("convert %q: %w", path, err)
	}
	wb, err := Open(converted)
	if err != nil {
		os.Remove(converted)
		return nil, err
	}
	return wb, nil
}

// moveFile renames src to dst, copying across devices when rename fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
