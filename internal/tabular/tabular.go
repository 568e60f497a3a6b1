// Package tabular imports transactions from CSV/XLSX files and exports
// records in the same column layout.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Column names of the transaction file format.
const (
	ColTimestamp = "tanggal"
	ColKind      = "jenis"
	ColAmount    = "jumlah"
	ColCategory  = "kategori"
	ColNote      = "catatan"
	ColOwner     = "user"
)

// TimestampLayout is used when writing timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

var requiredColumns = []string{ColTimestamp, ColKind, ColAmount, ColCategory}

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Policy decides what an invalid amount does to the rest of an import.
type Policy string

const (
	PolicyAbort Policy = "abort"
	PolicySkip  Policy = "skip"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q (want csv or xlsx)", s)
}

// FormatFromName derives the format from a file extension.
func FormatFromName(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	}
	return "", fmt.Errorf("invalid import policy %q (want abort or skip)", s)
}

// RowError describes why one input row was not imported. Row is the 1-based
// line number in the source, header included.
type RowError struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Err    error  `json:"-"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result summarizes an import.
type Result struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped"`
}
