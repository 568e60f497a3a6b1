package tabular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"

	"github.com/xuri/excelize/v2"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"02/01/2006 15:04",
}

// Options controls how rows become transactions.
type Options struct {
	Format Format
	Policy Policy
	// DefaultOwner is used when a row has no user value.
	DefaultOwner string
	// Location interprets timestamps without an offset. Nil means time.Local.
	Location *time.Location
	// KnownCategory, when set, rejects rows whose category it does not know.
	KnownCategory func(name string) bool
}

// Sink receives each validated transaction in input order.
type Sink func(ctx context.Context, t core.Transaction) error

// Import reads a transaction table and hands every valid row to sink.
//
// Rows missing a required column value, with an unknown kind, an unparsable
// timestamp or (when KnownCategory is set) an unknown category are skipped
// and reported in Result.Skipped. An invalid amount either skips the row
// (PolicySkip) or stops the import with an error wrapping
// core.ErrInvalidAmount (PolicyAbort); rows already handed to sink stay.
func Import(ctx context.Context, r io.Reader, opts Options, sink Sink) (Result, error) {
	header, rows, err := readTable(r, opts.Format)
	if err != nil {
		return Result{}, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	index := map[string]int{}
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var res Result
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := i + 2
		if blank(row) {
			continue
		}
		cell := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		tx, rowErr := parseRow(cell, line, loc, opts)
		if rowErr != nil {
			if errors.Is(rowErr.Err, core.ErrInvalidAmount) && opts.Policy != PolicySkip {
				return res, *rowErr
			}
			res.Skipped = append(res.Skipped, *rowErr)
			continue
		}
		if err := sink(ctx, tx); err != nil {
			return res, fmt.Errorf("row %d: %w", line, err)
		}
		res.Imported++
	}
	return res, nil
}

func parseRow(cell func(string) string, line int, loc *time.Location, opts Options) (core.Transaction, *RowError) {
	for _, col := range requiredColumns {
		if cell(col) == "" {
			return core.Transaction{}, &RowError{Row: line, Column: col, Err: core.ErrMissingRequiredField}
		}
	}
	kind, err := core.ParseKind(cell(ColKind))
	if err != nil {
		return core.Transaction{}, &RowError{Row: line, Column: ColKind, Err: err}
	}
	ts, err := ParseTimestamp(cell(ColTimestamp), loc)
	if err != nil {
		return core.Transaction{}, &RowError{Row: line, Column: ColTimestamp, Err: err}
	}
	amount, err := core.ParseImportAmount(cell(ColAmount))
	if err != nil {
		return core.Transaction{}, &RowError{Row: line, Column: ColAmount, Err: err}
	}
	category := cell(ColCategory)
	if opts.KnownCategory != nil && !opts.KnownCategory(category) {
		return core.Transaction{}, &RowError{Row: line, Column: ColCategory,
			Err: fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)}
	}
	owner := cell(ColOwner)
	if owner == "" {
		owner = opts.DefaultOwner
	}
	return core.Transaction{
		Time:     ts,
		Kind:     kind,
		Amount:   amount,
		Category: category,
		Note:     cell(ColNote),
		Owner:    core.NormalizeOwner(owner),
	}, nil
}

// ParseTimestamp accepts the layouts written by common spreadsheet tools and
// Excel serial dates. Values without an offset are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidTimestamp, s)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
