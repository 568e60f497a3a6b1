package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"dompet/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Kind names an exportable record collection.
type Kind string

const (
	KindTransactions Kind = "transactions"
	KindSavings      Kind = "savings"
	KindWishlist     Kind = "wishlist"
	KindDebts        Kind = "debts"
	KindTasks        Kind = "tasks"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindTransactions, KindSavings, KindWishlist, KindDebts, KindTasks:
		return k, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// Table is a header plus rows. Cells are strings, decimals or numbers.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

func TransactionsTable(txns []core.Transaction) Table {
	t := Table{Sheet: "Transaksi", Header: []string{ColTimestamp, ColKind, ColAmount, ColCategory, ColNote, ColOwner}}
	for _, tx := range txns {
		t.Rows = append(t.Rows, []any{
			tx.Time.Format(TimestampLayout), string(tx.Kind), tx.Amount.Decimal(), tx.Category, tx.Note, tx.Owner,
		})
	}
	return t
}

func SavingsTable(deposits []core.SavingsDeposit) Table {
	t := Table{Sheet: "Tabungan", Header: []string{ColTimestamp, ColAmount, ColOwner}}
	for _, d := range deposits {
		t.Rows = append(t.Rows, []any{d.Time.Format(TimestampLayout), d.Amount.Decimal(), d.Owner})
	}
	return t
}

func WishlistTable(items []core.WishlistItem) Table {
	t := Table{Sheet: "Wishlist", Header: []string{"nama", "harga", ColNote, ColOwner}}
	for _, w := range items {
		t.Rows = append(t.Rows, []any{w.Name, w.Price.Decimal(), w.Note, w.Owner})
	}
	return t
}

func DebtsTable(debts []core.Debt) Table {
	t := Table{Sheet: "Hutang", Header: []string{"nama", ColAmount, "arah", ColNote, ColOwner}}
	for _, d := range debts {
		t.Rows = append(t.Rows, []any{d.Counterparty, d.Amount.Decimal(), string(d.Direction), d.Note, d.Owner})
	}
	return t
}

func TasksTable(tasks []core.Task) Table {
	t := Table{Sheet: "Tugas", Header: []string{"judul", "deadline", "status", ColOwner}}
	for _, task := range tasks {
		t.Rows = append(t.Rows, []any{task.Title, task.Deadline.Format("2006-01-02"), string(task.Status), task.Owner})
	}
	return t
}

// Write encodes t in format f.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case CSV:
		return writeCSV(w, t)
	case XLSX:
		return writeXLSX(w, t)
	}
	return fmt.Errorf("unsupported format %q", f)
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = fmt.Sprint(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if d, ok := v.(decimal.Decimal); ok {
				v = d.InexactFloat64()
			}
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
