// Package report renders summaries as PDF statements and terminal dashboards.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"dompet/internal/core"

	"github.com/phpdave11/gofpdf"
)

const maxStatementRows = 300

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthLabel formats m as "Mei 2024".
func MonthLabel(m core.MonthKey) string {
	if m.Month < time.January || m.Month > time.December {
		return m.String()
	}
	return fmt.Sprintf("%s %d", monthNames[m.Month-1], m.Year)
}

// StatementPDF writes a one-month statement: totals, category breakdown and
// every transaction of the month.
func StatementPDF(w io.Writer, owner string, ov core.MonthOverview, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Laporan Keuangan "+MonthLabel(ov.Month))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Pengguna: "+tr(owner))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)
	sumW := []float64{60, 60, 62}
	pdf.CellFormat(sumW[0], 10, "Pemasukan", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Pengeluaran", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Saldo", "1", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, ov.Totals.Income.String(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, ov.Totals.Expense.String(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, ov.Totals.Balance.String(), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	if len(ov.ByCategory) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Pengeluaran per kategori")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, c := range ov.ByCategory {
			pdf.CellFormat(80, 7, tr(c.Category), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 7, c.Amount.String(), "1", 0, "R", false, 0, "")
			pdf.CellFormat(42, 7, c.Percent.StringFixed(2)+"%", "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	colW := []float64{34, 28, 40, 44, 36}
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		for i, h := range []string{"TANGGAL", "JENIS", "KATEGORI", "CATATAN", "JUMLAH"} {
			align := "L"
			if i == len(colW)-1 {
				align = "R"
			}
			ln := 0
			if i == len(colW)-1 {
				ln = 1
			}
			pdf.CellFormat(colW[i], 8, h, "1", ln, align, true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for i, tx := range ov.Items {
		if i >= maxStatementRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("... %d baris lainnya", len(ov.Items)-i), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}
		amount := tx.Amount.String()
		if tx.Kind == core.KindExpense {
			amount = "-" + amount
		}
		pdf.CellFormat(colW[0], 7, tx.Time.Format("2006-01-02 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 7, string(tx.Kind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 7, tr(trimTo(tx.Category, 22)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 7, tr(trimTo(tx.Note, 26)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[4], 7, amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Dibuat oleh dompet - "+generated.Format(time.RFC3339), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("build statement pdf: %w", err)
	}
	return nil
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
