package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dompet/internal/core"
)

func sampleOverview() core.MonthOverview {
	txns := []core.Transaction{
		{Time: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), Kind: core.KindIncome, Amount: core.Money{Cents: 10000000}, Category: "Uang Saku", Owner: "May"},
		{Time: time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC), Kind: core.KindExpense, Amount: core.Money{Cents: 3000000}, Category: "Makanan", Note: "café", Owner: "May"},
	}
	return core.Overview(txns, core.MonthKey{Year: 2024, Month: time.May})
}

func TestStatementPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := StatementPDF(&buf, "May", sampleOverview(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(core.MonthKey{Year: 2024, Month: time.May}); got != "Mei 2024" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderDashboard(t *testing.T) {
	ov := sampleOverview()
	st, err := core.EvaluateBudget(time.Date(2024, 5, 2, 20, 0, 0, 0, time.UTC),
		core.Budget{Period: core.Daily, Limit: core.Money{Cents: 1000000}, Owner: "May"}, ov.Items)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	out := RenderDashboard(core.Dashboard{
		Owner:      "May",
		Totals:     ov.Totals,
		Categories: ov.ByCategory,
		Budgets:    []core.BudgetStatus{st},
		Series:     core.SortedSeries(core.MonthlySeries(ov.Items)),
	})
	for _, want := range []string{"Rp 100,000", "Makanan", "terlampaui", "Mei 2024"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}
}
