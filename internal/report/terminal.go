package report

import (
	"fmt"
	"strings"

	"dompet/internal/core"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#cba6f7"))
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).Padding(0, 1)
)

const barWidth = 24

// RenderDashboard draws the dashboard as terminal panes.
func RenderDashboard(d core.Dashboard) string {
	var panes []string

	totals := []string{
		titleStyle.Render("Ringkasan " + d.Owner),
		labelStyle.Render("Pemasukan   ") + incomeStyle.Render(d.Totals.Income.String()),
		labelStyle.Render("Pengeluaran ") + expenseStyle.Render(d.Totals.Expense.String()),
		labelStyle.Render("Saldo       ") + d.Totals.Balance.String(),
		labelStyle.Render("Tabungan    ") + d.Savings.String(),
		labelStyle.Render("Hutang      ") + d.Debts.Owed.String(),
		labelStyle.Render("Piutang     ") + d.Debts.OwedToMe.String(),
	}
	panes = append(panes, paneStyle.Render(strings.Join(totals, "\n")))

	cats := []string{titleStyle.Render("Pengeluaran per kategori")}
	if len(d.Categories) == 0 {
		cats = append(cats, labelStyle.Render("Belum ada pengeluaran."))
	}
	for _, c := range d.Categories {
		cats = append(cats, fmt.Sprintf("%-14s %s %6s%%  %s",
			trimTo(c.Category, 14), bar(c.Percent.InexactFloat64()), c.Percent.StringFixed(1), c.Amount))
	}
	panes = append(panes, paneStyle.Render(strings.Join(cats, "\n")))

	if len(d.Budgets) > 0 {
		lines := []string{titleStyle.Render("Budget")}
		for _, b := range d.Budgets {
			line := fmt.Sprintf("%-9s %s / %s", b.Budget.Period.Label(), b.Spent, b.Budget.Limit)
			if b.State == core.BudgetExceeded {
				line = warnStyle.Render(b.Warning)
			}
			lines = append(lines, line)
		}
		panes = append(panes, paneStyle.Render(strings.Join(lines, "\n")))
	}

	if len(d.Series) > 0 {
		lines := []string{titleStyle.Render("Bulanan")}
		for _, p := range d.Series {
			lines = append(lines, fmt.Sprintf("%-15s %s  %s",
				MonthLabel(p.Month), incomeStyle.Render("+"+p.Income.String()), expenseStyle.Render("-"+p.Expense.String())))
		}
		panes = append(panes, paneStyle.Render(strings.Join(lines, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panes...)
}

func bar(percent float64) string {
	n := int(percent / 100 * barWidth)
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat("·", barWidth-n)
}
