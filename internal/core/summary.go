package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the income/expense/balance triple over a set of transactions.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// SeriesKey groups amounts by month and kind.
type SeriesKey struct {
	Month MonthKey
	Kind  Kind
}

// MonthlyPoint is one row of a sorted monthly series.
type MonthlyPoint struct {
	Month   MonthKey
	Income  Money
	Expense Money
}

type CategoryAmount struct {
	Category string
	Amount   Money
	Percent  decimal.Decimal
}

// MonthOverview summarizes one calendar month for the statement report.
type MonthOverview struct {
	Month      MonthKey
	Totals     Totals
	ByCategory []CategoryAmount
	Items      []Transaction
}

type DebtSummary struct {
	Owed     Money // I owe
	OwedToMe Money
	Net      Money // OwedToMe - Owed
}

// TransactionFilter narrows a transaction list. Empty fields match everything.
type TransactionFilter struct {
	Category string
	Kind     Kind
}

func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthKey) Before(o MonthKey) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// ComputeTotals sums income and expense. Balance is income minus expense.
func ComputeTotals(txns []Transaction) Totals {
	var t Totals
	for _, tx := range txns {
		switch tx.Kind {
		case KindIncome:
			t.Income = t.Income.Add(tx.Amount)
		case KindExpense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// CategoryBreakdown sums expense amounts per category. Categories whose sum
// is zero are omitted.
func CategoryBreakdown(txns []Transaction) map[string]Money {
	out := map[string]Money{}
	for _, tx := range txns {
		if tx.Kind != KindExpense {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	for k, v := range out {
		if v.IsZero() {
			delete(out, k)
		}
	}
	return out
}

// CategoryShares orders a breakdown by amount descending and attaches each
// category's percentage of the total.
func CategoryShares(breakdown map[string]Money) []CategoryAmount {
	var total Money
	out := make([]CategoryAmount, 0, len(breakdown))
	for cat, amt := range breakdown {
		total = total.Add(amt)
		out = append(out, CategoryAmount{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	if total.IsZero() {
		return out
	}
	hundred := decimal.NewFromInt(100)
	for i := range out {
		out[i].Percent = out[i].Amount.Decimal().Mul(hundred).DivRound(total.Decimal(), 2)
	}
	return out
}

// MonthlySeries sums amounts per (year-month, kind). Months are taken in each
// record's own location.
func MonthlySeries(txns []Transaction) map[SeriesKey]Money {
	out := map[SeriesKey]Money{}
	for _, tx := range txns {
		k := SeriesKey{Month: MonthOf(tx.Time), Kind: tx.Kind}
		out[k] = out[k].Add(tx.Amount)
	}
	return out
}

// SortedSeries flattens a monthly series into chronological rows.
func SortedSeries(series map[SeriesKey]Money) []MonthlyPoint {
	byMonth := map[MonthKey]*MonthlyPoint{}
	for k, v := range series {
		p, ok := byMonth[k.Month]
		if !ok {
			p = &MonthlyPoint{Month: k.Month}
			byMonth[k.Month] = p
		}
		switch k.Kind {
		case KindIncome:
			p.Income = p.Income.Add(v)
		case KindExpense:
			p.Expense = p.Expense.Add(v)
		}
	}
	out := make([]MonthlyPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Overview builds the statement for one month, items ordered by time.
func Overview(txns []Transaction, month MonthKey) MonthOverview {
	var items []Transaction
	for _, tx := range txns {
		if MonthOf(tx.Time) == month {
			items = append(items, tx)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })
	return MonthOverview{
		Month:      month,
		Totals:     ComputeTotals(items),
		ByCategory: CategoryShares(CategoryBreakdown(items)),
		Items:      items,
	}
}

func FilterTransactions(txns []Transaction, f TransactionFilter) []Transaction {
	if f.Category == "" && f.Kind == "" {
		return txns
	}
	out := make([]Transaction, 0, len(txns))
	for _, tx := range txns {
		if f.Category != "" && !strings.EqualFold(tx.Category, f.Category) {
			continue
		}
		if f.Kind != "" && tx.Kind != f.Kind {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func SavingsTotal(deposits []SavingsDeposit) Money {
	var total Money
	for _, d := range deposits {
		total = total.Add(d.Amount)
	}
	return total
}

func WishlistTotal(items []WishlistItem) Money {
	var total Money
	for _, w := range items {
		total = total.Add(w.Price)
	}
	return total
}

func SummarizeDebts(debts []Debt) DebtSummary {
	var s DebtSummary
	for _, d := range debts {
		switch d.Direction {
		case IOwe:
			s.Owed = s.Owed.Add(d.Amount)
		case OwedToMe:
			s.OwedToMe = s.OwedToMe.Add(d.Amount)
		}
	}
	s.Net = s.OwedToMe.Sub(s.Owed)
	return s
}

// Dashboard is the headline view of one owner's finances.
type Dashboard struct {
	Owner      string
	Totals     Totals
	Categories []CategoryAmount
	Budgets    []BudgetStatus
	Savings    Money
	Debts      DebtSummary
	Series     []MonthlyPoint
}
