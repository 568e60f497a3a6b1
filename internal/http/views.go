package http

import (
	"time"

	"dompet/internal/core"
	"dompet/internal/tabular"
)

// JSON views of the core records. Core types carry no wire tags, so the API
// shape is fixed here.

type moneyView struct {
	Cents   int64  `json:"cents"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

func money(m core.Money) moneyView {
	return moneyView{Cents: m.Cents, Amount: m.Plain(), Display: m.String()}
}

type transactionView struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Kind     core.Kind `json:"kind"`
	Amount   moneyView `json:"amount"`
	Category string    `json:"category"`
	Note     string    `json:"note,omitempty"`
	Owner    string    `json:"owner"`
}

func transactionViews(txns []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionView{
			ID: t.ID, Time: t.Time, Kind: t.Kind, Amount: money(t.Amount),
			Category: t.Category, Note: t.Note, Owner: t.Owner,
		})
	}
	return out
}

type totalsView struct {
	Income  moneyView `json:"income"`
	Expense moneyView `json:"expense"`
	Balance moneyView `json:"balance"`
}

func totals(t core.Totals) totalsView {
	return totalsView{Income: money(t.Income), Expense: money(t.Expense), Balance: money(t.Balance)}
}

type categoryView struct {
	Category string    `json:"category"`
	Amount   moneyView `json:"amount"`
	Percent  string    `json:"percent"`
}

func categoryViews(cats []core.CategoryAmount) []categoryView {
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{Category: c.Category, Amount: money(c.Amount), Percent: c.Percent.StringFixed(2)})
	}
	return out
}

type budgetView struct {
	ID     string      `json:"id"`
	Period core.Period `json:"period"`
	Limit  moneyView   `json:"limit"`
	Owner  string      `json:"owner"`
}

func budgetViews(budgets []core.Budget) []budgetView {
	out := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetView{ID: b.ID, Period: b.Period, Limit: money(b.Limit), Owner: b.Owner})
	}
	return out
}

type budgetStatusView struct {
	Budget      budgetView       `json:"budget"`
	WindowStart time.Time        `json:"window_start"`
	Spent       moneyView        `json:"spent"`
	State       core.BudgetState `json:"state"`
	Warning     string           `json:"warning,omitempty"`
}

func budgetStatusViews(statuses []core.BudgetStatus) []budgetStatusView {
	out := make([]budgetStatusView, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, budgetStatusView{
			Budget:      budgetViews([]core.Budget{s.Budget})[0],
			WindowStart: s.WindowStart,
			Spent:       money(s.Spent),
			State:       s.State,
			Warning:     s.Warning,
		})
	}
	return out
}

type debtSummaryView struct {
	Owed     moneyView `json:"owed"`
	OwedToMe moneyView `json:"owed_to_me"`
	Net      moneyView `json:"net"`
}

type monthlyPointView struct {
	Month   string    `json:"month"`
	Income  moneyView `json:"income"`
	Expense moneyView `json:"expense"`
}

func seriesViews(points []core.MonthlyPoint) []monthlyPointView {
	out := make([]monthlyPointView, 0, len(points))
	for _, p := range points {
		out = append(out, monthlyPointView{Month: p.Month.String(), Income: money(p.Income), Expense: money(p.Expense)})
	}
	return out
}

type dashboardView struct {
	Owner      string             `json:"owner"`
	Totals     totalsView         `json:"totals"`
	Categories []categoryView     `json:"categories"`
	Budgets    []budgetStatusView `json:"budgets"`
	Savings    moneyView          `json:"savings"`
	Debts      debtSummaryView    `json:"debts"`
	Series     []monthlyPointView `json:"series"`
}

func dashboard(d core.Dashboard) dashboardView {
	return dashboardView{
		Owner:      d.Owner,
		Totals:     totals(d.Totals),
		Categories: categoryViews(d.Categories),
		Budgets:    budgetStatusViews(d.Budgets),
		Savings:    money(d.Savings),
		Debts:      debtSummaryView{Owed: money(d.Debts.Owed), OwedToMe: money(d.Debts.OwedToMe), Net: money(d.Debts.Net)},
		Series:     seriesViews(d.Series),
	}
}

type overviewView struct {
	Month      string            `json:"month"`
	Totals     totalsView        `json:"totals"`
	Categories []categoryView    `json:"categories"`
	Items      []transactionView `json:"items"`
}

func overview(ov core.MonthOverview) overviewView {
	return overviewView{
		Month:      ov.Month.String(),
		Totals:     totals(ov.Totals),
		Categories: categoryViews(ov.ByCategory),
		Items:      transactionViews(ov.Items),
	}
}

type savingsView struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Amount moneyView `json:"amount"`
	Owner  string    `json:"owner"`
}

func savingsViews(deposits []core.SavingsDeposit) []savingsView {
	out := make([]savingsView, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, savingsView{ID: d.ID, Time: d.Time, Amount: money(d.Amount), Owner: d.Owner})
	}
	return out
}

type wishlistView struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Price moneyView `json:"price"`
	Note  string    `json:"note,omitempty"`
	Owner string    `json:"owner"`
}

func wishlistViews(items []core.WishlistItem) []wishlistView {
	out := make([]wishlistView, 0, len(items))
	for _, w := range items {
		out = append(out, wishlistView{ID: w.ID, Name: w.Name, Price: money(w.Price), Note: w.Note, Owner: w.Owner})
	}
	return out
}

type debtView struct {
	ID           string         `json:"id"`
	Counterparty string         `json:"counterparty"`
	Amount       moneyView      `json:"amount"`
	Direction    core.Direction `json:"direction"`
	Note         string         `json:"note,omitempty"`
	Owner        string         `json:"owner"`
}

func debtViews(debts []core.Debt) []debtView {
	out := make([]debtView, 0, len(debts))
	for _, d := range debts {
		out = append(out, debtView{ID: d.ID, Counterparty: d.Counterparty, Amount: money(d.Amount), Direction: d.Direction, Note: d.Note, Owner: d.Owner})
	}
	return out
}

type taskView struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Deadline time.Time       `json:"deadline"`
	Status   core.TaskStatus `json:"status"`
	Owner    string          `json:"owner"`
}

func taskViews(tasks []core.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView{ID: t.ID, Title: t.Title, Deadline: t.Deadline, Status: t.Status, Owner: t.Owner})
	}
	return out
}

type noteView struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
	Owner   string    `json:"owner"`
}

func noteViews(notes []core.Note) []noteView {
	out := make([]noteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView{ID: n.ID, Title: n.Title, Body: n.Body, Created: n.Created, Owner: n.Owner})
	}
	return out
}

type scheduleView struct {
	ID     string `json:"id"`
	Course string `json:"course"`
	Day    string `json:"day"`
	Time   string `json:"time"`
	Room   string `json:"room,omitempty"`
	Owner  string `json:"owner"`
}

func scheduleViews(entries []core.ScheduleEntry) []scheduleView {
	out := make([]scheduleView, 0, len(entries))
	for _, s := range entries {
		out = append(out, scheduleView{ID: s.ID, Course: s.Course, Day: s.Day, Time: s.Time, Room: s.Room, Owner: s.Owner})
	}
	return out
}

type attendanceView struct {
	ID     string                `json:"id"`
	Course string                `json:"course"`
	Date   string                `json:"date"`
	Status core.AttendanceStatus `json:"status"`
	Owner  string                `json:"owner"`
}

func attendanceViews(entries []core.AttendanceEntry) []attendanceView {
	out := make([]attendanceView, 0, len(entries))
	for _, a := range entries {
		out = append(out, attendanceView{ID: a.ID, Course: a.Course, Date: a.Date.Format("2006-01-02"), Status: a.Status, Owner: a.Owner})
	}
	return out
}

type attendanceSummaryView struct {
	Course string                        `json:"course"`
	Counts map[core.AttendanceStatus]int `json:"counts"`
	Total  int                           `json:"total"`
}

func attendanceSummaryViews(sums []core.AttendanceSummary) []attendanceSummaryView {
	out := make([]attendanceSummaryView, 0, len(sums))
	for _, s := range sums {
		out = append(out, attendanceSummaryView{Course: s.Course, Counts: s.Counts, Total: s.Total})
	}
	return out
}

type skippedRowView struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

type importView struct {
	Imported int              `json:"imported"`
	Skipped  []skippedRowView `json:"skipped"`
	Error    string           `json:"error,omitempty"`
}

func importResult(res tabular.Result, err error) importView {
	v := importView{Imported: res.Imported, Skipped: make([]skippedRowView, 0, len(res.Skipped))}
	for _, s := range res.Skipped {
		v.Skipped = append(v.Skipped, skippedRowView{Row: s.Row, Column: s.Column, Reason: s.Err.Error()})
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}
