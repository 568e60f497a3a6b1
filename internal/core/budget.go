package core

import (
	"fmt"
	"time"
)

type BudgetState string

const (
	WithinBudget   BudgetState = "within"
	BudgetExceeded BudgetState = "exceeded"
)

// BudgetStatus is the result of evaluating one budget at a point in time.
type BudgetStatus struct {
	Budget      Budget
	WindowStart time.Time
	Spent       Money
	State       BudgetState
	Warning     string
}

// WindowStart returns the beginning of the window containing now, in now's
// location: midnight for Daily, Monday 00:00 for Weekly and the first of the
// month for Monthly.
func WindowStart(now time.Time, p Period) (time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case Weekly:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc), nil
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
}

// EvaluateBudget sums the budget owner's expenses dated at or after the
// window start. A guest-owned budget counts every owner. The budget is
// exceeded only when spent is strictly greater than the limit.
func EvaluateBudget(now time.Time, b Budget, txns []Transaction) (BudgetStatus, error) {
	start, err := WindowStart(now, b.Period)
	if err != nil {
		return BudgetStatus{}, err
	}
	st := BudgetStatus{Budget: b, WindowStart: start, State: WithinBudget}
	for _, tx := range Scope(txns, b.Owner) {
		if tx.Kind != KindExpense || tx.Time.Before(start) {
			continue
		}
		st.Spent = st.Spent.Add(tx.Amount)
	}
	if st.Spent.Cents > b.Limit.Cents {
		st.State = BudgetExceeded
		st.Warning = fmt.Sprintf("Budget %s terlampaui: batas %s, terpakai %s",
			b.Period.Label(), b.Limit, st.Spent)
	}
	return st, nil
}
