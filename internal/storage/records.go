package storage

import (
	"context"
	"fmt"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

func (r *SQLiteRepository) insert(ctx context.Context, what, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", what, err)
	}
	return nil
}

func (r *SQLiteRepository) AppendSavings(ctx context.Context, d core.SavingsDeposit) (core.SavingsDeposit, error) {
	if err := d.Validate(); err != nil {
		return core.SavingsDeposit{}, err
	}
	d.ID = ledger.EnsureID(d.ID)
	err := r.insert(ctx, "savings",
		`INSERT INTO savings (id, occurred_at, amount_cents, owner) VALUES (?, ?, ?, ?)`,
		d.ID, formatTime(d.Time), d.Amount.Cents, d.Owner)
	return d, err
}

func (r *SQLiteRepository) ListSavings(ctx context.Context) ([]core.SavingsDeposit, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.SavingsDeposit, error) {
		var (
			d  core.SavingsDeposit
			at string
		)
		if err := s.Scan(&d.ID, &at, &d.Amount.Cents, &d.Owner); err != nil {
			return d, err
		}
		t, err := parseTime(at)
		d.Time = t
		return d, err
	}, `SELECT id, occurred_at, amount_cents, owner FROM savings ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendWishlist(ctx context.Context, w core.WishlistItem) (core.WishlistItem, error) {
	if err := w.Validate(); err != nil {
		return core.WishlistItem{}, err
	}
	w.ID = ledger.EnsureID(w.ID)
	err := r.insert(ctx, "wishlist item",
		`INSERT INTO wishlist (id, name, price_cents, note, owner) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Price.Cents, w.Note, w.Owner)
	return w, err
}

func (r *SQLiteRepository) ListWishlist(ctx context.Context) ([]core.WishlistItem, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.WishlistItem, error) {
		var w core.WishlistItem
		err := s.Scan(&w.ID, &w.Name, &w.Price.Cents, &w.Note, &w.Owner)
		return w, err
	}, `SELECT id, name, price_cents, note, owner FROM wishlist ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.ID = ledger.EnsureID(d.ID)
	err := r.insert(ctx, "debt",
		`INSERT INTO debts (id, counterparty, amount_cents, direction, note, owner) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Counterparty, d.Amount.Cents, string(d.Direction), d.Note, d.Owner)
	return d, err
}

func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.Debt, error) {
		var d core.Debt
		err := s.Scan(&d.ID, &d.Counterparty, &d.Amount.Cents, &d.Direction, &d.Note, &d.Owner)
		return d, err
	}, `SELECT id, counterparty, amount_cents, direction, note, owner FROM debts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = ledger.EnsureID(b.ID)
	err := r.insert(ctx, "budget",
		`INSERT INTO budgets (id, period, limit_cents, owner) VALUES (?, ?, ?, ?)`,
		b.ID, string(b.Period), b.Limit.Cents, b.Owner)
	return b, err
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.Budget, error) {
		var b core.Budget
		err := s.Scan(&b.ID, &b.Period, &b.Limit.Cents, &b.Owner)
		return b, err
	}, `SELECT id, period, limit_cents, owner FROM budgets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	t.ID = ledger.EnsureID(t.ID)
	err := r.insert(ctx, "task",
		`INSERT INTO tasks (id, title, deadline, status, owner) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, formatTime(t.Deadline), string(t.Status), t.Owner)
	return t, err
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.Task, error) {
		var (
			t        core.Task
			deadline string
		)
		if err := s.Scan(&t.ID, &t.Title, &deadline, &t.Status, &t.Owner); err != nil {
			return t, err
		}
		d, err := parseTime(deadline)
		t.Deadline = d
		return t, err
	}, `SELECT id, title, deadline, status, owner FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendNote(ctx context.Context, n core.Note) (core.Note, error) {
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	n.ID = ledger.EnsureID(n.ID)
	err := r.insert(ctx, "note",
		`INSERT INTO notes (id, title, body, created, owner) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Body, formatTime(n.Created), n.Owner)
	return n, err
}

func (r *SQLiteRepository) ListNotes(ctx context.Context) ([]core.Note, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.Note, error) {
		var (
			n       core.Note
			created string
		)
		if err := s.Scan(&n.ID, &n.Title, &n.Body, &created, &n.Owner); err != nil {
			return n, err
		}
		c, err := parseTime(created)
		n.Created = c
		return n, err
	}, `SELECT id, title, body, created, owner FROM notes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendSchedule(ctx context.Context, e core.ScheduleEntry) (core.ScheduleEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ScheduleEntry{}, err
	}
	e.ID = ledger.EnsureID(e.ID)
	err := r.insert(ctx, "schedule entry",
		`INSERT INTO schedule (id, course, day, time, room, owner) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Course, e.Day, e.Time, e.Room, e.Owner)
	return e, err
}

func (r *SQLiteRepository) ListSchedule(ctx context.Context) ([]core.ScheduleEntry, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.ScheduleEntry, error) {
		var e core.ScheduleEntry
		err := s.Scan(&e.ID, &e.Course, &e.Day, &e.Time, &e.Room, &e.Owner)
		return e, err
	}, `SELECT id, course, day, time, room, owner FROM schedule ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendAttendance(ctx context.Context, a core.AttendanceEntry) (core.AttendanceEntry, error) {
	if err := a.Validate(); err != nil {
		return core.AttendanceEntry{}, err
	}
	a.ID = ledger.EnsureID(a.ID)
	err := r.insert(ctx, "attendance entry",
		`INSERT INTO attendance (id, course, date, status, owner) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Course, formatTime(a.Date), string(a.Status), a.Owner)
	return a, err
}

func (r *SQLiteRepository) ListAttendance(ctx context.Context) ([]core.AttendanceEntry, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (core.AttendanceEntry, error) {
		var (
			a    core.AttendanceEntry
			date string
		)
		if err := s.Scan(&a.ID, &a.Course, &date, &a.Status, &a.Owner); err != nil {
			return a, err
		}
		d, err := parseTime(date)
		a.Date = d
		return a, err
	}, `SELECT id, course, date, status, owner FROM attendance ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return out, nil
}
