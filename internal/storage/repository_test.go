package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "dompet.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	wib := time.FixedZone("WIB", 7*3600)

	in := core.Transaction{
		Time:     time.Date(2024, 5, 2, 9, 30, 0, 0, wib),
		Kind:     core.KindExpense,
		Amount:   core.Money{Cents: 3000000},
		Category: "Makanan",
		Note:     "nasi goreng",
		Owner:    "Lili",
	}
	saved, err := repo.AppendTransaction(ctx, in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := repo.GetTransaction(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Time.Equal(in.Time) || got.Kind != in.Kind || got.Amount != in.Amount || got.Note != in.Note || got.Owner != "Lili" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := repo.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.AppendTransaction(ctx, core.Transaction{Time: in.Time, Kind: "x", Category: "a"}); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestListPreservesInsertionOrderAndSync(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		tx, err := repo.AppendTransaction(ctx, core.Transaction{
			Time:     base.Add(-time.Duration(i) * time.Hour),
			Kind:     core.KindIncome,
			Amount:   core.Money{Cents: int64(i+1) * 100},
			Category: "Gaji",
			Owner:    core.GuestUser,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		ids = append(ids, tx.ID)
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v (%d)", err, len(list))
	}
	for i := range ids {
		if list[i].ID != ids[i] {
			t.Fatalf("position %d: expected %s got %s", i, ids[i], list[i].ID)
		}
	}

	if err := repo.MarkSynced(ctx, ids[0], time.Now()); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err := repo.PendingSync(ctx, 1)
	if err != nil || len(pending) != 1 || pending[0].ID != ids[1] {
		t.Fatalf("unexpected pending %+v (err=%v)", pending, err)
	}
	all, _ := repo.PendingSync(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("expected 2 pending without limit, got %d", len(all))
	}
	if err := repo.MarkSynced(ctx, "missing", time.Now()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := repo.IsSynced(ctx, ids[0]); err != nil || !ok {
		t.Fatalf("expected %s synced (err=%v)", ids[0], err)
	}
	if ok, err := repo.IsSynced(ctx, ids[1]); err != nil || ok {
		t.Fatalf("expected %s pending (err=%v)", ids[1], err)
	}
	if _, err := repo.IsSynced(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(ctx)
	if err != nil || len(cats) != len(ledger.DefaultCategories) {
		t.Fatalf("expected seeded categories, got %v (err=%v)", cats, err)
	}
	if err := repo.AddCategory(ctx, "makanan"); !errors.Is(err, core.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
	if err := repo.AddCategory(ctx, "Kos"); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = repo.AppendTransaction(ctx, core.Transaction{
		Time: time.Now(), Kind: core.KindExpense, Amount: core.Money{Cents: 1}, Category: "Kos", Owner: "Lili",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "kos"); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, "Hiburan"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "Hiburan"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFinanceAndStudyRecords(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	if _, err := repo.AppendSavings(ctx, core.SavingsDeposit{Time: now, Amount: core.Money{Cents: 500}, Owner: "Lili"}); err != nil {
		t.Fatalf("savings: %v", err)
	}
	if _, err := repo.AppendWishlist(ctx, core.WishlistItem{Name: "Laptop", Price: core.Money{Cents: 900}, Owner: "Lili"}); err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	if _, err := repo.AppendDebt(ctx, core.Debt{Counterparty: "Budi", Amount: core.Money{Cents: 100}, Direction: core.OwedToMe, Owner: "Lili"}); err != nil {
		t.Fatalf("debt: %v", err)
	}
	if _, err := repo.AppendBudget(ctx, core.Budget{Period: core.Weekly, Limit: core.Money{Cents: 100}, Owner: "Lili"}); err != nil {
		t.Fatalf("budget: %v", err)
	}
	if _, err := repo.AppendTask(ctx, core.Task{Title: "Laporan", Deadline: now, Status: core.TaskInProgress, Owner: "Lili"}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if _, err := repo.AppendNote(ctx, core.Note{Title: "Ide", Body: "**tebal**", Created: now, Owner: "Lili"}); err != nil {
		t.Fatalf("note: %v", err)
	}
	if _, err := repo.AppendSchedule(ctx, core.ScheduleEntry{Course: "Kalkulus", Day: "Senin", Time: "08:00", Room: "A1", Owner: "Lili"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := repo.AppendAttendance(ctx, core.AttendanceEntry{Course: "Kalkulus", Date: now, Status: core.Sick, Owner: "Lili"}); err != nil {
		t.Fatalf("attendance: %v", err)
	}

	savings, _ := repo.ListSavings(ctx)
	wish, _ := repo.ListWishlist(ctx)
	debts, _ := repo.ListDebts(ctx)
	budgets, _ := repo.ListBudgets(ctx)
	tasks, _ := repo.ListTasks(ctx)
	notes, _ := repo.ListNotes(ctx)
	sched, _ := repo.ListSchedule(ctx)
	att, _ := repo.ListAttendance(ctx)

	if len(savings) != 1 || !savings[0].Time.Equal(now) {
		t.Fatalf("savings %+v", savings)
	}
	if len(wish) != 1 || wish[0].Price.Cents != 900 {
		t.Fatalf("wishlist %+v", wish)
	}
	if len(debts) != 1 || debts[0].Direction != core.OwedToMe {
		t.Fatalf("debts %+v", debts)
	}
	if len(budgets) != 1 || budgets[0].Period != core.Weekly {
		t.Fatalf("budgets %+v", budgets)
	}
	if len(tasks) != 1 || tasks[0].Status != core.TaskInProgress {
		t.Fatalf("tasks %+v", tasks)
	}
	if len(notes) != 1 || notes[0].Body != "**tebal**" {
		t.Fatalf("notes %+v", notes)
	}
	if len(sched) != 1 || sched[0].Room != "A1" {
		t.Fatalf("schedule %+v", sched)
	}
	if len(att) != 1 || att[0].Status != core.Sick {
		t.Fatalf("attendance %+v", att)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dompet.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil || v1 != v2 || v1 != 3 {
		t.Fatalf("expected version 3 twice, got %d %d (err=%v)", v1, v2, err)
	}
}

func TestSharedFileBetweenProcesses(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dompet.db")
	api, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open api repo: %v", err)
	}
	defer api.Close()

	var timeout int
	if err := api.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil || timeout != 5000 {
		t.Fatalf("busy_timeout = %d (err=%v)", timeout, err)
	}
	var mode string
	if err := api.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Fatalf("journal_mode = %q (err=%v)", mode, err)
	}

	// A second handle stands in for the sync worker.
	worker, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open worker repo: %v", err)
	}
	defer worker.Close()

	saved, err := api.AppendTransaction(ctx, core.Transaction{
		Time: time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC), Kind: core.KindExpense,
		Amount: core.Money{Cents: 100000}, Category: "Makanan", Owner: "May",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := worker.MarkSynced(ctx, saved.ID, time.Now()); err != nil {
		t.Fatalf("mark synced from second handle: %v", err)
	}
	synced, err := api.IsSynced(ctx, saved.ID)
	if err != nil || !synced {
		t.Fatalf("api does not see the worker's write: synced=%v err=%v", synced, err)
	}
}
