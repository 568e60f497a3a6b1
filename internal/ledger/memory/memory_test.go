package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

func expense(cat string, amount int64) core.Transaction {
	return core.Transaction{
		Time:     time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		Kind:     core.KindExpense,
		Amount:   core.Money{Cents: amount * 100},
		Category: cat,
		Owner:    "Lili",
	}
}

func TestAppendAndListTransactions(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"Makanan"})

	got, err := s.AppendTransaction(ctx, expense("Makanan", 30000))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := s.AppendTransaction(ctx, core.Transaction{Kind: core.KindExpense}); err == nil {
		t.Fatalf("expected validation error")
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("unexpected list %+v", list)
	}
	list[0].Category = "mutated"
	if again, _ := s.GetTransaction(ctx, got.ID); again.Category != "Makanan" {
		t.Fatalf("list must return a copy")
	}
	if _, err := s.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPendingSyncAndMarkSynced(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	a, _ := s.AppendTransaction(ctx, expense("Makanan", 1))
	b, _ := s.AppendTransaction(ctx, expense("Makanan", 2))

	if err := s.MarkSynced(ctx, a.ID, time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	pending, _ := s.PendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("unexpected pending %+v", pending)
	}
	if err := s.MarkSynced(ctx, "nope", time.Now()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, _ := s.IsSynced(ctx, a.ID); !ok {
		t.Fatalf("expected %s synced", a.ID)
	}
	if ok, _ := s.IsSynced(ctx, b.ID); ok {
		t.Fatalf("expected %s pending", b.ID)
	}
	if _, err := s.IsSynced(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryPolicy(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"Makanan", "Hiburan"})

	if err := s.AddCategory(ctx, " makanan "); !errors.Is(err, core.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
	if err := s.AddCategory(ctx, ""); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := s.AddCategory(ctx, "Kos"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := s.AppendTransaction(ctx, expense("Makanan", 5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.DeleteCategory(ctx, "Makanan"); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "Hiburan"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, "Hiburan"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	cats, _ := s.ListCategories(ctx)
	if len(cats) != 2 || cats[0] != "Kos" || cats[1] != "Makanan" {
		t.Fatalf("unexpected categories %v", cats)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cats, _ := NewFromFiles(dir).ListCategories(ctx)
	if len(cats) != len(ledger.DefaultCategories) {
		t.Fatalf("expected defaults when file missing, got %v", cats)
	}

	content := "# header\nMakanan\nmakanan\n\nKos\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cats, _ = NewFromFiles(dir).ListCategories(ctx)
	if len(cats) != 2 || cats[0] != "Kos" || cats[1] != "Makanan" {
		t.Fatalf("unexpected cats: %v", cats)
	}
}

func TestStudyRecords(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if _, err := s.AppendTask(ctx, core.Task{Title: "Laporan", Deadline: time.Now(), Status: core.TaskTodo}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if _, err := s.AppendSchedule(ctx, core.ScheduleEntry{Course: "Kalkulus", Day: "Senin", Time: "08:00"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := s.AppendAttendance(ctx, core.AttendanceEntry{Course: "Kalkulus", Date: time.Now(), Status: core.Present}); err != nil {
		t.Fatalf("attendance: %v", err)
	}
	if _, err := s.AppendNote(ctx, core.Note{Title: "Ide", Body: "# judul", Created: time.Now()}); err != nil {
		t.Fatalf("note: %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	notes, _ := s.ListNotes(ctx)
	sched, _ := s.ListSchedule(ctx)
	att, _ := s.ListAttendance(ctx)
	if len(tasks) != 1 || len(notes) != 1 || len(sched) != 1 || len(att) != 1 {
		t.Fatalf("unexpected counts %d %d %d %d", len(tasks), len(notes), len(sched), len(att))
	}
}
