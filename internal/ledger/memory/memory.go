// Package memory is an in-process Record Store, used for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

type Store struct {
	mu         sync.RWMutex
	cats       []string
	txns       []core.Transaction
	synced     map[string]time.Time
	savings    []core.SavingsDeposit
	wishlist   []core.WishlistItem
	debts      []core.Debt
	budgets    []core.Budget
	tasks      []core.Task
	notes      []core.Note
	schedule   []core.ScheduleEntry
	attendance []core.AttendanceEntry
}

var _ ledger.Store = (*Store)(nil)

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats), synced: map[string]time.Time{}}
}

// NewFromFiles seeds categories from base/seed_categories.txt, falling back
// to ledger.DefaultCategories when the file is missing or empty.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = ledger.DefaultCategories
	}
	return New(cats)
}

func appendRecord[T any](mu *sync.RWMutex, list *[]T, r T) T {
	mu.Lock()
	defer mu.Unlock()
	*list = append(*list, r)
	return r
}

func listRecords[T any](mu *sync.RWMutex, list *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	return append([]T(nil), *list...)
}

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = ledger.EnsureID(t.ID)
	return appendRecord(&s.mu, &s.txns, t), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.txns {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	return listRecords(&s.mu, &s.txns), nil
}

func (s *Store) PendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if _, ok := s.synced[t.ID]; ok {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txns {
		if t.ID == id {
			s.synced[id] = at
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) IsSynced(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.synced[id]; ok {
		return true, nil
	}
	for _, t := range s.txns {
		if t.ID == id {
			return false, nil
		}
	}
	return false, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) AppendSavings(_ context.Context, d core.SavingsDeposit) (core.SavingsDeposit, error) {
	if err := d.Validate(); err != nil {
		return core.SavingsDeposit{}, err
	}
	d.ID = ledger.EnsureID(d.ID)
	return appendRecord(&s.mu, &s.savings, d), nil
}

func (s *Store) ListSavings(_ context.Context) ([]core.SavingsDeposit, error) {
	return listRecords(&s.mu, &s.savings), nil
}

func (s *Store) AppendWishlist(_ context.Context, w core.WishlistItem) (core.WishlistItem, error) {
	if err := w.Validate(); err != nil {
		return core.WishlistItem{}, err
	}
	w.ID = ledger.EnsureID(w.ID)
	return appendRecord(&s.mu, &s.wishlist, w), nil
}

func (s *Store) ListWishlist(_ context.Context) ([]core.WishlistItem, error) {
	return listRecords(&s.mu, &s.wishlist), nil
}

func (s *Store) AppendDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.ID = ledger.EnsureID(d.ID)
	return appendRecord(&s.mu, &s.debts, d), nil
}

func (s *Store) ListDebts(_ context.Context) ([]core.Debt, error) {
	return listRecords(&s.mu, &s.debts), nil
}

func (s *Store) AppendBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = ledger.EnsureID(b.ID)
	return appendRecord(&s.mu, &s.budgets, b), nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	return listRecords(&s.mu, &s.budgets), nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]string(nil), s.cats...)
	sort.Strings(out)
	return out, nil
}

func (s *Store) AddCategory(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if strings.EqualFold(c, name) {
			return fmt.Errorf("%q: %w", name, core.ErrCategoryExists)
		}
	}
	s.cats = append(s.cats, name)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.cats {
		if strings.EqualFold(c, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	for _, t := range s.txns {
		if strings.EqualFold(t.Category, name) {
			return fmt.Errorf("%q: %w", name, core.ErrCategoryInUse)
		}
	}
	s.cats = append(s.cats[:idx], s.cats[idx+1:]...)
	return nil
}

func (s *Store) AppendTask(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	t.ID = ledger.EnsureID(t.ID)
	return appendRecord(&s.mu, &s.tasks, t), nil
}

func (s *Store) ListTasks(_ context.Context) ([]core.Task, error) {
	return listRecords(&s.mu, &s.tasks), nil
}

func (s *Store) AppendNote(_ context.Context, n core.Note) (core.Note, error) {
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	n.ID = ledger.EnsureID(n.ID)
	return appendRecord(&s.mu, &s.notes, n), nil
}

func (s *Store) ListNotes(_ context.Context) ([]core.Note, error) {
	return listRecords(&s.mu, &s.notes), nil
}

func (s *Store) AppendSchedule(_ context.Context, e core.ScheduleEntry) (core.ScheduleEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ScheduleEntry{}, err
	}
	e.ID = ledger.EnsureID(e.ID)
	return appendRecord(&s.mu, &s.schedule, e), nil
}

func (s *Store) ListSchedule(_ context.Context) ([]core.ScheduleEntry, error) {
	return listRecords(&s.mu, &s.schedule), nil
}

func (s *Store) AppendAttendance(_ context.Context, a core.AttendanceEntry) (core.AttendanceEntry, error) {
	if err := a.Validate(); err != nil {
		return core.AttendanceEntry{}, err
	}
	a.ID = ledger.EnsureID(a.ID)
	return appendRecord(&s.mu, &s.attendance, a), nil
}

func (s *Store) ListAttendance(_ context.Context) ([]core.AttendanceEntry, error) {
	return listRecords(&s.mu, &s.attendance), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and case-insensitive duplicates, keeping first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
