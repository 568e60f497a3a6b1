// Package ledger defines the Record Store ports shared by the memory and
// SQLite backends.
package ledger

import (
	"context"
	"time"

	"dompet/internal/core"

	"github.com/google/uuid"
)

// DefaultCategories seeds an empty category set.
var DefaultCategories = []string{
	"Makanan", "Transportasi", "Pendidikan", "Hiburan",
	"Kesehatan", "Gaji", "Uang Saku", "Lainnya",
}

// Ports for the record store. Every List returns all owners; scoping is the
// caller's job (core.Scope).
type (
	TransactionStore interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	FinanceStore interface {
		AppendSavings(ctx context.Context, d core.SavingsDeposit) (core.SavingsDeposit, error)
		ListSavings(ctx context.Context) ([]core.SavingsDeposit, error)
		AppendWishlist(ctx context.Context, w core.WishlistItem) (core.WishlistItem, error)
		ListWishlist(ctx context.Context) ([]core.WishlistItem, error)
		AppendDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		ListDebts(ctx context.Context) ([]core.Debt, error)
		AppendBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// CategoryStore keeps the managed category set. AddCategory fails with
	// core.ErrCategoryExists on a case-insensitive duplicate; DeleteCategory
	// fails with core.ErrCategoryInUse while a transaction references the name.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]string, error)
		AddCategory(ctx context.Context, name string) error
		DeleteCategory(ctx context.Context, name string) error
	}

	StudyStore interface {
		AppendTask(ctx context.Context, t core.Task) (core.Task, error)
		ListTasks(ctx context.Context) ([]core.Task, error)
		AppendNote(ctx context.Context, n core.Note) (core.Note, error)
		ListNotes(ctx context.Context) ([]core.Note, error)
		AppendSchedule(ctx context.Context, s core.ScheduleEntry) (core.ScheduleEntry, error)
		ListSchedule(ctx context.Context) ([]core.ScheduleEntry, error)
		AppendAttendance(ctx context.Context, a core.AttendanceEntry) (core.AttendanceEntry, error)
		ListAttendance(ctx context.Context) ([]core.AttendanceEntry, error)
	}

	// SyncTracker records which transactions have been mirrored to the sheet.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkSynced(ctx context.Context, id string, at time.Time) error
		IsSynced(ctx context.Context, id string) (bool, error)
	}

	// Store is the complete Record Store.
	Store interface {
		TransactionStore
		FinanceStore
		CategoryStore
		StudyStore
		SyncTracker
	}

	// TransactionMirror appends a transaction to an external sheet.
	TransactionMirror interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

// EnsureID returns id, or a fresh UUID when id is empty.
func EnsureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
