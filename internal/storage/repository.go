package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/log"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer per process keeps append-then-read sequences consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger := log.Default(log.ComponentStorage)
	logger.Info("SQLite store ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

// dataSourceName opens dbPath in WAL mode with a busy timeout, since the API
// server and the sync worker write the same file from two processes.
func dataSourceName(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stored value %q", core.ErrInvalidTimestamp, s)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// queryAll runs query and maps every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

const transactionColumns = `id, occurred_at, kind, amount_cents, category, note, owner`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t  core.Transaction
		at string
	)
	if err := s.Scan(&t.ID, &at, &t.Kind, &t.Amount.Cents, &t.Category, &t.Note, &t.Owner); err != nil {
		return core.Transaction{}, err
	}
	parsed, err := parseTime(at)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Time = parsed
	return t, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = ledger.EnsureID(t.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, formatTime(t.Time), string(t.Kind), t.Amount.Cents, t.Category, t.Note, t.Owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		log.FieldTransactionID, t.ID,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldKind, string(t.Kind))
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	out, err := queryAll(ctx, r.db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// PendingSync returns transactions not yet mirrored, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	out, err := queryAll(ctx, r.db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE synced_at IS NULL ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET synced_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Transaction marked as synced", log.FieldTransactionID, id)
	return nil
}

// IsSynced reports whether the transaction has already been mirrored.
func (r *SQLiteRepository) IsSynced(ctx context.Context, id string) (bool, error) {
	var synced sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT synced_at FROM transactions WHERE id = ?`, id).Scan(&synced)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("get sync state: %w", err)
	}
	return synced.Valid, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	out, err := queryAll(ctx, r.db, func(s scanner) (string, error) {
		var name string
		err := s.Scan(&name)
		return name, err
	}, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, core.ErrCategoryExists)
	}
	return nil
}

// DeleteCategory removes name unless a transaction still references it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var refs int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category = ? COLLATE NOCASE`, name).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&exists); err != nil {
		return fmt.Errorf("lookup category: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if refs > 0 {
		return fmt.Errorf("%q: %w", name, core.ErrCategoryInUse)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return tx.Commit()
}
