package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GuestUser is the unscoped owner label. Filtering by it matches every record.
const GuestUser = "guest"

const (
	KindIncome  Kind = "Pemasukan"
	KindExpense Kind = "Pengeluaran"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

const (
	IOwe     Direction = "hutang"
	OwedToMe Direction = "piutang"
)

const maxTextLen = 500

type (
	Kind      string
	Period    string
	Direction string

	// Transaction is a single income or expense entry. Amount is never
	// negative; the sign is carried by Kind.
	Transaction struct {
		ID       string
		Time     time.Time
		Kind     Kind
		Amount   Money
		Category string
		Note     string
		Owner    string
	}

	SavingsDeposit struct {
		ID     string
		Time   time.Time
		Amount Money
		Owner  string
	}

	WishlistItem struct {
		ID    string
		Name  string
		Price Money
		Note  string
		Owner string
	}

	Debt struct {
		ID           string
		Counterparty string
		Amount       Money
		Direction    Direction
		Note         string
		Owner        string
	}

	// Budget caps the expenses of one owner within a daily, weekly or monthly window.
	Budget struct {
		ID     string
		Period Period
		Limit  Money
		Owner  string
	}

	Category struct {
		Name string
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnreadableInput      = errors.New("unreadable input")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrInvalidPeriod        = errors.New("invalid budget period")
	ErrInvalidDirection     = errors.New("invalid debt direction")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrEmptyCategory        = errors.New("empty category")
	ErrEmptyName            = errors.New("empty name")
	ErrCategoryExists       = errors.New("category already exists")
	ErrCategoryInUse        = errors.New("category referenced by transactions")
	ErrNotFound             = errors.New("record not found")
	ErrTextTooLong          = fmt.Errorf("text too long (max %d characters)", maxTextLen)
)

// NormalizeOwner trims the label and maps an empty one to GuestUser.
func NormalizeOwner(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return GuestUser
	}
	return owner
}

// ParseKind accepts the Indonesian labels used by the import format as well
// as their English equivalents, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pemasukan", "income":
		return KindIncome, nil
	case "pengeluaran", "expense":
		return KindExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "harian":
		return Daily, nil
	case "weekly", "mingguan":
		return Weekly, nil
	case "monthly", "bulanan":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Label returns the period name shown to users.
func (p Period) Label() string {
	switch p {
	case Daily:
		return "Harian"
	case Weekly:
		return "Mingguan"
	case Monthly:
		return "Bulanan"
	}
	return string(p)
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hutang", "i_owe", "iowe":
		return IOwe, nil
	case "piutang", "owed_to_me", "owedtome":
		return OwedToMe, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (t Transaction) OwnerLabel() string    { return t.Owner }
func (d SavingsDeposit) OwnerLabel() string { return d.Owner }
func (w WishlistItem) OwnerLabel() string   { return w.Owner }
func (d Debt) OwnerLabel() string           { return d.Owner }
func (b Budget) OwnerLabel() string         { return b.Owner }

func (t Transaction) Validate() error {
	if t.Time.IsZero() {
		return fmt.Errorf("%w: zero time", ErrInvalidTimestamp)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Note) > maxTextLen {
		return ErrTextTooLong
	}
	return nil
}

func (d SavingsDeposit) Validate() error {
	if d.Time.IsZero() {
		return fmt.Errorf("%w: zero time", ErrInvalidTimestamp)
	}
	return d.Amount.Validate()
}

func (w WishlistItem) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if len(w.Note) > maxTextLen {
		return ErrTextTooLong
	}
	return w.Price.Validate()
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Counterparty) == "" {
		return ErrEmptyName
	}
	if d.Direction != IOwe && d.Direction != OwedToMe {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, d.Direction)
	}
	if len(d.Note) > maxTextLen {
		return ErrTextTooLong
	}
	return d.Amount.Validate()
}

func (b Budget) Validate() error {
	switch b.Period {
	case Daily, Weekly, Monthly:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, b.Period)
	}
	return b.Limit.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("%w: category name (max 100 characters)", ErrTextTooLong)
	}
	return nil
}
