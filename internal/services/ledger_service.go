package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/ledger"
	dlog "dompet/internal/log"
	"dompet/internal/report"
	"dompet/internal/tabular"
)

// Session carries the active user label for one request. An empty or
// "guest" user sees every owner's records.
type Session struct {
	User string
}

// NewSession normalizes user, falling back to fallback and then to guest.
func NewSession(user, fallback string) Session {
	if strings.TrimSpace(user) == "" {
		user = fallback
	}
	return Session{User: core.NormalizeOwner(user)}
}

func (s Session) IsGuest() bool { return core.IsGuest(s.User) }

// SyncPublisher announces a stored transaction to the spreadsheet mirror.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, owner string) error
}

// EntryInput is a manual income or expense entry. A zero Time means now.
type EntryInput struct {
	Time     time.Time
	Amount   string
	Category string
	Note     string
}

// Profile describes the active user and the owner labels present in the store.
type Profile struct {
	User    string   `json:"user"`
	IsGuest bool     `json:"is_guest"`
	Owners  []string `json:"owners"`
}

type Option func(*options)

type options struct {
	now       func() time.Time
	loc       *time.Location
	publisher SyncPublisher
	policy    tabular.Policy
	strict    bool
	reports   cache.Cache[core.MonthOverview]
	logger    *dlog.Logger
}

// WithClock replaces time.Now, used for budget windows and default entry times.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

func WithPublisher(p SyncPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithImportPolicy(p tabular.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithStrictCategories rejects entries whose category is not managed.
func WithStrictCategories(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithReportCache caches monthly overviews keyed by owner and month.
func WithReportCache(c cache.Cache[core.MonthOverview]) Option {
	return func(o *options) { o.reports = c }
}

func WithLogger(l *dlog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, loc: time.Local, policy: tabular.PolicyAbort}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = dlog.Default(dlog.ComponentLedger)
	}
	return o
}

// LedgerService orchestrates finance records across the store, the report
// cache and the AMQP mirror queue.
type LedgerService struct {
	store  ledger.Store
	opts   options
	logger *dlog.Logger
	events *dlog.StructuredLogger
}

func NewLedgerService(store ledger.Store, opts ...Option) *LedgerService {
	o := buildOptions(opts)
	return &LedgerService{
		store:  store,
		opts:   o,
		logger: o.logger,
		events: dlog.NewStructuredLogger(o.logger),
	}
}

func (s *LedgerService) now() time.Time {
	return s.opts.now().In(s.opts.loc)
}

// AddIncome records an income entry for the session user.
func (s *LedgerService) AddIncome(ctx context.Context, sess Session, in EntryInput) (core.Transaction, error) {
	return s.addEntry(ctx, sess, core.KindIncome, in)
}

// AddExpense records an expense entry for the session user.
func (s *LedgerService) AddExpense(ctx context.Context, sess Session, in EntryInput) (core.Transaction, error) {
	return s.addEntry(ctx, sess, core.KindExpense, in)
}

func (s *LedgerService) addEntry(ctx context.Context, sess Session, kind core.Kind, in EntryInput) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	at := in.Time
	if at.IsZero() {
		at = s.now()
	}
	tx := core.Transaction{
		Time:     at,
		Kind:     kind,
		Amount:   amount,
		Category: strings.TrimSpace(in.Category),
		Note:     strings.TrimSpace(in.Note),
		Owner:    core.NormalizeOwner(sess.User),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if s.opts.strict {
		known, err := s.categorySet(ctx)
		if err != nil {
			return core.Transaction{}, err
		}
		if !known(tx.Category) {
			return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, tx.Category)
		}
	}
	return s.appendTransaction(ctx, tx)
}

// appendTransaction stores tx first, then publishes the mirror message.
// A failed publish is logged and never fails the write.
func (s *LedgerService) appendTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.AppendTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidateMonth(saved.Owner, core.MonthOf(saved.Time))
	s.events.LogTransactionAppended(ctx, saved.ID, saved.Owner, string(saved.Kind), saved.Amount.Cents, saved.Category)

	if err := s.publishSync(ctx, saved); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			dlog.FieldTransactionID, saved.ID, dlog.FieldError, err)
	}
	return saved, nil
}

func (s *LedgerService) publishSync(ctx context.Context, tx core.Transaction) error {
	if s.opts.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping sync message",
			dlog.FieldTransactionID, tx.ID)
		return nil
	}
	return s.opts.publisher.PublishTransactionSync(ctx, tx.ID, tx.Owner)
}

// History lists the session's transactions, oldest first, narrowed by filter.
func (s *LedgerService) History(ctx context.Context, sess Session, filter core.TransactionFilter) ([]core.Transaction, error) {
	txns, err := s.transactions(ctx, sess)
	if err != nil {
		return nil, err
	}
	return core.FilterTransactions(txns, filter), nil
}

func (s *LedgerService) transactions(ctx context.Context, sess Session) ([]core.Transaction, error) {
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

// Dashboard builds the headline view for the session.
func (s *LedgerService) Dashboard(ctx context.Context, sess Session) (core.Dashboard, error) {
	txns, err := s.transactions(ctx, sess)
	if err != nil {
		return core.Dashboard{}, err
	}
	statuses, err := s.EvaluateBudgets(ctx, sess)
	if err != nil {
		return core.Dashboard{}, err
	}
	savings, err := s.store.ListSavings(ctx)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("list savings: %w", err)
	}
	debts, err := s.store.ListDebts(ctx)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("list debts: %w", err)
	}
	return core.Dashboard{
		Owner:      core.NormalizeOwner(sess.User),
		Totals:     core.ComputeTotals(txns),
		Categories: core.CategoryShares(core.CategoryBreakdown(txns)),
		Budgets:    statuses,
		Savings:    core.SavingsTotal(core.Scope(savings, sess.User)),
		Debts:      core.SummarizeDebts(core.Scope(debts, sess.User)),
		Series:     core.SortedSeries(core.MonthlySeries(txns)),
	}, nil
}

// EvaluateBudgets evaluates every budget visible to the session against the
// full transaction list; the evaluator applies each budget's owner itself.
func (s *LedgerService) EvaluateBudgets(ctx context.Context, sess Session) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets = core.Scope(budgets, sess.User)
	if len(budgets) == 0 {
		return nil, nil
	}
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	now := s.now()
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := core.EvaluateBudget(now, b, txns)
		if err != nil {
			return nil, fmt.Errorf("evaluate budget %s: %w", b.ID, err)
		}
		if st.State == core.BudgetExceeded {
			s.events.LogBudgetExceeded(ctx, b.Owner, string(b.Period), b.Limit.Cents, st.Spent.Cents)
		}
		out = append(out, st)
	}
	return out, nil
}

// MonthlyReport returns the session's overview for one month, served from
// the report cache when present.
func (s *LedgerService) MonthlyReport(ctx context.Context, sess Session, month core.MonthKey) (core.MonthOverview, error) {
	if month.Month < time.January || month.Month > time.December {
		return core.MonthOverview{}, fmt.Errorf("%w: month %d", core.ErrInvalidTimestamp, month.Month)
	}
	key := reportKey(sess.User, month)
	if s.opts.reports != nil {
		if ov, ok := s.opts.reports.Get(key); ok {
			return ov, nil
		}
	}
	txns, err := s.transactions(ctx, sess)
	if err != nil {
		return core.MonthOverview{}, err
	}
	ov := core.Overview(txns, month)
	if s.opts.reports != nil {
		s.opts.reports.Set(key, ov)
	}
	return ov, nil
}

// MonthlySeries returns the session's income and expense per month, oldest first.
func (s *LedgerService) MonthlySeries(ctx context.Context, sess Session) ([]core.MonthlyPoint, error) {
	txns, err := s.transactions(ctx, sess)
	if err != nil {
		return nil, err
	}
	return core.SortedSeries(core.MonthlySeries(txns)), nil
}

// CurrentMonth is the month containing the service clock's now.
func (s *LedgerService) CurrentMonth() core.MonthKey {
	return core.MonthOf(s.now())
}

// StatementPDF writes the monthly statement for the session.
func (s *LedgerService) StatementPDF(ctx context.Context, sess Session, month core.MonthKey, w io.Writer) error {
	ov, err := s.MonthlyReport(ctx, sess, month)
	if err != nil {
		return err
	}
	return report.StatementPDF(w, core.NormalizeOwner(sess.User), ov, s.now())
}

// reportKey uses the owner exactly as Scope matches it; only the guest
// sentinel is folded.
func reportKey(user string, month core.MonthKey) string {
	owner := core.NormalizeOwner(user)
	if core.IsGuest(owner) {
		owner = core.GuestUser
	}
	return owner + "|" + month.String()
}

func (s *LedgerService) invalidateMonth(owner string, month core.MonthKey) {
	if s.opts.reports == nil {
		return
	}
	s.opts.reports.Delete(reportKey(owner, month))
	s.opts.reports.Delete(reportKey(core.GuestUser, month))
}

// Import reads a transaction table and appends every valid row. format may be
// empty, in which case it is derived from filename.
func (s *LedgerService) Import(ctx context.Context, sess Session, r io.Reader, filename, format string) (tabular.Result, error) {
	var (
		f   tabular.Format
		err error
	)
	if strings.TrimSpace(format) != "" {
		f, err = tabular.ParseFormat(format)
	} else {
		f, err = tabular.FormatFromName(filename)
	}
	if err != nil {
		return tabular.Result{}, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
	}

	opts := tabular.Options{
		Format:       f,
		Policy:       s.opts.policy,
		DefaultOwner: core.NormalizeOwner(sess.User),
		Location:     s.opts.loc,
	}
	if s.opts.strict {
		known, err := s.categorySet(ctx)
		if err != nil {
			return tabular.Result{}, err
		}
		opts.KnownCategory = known
	}

	res, err := tabular.Import(ctx, r, opts, func(ctx context.Context, tx core.Transaction) error {
		_, err := s.appendTransaction(ctx, tx)
		return err
	})
	for _, skipped := range res.Skipped {
		s.logger.DebugContext(ctx, "Import row skipped",
			dlog.FieldRow, skipped.Row, dlog.FieldError, skipped.Error())
	}
	s.events.LogImport(ctx, opts.DefaultOwner, res.Imported, len(res.Skipped), err)
	return res, err
}

// Export writes the session's records of one kind as a table.
func (s *LedgerService) Export(ctx context.Context, sess Session, kind tabular.Kind, format tabular.Format, w io.Writer) error {
	table, err := s.exportTable(ctx, sess, kind)
	if err != nil {
		return err
	}
	if err := tabular.Write(w, format, table); err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Export completed",
		dlog.FieldOwner, core.NormalizeOwner(sess.User),
		dlog.FieldOperation, dlog.OpExport,
		dlog.FieldFormat, string(format),
		"rows", len(table.Rows))
	return nil
}

func (s *LedgerService) exportTable(ctx context.Context, sess Session, kind tabular.Kind) (tabular.Table, error) {
	switch kind {
	case tabular.KindTransactions:
		txns, err := s.transactions(ctx, sess)
		if err != nil {
			return tabular.Table{}, err
		}
		return tabular.TransactionsTable(txns), nil
	case tabular.KindSavings:
		items, err := s.Savings(ctx, sess)
		if err != nil {
			return tabular.Table{}, err
		}
		return tabular.SavingsTable(items), nil
	case tabular.KindWishlist:
		items, err := s.Wishlist(ctx, sess)
		if err != nil {
			return tabular.Table{}, err
		}
		return tabular.WishlistTable(items), nil
	case tabular.KindDebts:
		items, err := s.Debts(ctx, sess)
		if err != nil {
			return tabular.Table{}, err
		}
		return tabular.DebtsTable(items), nil
	case tabular.KindTasks:
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return tabular.Table{}, fmt.Errorf("list tasks: %w", err)
		}
		return tabular.TasksTable(core.Scope(tasks, sess.User)), nil
	}
	return tabular.Table{}, fmt.Errorf("unknown export kind %q", kind)
}

func (s *LedgerService) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) AddCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := s.store.AddCategory(ctx, name); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Category added", dlog.FieldCategory, name, dlog.FieldOperation, dlog.OpCreate)
	return name, nil
}

// DeleteCategory removes a managed category. It fails with
// core.ErrCategoryInUse while any transaction references it.
func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	if err := s.store.DeleteCategory(ctx, name); err != nil {
		if errors.Is(err, core.ErrCategoryInUse) {
			s.logger.WarnContext(ctx, "Refusing to delete category in use", dlog.FieldCategory, name)
		}
		return err
	}
	s.logger.InfoContext(ctx, "Category deleted", dlog.FieldCategory, name, dlog.FieldOperation, dlog.OpDelete)
	return nil
}

func (s *LedgerService) categorySet(ctx context.Context) (func(string) bool, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	set := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		set[strings.ToLower(c)] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(name))]
		return ok
	}, nil
}

// AddSavings records a deposit. A zero at means now.
func (s *LedgerService) AddSavings(ctx context.Context, sess Session, amount string, at time.Time) (core.SavingsDeposit, error) {
	m, err := core.ParseAmount(amount)
	if err != nil {
		return core.SavingsDeposit{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	return s.store.AppendSavings(ctx, core.SavingsDeposit{Time: at, Amount: m, Owner: core.NormalizeOwner(sess.User)})
}

func (s *LedgerService) Savings(ctx context.Context, sess Session) ([]core.SavingsDeposit, error) {
	all, err := s.store.ListSavings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

func (s *LedgerService) AddWishlist(ctx context.Context, sess Session, name, price, note string) (core.WishlistItem, error) {
	m, err := core.ParseAmount(price)
	if err != nil {
		return core.WishlistItem{}, err
	}
	return s.store.AppendWishlist(ctx, core.WishlistItem{
		Name:  strings.TrimSpace(name),
		Price: m,
		Note:  strings.TrimSpace(note),
		Owner: core.NormalizeOwner(sess.User),
	})
}

func (s *LedgerService) Wishlist(ctx context.Context, sess Session) ([]core.WishlistItem, error) {
	all, err := s.store.ListWishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

func (s *LedgerService) AddDebt(ctx context.Context, sess Session, counterparty, amount, direction, note string) (core.Debt, error) {
	m, err := core.ParseAmount(amount)
	if err != nil {
		return core.Debt{}, err
	}
	dir, err := core.ParseDirection(direction)
	if err != nil {
		return core.Debt{}, err
	}
	return s.store.AppendDebt(ctx, core.Debt{
		Counterparty: strings.TrimSpace(counterparty),
		Amount:       m,
		Direction:    dir,
		Note:         strings.TrimSpace(note),
		Owner:        core.NormalizeOwner(sess.User),
	})
}

func (s *LedgerService) Debts(ctx context.Context, sess Session) ([]core.Debt, error) {
	all, err := s.store.ListDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

// SetBudget appends a budget for the session user.
func (s *LedgerService) SetBudget(ctx context.Context, sess Session, period, limit string) (core.Budget, error) {
	p, err := core.ParsePeriod(period)
	if err != nil {
		return core.Budget{}, err
	}
	m, err := core.ParseAmount(limit)
	if err != nil {
		return core.Budget{}, err
	}
	b, err := s.store.AppendBudget(ctx, core.Budget{Period: p, Limit: m, Owner: core.NormalizeOwner(sess.User)})
	if err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget set",
		dlog.FieldOwner, b.Owner, dlog.FieldPeriod, string(b.Period), dlog.FieldLimitCents, b.Limit.Cents)
	return b, nil
}

func (s *LedgerService) Budgets(ctx context.Context, sess Session) ([]core.Budget, error) {
	all, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return core.Scope(all, sess.User), nil
}

// Profile reports the active user and every owner label seen in the finance
// records.
func (s *LedgerService) Profile(ctx context.Context, sess Session) (Profile, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("list transactions: %w", err)
	}
	savings, err := s.store.ListSavings(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("list savings: %w", err)
	}
	debts, err := s.store.ListDebts(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("list debts: %w", err)
	}

	seen := map[string]struct{}{}
	var owners []string
	for _, group := range [][]string{core.Owners(txns), core.Owners(savings), core.Owners(debts)} {
		for _, o := range group {
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			owners = append(owners, o)
		}
	}
	return Profile{
		User:    core.NormalizeOwner(sess.User),
		IsGuest: sess.IsGuest(),
		Owners:  owners,
	}, nil
}

// Close releases the publisher when it holds resources.
func (s *LedgerService) Close() error {
	if c, ok := s.opts.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
