package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"dompet/internal/core"
	dlog "dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/tabular"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(dashboard(d)).Write(w)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	s.addEntry(w, r, core.KindIncome)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	s.addEntry(w, r, core.KindExpense)
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	at, err := parseOptionalTime(p.Get("time"), s.cfg.Location)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	in := services.EntryInput{
		Time:     at,
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
	}

	var tx core.Transaction
	if kind == core.KindIncome {
		tx, err = s.ledger.AddIncome(r.Context(), s.session(r), in)
	} else {
		tx, err = s.ledger.AddExpense(r.Context(), s.session(r), in)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(transactionViews([]core.Transaction{tx})[0]).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.TransactionFilter{Category: sanitizeInput(q.Get("category"))}
	if k := strings.TrimSpace(q.Get("kind")); k != "" {
		kind, err := core.ParseKind(k)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		filter.Kind = kind
	}
	txns, err := s.ledger.History(r.Context(), s.session(r), filter)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(transactionViews(txns)).Write(w)
}

// handleMonthlyReport returns the month series plus the overview of the
// requested month (current month by default).
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	month := ParseMonthParams(r.URL.Query(), s.ledger.CurrentMonth())

	ov, err := s.ledger.MonthlyReport(r.Context(), sess, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	series, err := s.ledger.MonthlySeries(r.Context(), sess)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(struct {
		Series   []monthlyPointView `json:"series"`
		Overview overviewView       `json:"overview"`
	}{seriesViews(series), overview(ov)}).Write(w)
}

func (s *Server) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthParams(r.URL.Query(), s.ledger.CurrentMonth())

	var buf bytes.Buffer
	if err := s.ledger.StatementPDF(r.Context(), s.session(r), month, &buf); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dompet-%s.pdf"`, month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.Savings(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(struct {
		Total    moneyView     `json:"total"`
		Deposits []savingsView `json:"deposits"`
	}{money(core.SavingsTotal(items)), savingsViews(items)}).Write(w)
}

func (s *Server) handleAddSavings(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	at, err := parseOptionalTime(p.Get("time"), s.cfg.Location)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	d, err := s.ledger.AddSavings(r.Context(), s.session(r), p.Get("amount"), at)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(savingsViews([]core.SavingsDeposit{d})[0]).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(r.Context(), w, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, fmt.Errorf("%w: file: %v", core.ErrMissingRequiredField, err))
		return
	}
	defer file.Close()

	res, err := s.ledger.Import(r.Context(), s.session(r), file, header.Filename, r.FormValue("format"))
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		writeError(r.Context(), w, err)
		return
	}
	dlog.FromContext(r.Context()).InfoContext(r.Context(), "Import request handled",
		dlog.FieldImported, res.Imported, dlog.FieldSkipped, len(res.Skipped), dlog.FieldStatusCode, status)
	NewResponse().Status(status).JSON(importResult(res, err)).Write(w)
}

// handleExport serves /api/export/{kind}.{csv|xlsx}.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		NotFoundError("unknown export " + file).Write(w)
		return
	}
	kind, err := tabular.ParseKind(file[:dot])
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	format, err := tabular.ParseFormat(file[dot+1:])
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.ledger.Export(r.Context(), s.session(r), kind, format, &buf); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(cats).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	name, err := s.ledger.AddCategory(r.Context(), p.Get("name"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(map[string]string{"name": name}).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.Budgets(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(budgetViews(budgets)).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	b, err := s.ledger.SetBudget(r.Context(), s.session(r), p.Get("period"), p.Get("limit"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(budgetViews([]core.Budget{b})[0]).Write(w)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.ledger.EvaluateBudgets(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(budgetStatusViews(statuses)).Write(w)
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.Wishlist(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(struct {
		Total moneyView      `json:"total"`
		Items []wishlistView `json:"items"`
	}{money(core.WishlistTotal(items)), wishlistViews(items)}).Write(w)
}

func (s *Server) handleAddWishlist(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	item, err := s.ledger.AddWishlist(r.Context(), s.session(r), p.Get("name"), p.Get("price"), p.Get("note"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(wishlistViews([]core.WishlistItem{item})[0]).Write(w)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.ledger.Debts(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	sum := core.SummarizeDebts(debts)
	NewResponse().JSON(struct {
		Summary debtSummaryView `json:"summary"`
		Debts   []debtView      `json:"debts"`
	}{debtSummaryView{Owed: money(sum.Owed), OwedToMe: money(sum.OwedToMe), Net: money(sum.Net)}, debtViews(debts)}).Write(w)
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	d, err := s.ledger.AddDebt(r.Context(), s.session(r), p.Get("counterparty"), p.Get("amount"), p.Get("direction"), p.Get("note"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(debtViews([]core.Debt{d})[0]).Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.Profile(r.Context(), s.session(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}
