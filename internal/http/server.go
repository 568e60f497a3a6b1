package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	dlog "dompet/internal/log"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/services"
)

// Config controls the API server.
type Config struct {
	Addr               string
	DefaultUser        string
	RateLimitPerMinute int
	// MaxUploadBytes caps import uploads; 0 means 10 MiB.
	MaxUploadBytes int64
	// Location interprets timestamps without an offset; nil means time.Local.
	Location *time.Location
	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *dlog.Logger
}

type Server struct {
	http.Server
	ledger  *services.LedgerService
	study   *services.StudyService
	cfg     Config
	logger  *dlog.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledgerSvc *services.LedgerService, studySvc *services.StudyService) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = dlog.Default(dlog.ComponentHTTP)
	}

	clientIP := security.NewClientIP()
	s := &Server{
		ledger:  ledgerSvc,
		study:   studySvc,
		cfg:     cfg,
		logger:  cfg.Logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(cfg.Logger, clientIP.Extract),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	limit := s.limiter.Middleware(clientIP.Extract, nil, http.MethodPost, http.MethodDelete)
	handler := s.tracer.Middleware(security.Headers(security.DefaultHeadersConfig())(limit(mux)))

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/transactions/income", s.handleAddIncome)
	mux.HandleFunc("POST /api/transactions/expense", s.handleAddExpense)
	mux.HandleFunc("GET /api/transactions", s.handleHistory)
	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/reports/monthly.pdf", s.handleStatementPDF)
	mux.HandleFunc("GET /api/savings", s.handleListSavings)
	mux.HandleFunc("POST /api/savings", s.handleAddSavings)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/export/{file}", s.handleExport)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleDeleteCategory)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleSetBudget)
	mux.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)
	mux.HandleFunc("GET /api/wishlist", s.handleListWishlist)
	mux.HandleFunc("POST /api/wishlist", s.handleAddWishlist)
	mux.HandleFunc("GET /api/debts", s.handleListDebts)
	mux.HandleFunc("POST /api/debts", s.handleAddDebt)
	mux.HandleFunc("GET /api/profile", s.handleProfile)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleAddTask)
	mux.HandleFunc("GET /api/notes", s.handleListNotes)
	mux.HandleFunc("POST /api/notes", s.handleAddNote)
	mux.HandleFunc("GET /api/schedule", s.handleListSchedule)
	mux.HandleFunc("POST /api/schedule", s.handleAddSchedule)
	mux.HandleFunc("GET /api/attendance", s.handleListAttendance)
	mux.HandleFunc("POST /api/attendance", s.handleRecordAttendance)
	mux.HandleFunc("GET /api/attendance/summary", s.handleAttendanceSummary)
	mux.HandleFunc("POST /api/grades", s.handleFinalGrade)
}

// Shutdown stops the limiter cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters for the shutdown log.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func (s *Server) session(r *http.Request) services.Session {
	return SessionFrom(r, s.cfg.DefaultUser)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cfg.Ready(ctx); err != nil {
			dlog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", dlog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
