package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionResponse struct {
	ID          int64    `json:"id"`
	Kind        string   `json:"kind"`
	Amount      string   `json:"amount"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	Suggestions []string `json:"category_suggestions,omitempty"`
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
}

type budgetResponse struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Limit    string `json:"limit"`
}

type snapshotResponse struct {
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Income      string    `json:"income"`
	Expense     string    `json:"expense"`
	Balance     string    `json:"balance"`
	Entries     int       `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

func toTransactionResponse(tx core.Transaction, match core.CategoryMatch) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.ISO(),
	}
	if !match.Known {
		resp.Suggestions = match.Suggestions
	}
	return resp
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "username": req.Username})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, match, err := s.ledger.AddTransaction(r.Context(), ownerFromContext(r.Context()), services.TransactionInput(req))
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx, match))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	txs, err := s.ledger.ListMonth(r.Context(), ownerFromContext(r.Context()), year, month)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx, core.CategoryMatch{Known: true}))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := s.ledger.GetTransaction(r.Context(), ownerFromContext(r.Context()), id)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx, core.CategoryMatch{Known: true}))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, match, err := s.ledger.UpdateTransaction(r.Context(), ownerFromContext(r.Context()), id, services.TransactionInput(req))
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx, match))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), ownerFromContext(r.Context()), id); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	agg, err := s.ledger.Analytics(r.Context(), ownerFromContext(r.Context()), year, month)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.Projection(r.Context(), ownerFromContext(r.Context()), time.Now())
	if errors.Is(err, analytics.ErrInsufficientHistory) {
		// Not a failure: the account simply has too little history.
		writeJSON(w, http.StatusOK, map[string]any{
			"available": false,
			"message":   "at least two months of activity are needed for a projection",
		})
		return
	}
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"available":  true,
		"projection": p,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	recs, err := s.ledger.Recommendations(r.Context(), ownerFromContext(r.Context()), year, month)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	if recs == nil {
		recs = []analytics.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.ledger.MonthlyReports(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	out := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotResponse{
			Year:        snap.Year,
			Month:       snap.Month,
			Income:      snap.Income.StringFixed(2),
			Expense:     snap.Expense.StringFixed(2),
			Balance:     snap.Balance.StringFixed(2),
			Entries:     snap.Entries,
			GeneratedAt: snap.GeneratedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse{ID: b.ID, Category: b.Category, Limit: b.Limit.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := s.ledger.SetBudget(r.Context(), ownerFromContext(r.Context()), req.Category, req.Limit)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{ID: b.ID, Category: b.Category, Limit: b.Limit.String()})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid budget id")
		return
	}

	if err := s.ledger.DeleteBudget(r.Context(), ownerFromContext(r.Context()), id); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	statuses, err := s.ledger.BudgetReport(r.Context(), ownerFromContext(r.Context()), year, month)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = []analytics.BudgetStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

// writeLedgerError maps service errors to HTTP statuses. Validation
// failures are 422, missing rows 404, everything else 500.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrDescriptionTooLong):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
