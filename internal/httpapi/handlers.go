package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kumbara/internal/core"
	"kumbara/internal/engine"
)

// Wire DTOs. Amounts travel as decimal strings on the way in ("150.00")
// and as cents on the way out.

type transactionResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	AmountCents int64   `json:"amountCents"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"categoryId"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	PhotoRef    string  `json:"photoRef,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type budgetResponse struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"categoryId"`
	Month       string  `json:"month"`
	AmountCents int64   `json:"amountCents"`
	SpentCents  int64   `json:"spentCents"`
	Percentage  float64 `json:"percentage"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type summaryResponse struct {
	Month            string                   `json:"month"`
	Budgets          []budgetWithCategoryResp `json:"budgets"`
	TotalBudgetCents int64                    `json:"totalBudgetCents"`
	TotalSpentCents  int64                    `json:"totalSpentCents"`
	Percentage       float64                  `json:"percentage"`
}

type budgetWithCategoryResp struct {
	budgetResponse
	CategoryLabel string `json:"categoryLabel"`
	CategoryIcon  string `json:"categoryIcon"`
	CategoryColor string `json:"categoryColor"`
}

func transactionToResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.Lira(),
		CategoryID:  t.CategoryID,
		Date:        t.Date.String(),
		Description: t.Description,
		PhotoRef:    t.PhotoRef,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func budgetToResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		Month:       b.Month.String(),
		AmountCents: b.Amount.Cents,
		SpentCents:  b.Spent.Cents,
		Percentage:  core.Percent(b.Spent, b.Amount),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	type categoryResp struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
		Kind  string `json:"kind"`
	}
	cats := s.catalog.List()
	out := make([]categoryResp, len(cats))
	for i, c := range cats {
		out[i] = categoryResp{ID: c.ID, Label: c.Label, Icon: c.Icon, Color: c.Color, Kind: string(c.Kind)}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type transactionRequest struct {
	Type        *string `json:"type"`
	Amount      *string `json:"amount"`
	CategoryID  *string `json:"categoryId"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	PhotoRef    *string `json:"photoRef"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == nil || req.Amount == nil || req.CategoryID == nil || req.Date == nil {
		s.writeError(w, http.StatusBadRequest, "type, amount, categoryId and date are required")
		return
	}

	typ := core.TransactionType(strings.TrimSpace(*req.Type))
	amount, amountErr := parseDecimal(*req.Amount)
	date, dateErr := core.ParseDate(*req.Date)
	in := engine.TransactionInput{
		Type:       typ,
		Amount:     amount,
		CategoryID: strings.TrimSpace(*req.CategoryID),
		Date:       date,
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.PhotoRef != nil {
		in.PhotoRef = *req.PhotoRef
	}

	// Caller-side validation; the engine itself accepts anything.
	switch {
	case !typ.IsValid():
		s.writeError(w, http.StatusBadRequest, "type must be income or expense")
		return
	case amountErr != nil:
		s.writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	case dateErr != nil:
		s.writeError(w, http.StatusBadRequest, "date must be formatted as 2006-01-02")
		return
	case in.CategoryID == "":
		s.writeError(w, http.StatusBadRequest, "categoryId is required")
		return
	}

	t, err := s.engine.AddTransaction(r.Context(), in)
	s.dropSummary(core.MonthOf(t.Date))
	s.writeMutation(w, http.StatusCreated, transactionToResponse(t), err)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, _ *http.Request) {
	txs := s.engine.Transactions()
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = transactionToResponse(t)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.engine.Transaction(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writeJSON(w, http.StatusOK, transactionToResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch core.TransactionPatch
	if req.Type != nil {
		typ := core.TransactionType(strings.TrimSpace(*req.Type))
		if !typ.IsValid() {
			s.writeError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
		patch.Type = &typ
	}
	if req.Amount != nil {
		amount, err := parseDecimal(*req.Amount)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
			return
		}
		patch.Amount = &amount
	}
	if req.CategoryID != nil {
		cat := strings.TrimSpace(*req.CategoryID)
		if cat == "" {
			s.writeError(w, http.StatusBadRequest, "categoryId cannot be empty")
			return
		}
		patch.CategoryID = &cat
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be formatted as 2006-01-02")
			return
		}
		patch.Date = &date
	}
	patch.Description = req.Description
	patch.PhotoRef = req.PhotoRef

	id := r.PathValue("id")
	if old, err := s.engine.Transaction(id); err == nil {
		s.dropSummary(core.MonthOf(old.Date))
	}
	t, err := s.engine.UpdateTransaction(r.Context(), id, patch)
	if err == nil || isPersistence(err) {
		s.dropSummary(core.MonthOf(t.Date))
	}
	s.writeMutation(w, http.StatusOK, transactionToResponse(t), err)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if old, err := s.engine.Transaction(id); err == nil {
		s.dropSummary(core.MonthOf(old.Date))
	}
	err := s.engine.RemoveTransaction(r.Context(), id)
	s.writeMutation(w, http.StatusOK, map[string]string{"deleted": id}, err)
}

func (s *Server) handleTotals(w http.ResponseWriter, _ *http.Request) {
	income, expense := s.engine.Totals()
	s.writeJSON(w, http.StatusOK, map[string]int64{
		"totalIncomeCents":  income.Cents,
		"totalExpenseCents": expense.Cents,
	})
}

type budgetRequest struct {
	CategoryID *string `json:"categoryId"`
	Month      *string `json:"month"`
	Amount     *string `json:"amount"`
	Spent      *string `json:"spent"`
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CategoryID == nil || req.Month == nil || req.Amount == nil {
		s.writeError(w, http.StatusBadRequest, "categoryId, month and amount are required")
		return
	}

	month, err := core.ParseMonth(*req.Month)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "month must be formatted as 2006-01")
		return
	}
	amount, err := parseDecimal(*req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}
	categoryID := strings.TrimSpace(*req.CategoryID)
	if categoryID == "" {
		s.writeError(w, http.StatusBadRequest, "categoryId is required")
		return
	}

	b, err := s.engine.AddBudget(r.Context(), categoryID, month, amount)
	s.dropSummary(month)
	s.writeMutation(w, http.StatusCreated, budgetToResponse(b), err)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "month query parameter must be formatted as 2006-01")
		return
	}
	joined := s.engine.BudgetsByMonth(r.Context(), month)
	out := make([]budgetWithCategoryResp, len(joined))
	for i, b := range joined {
		out[i] = joinedToResponse(b)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch core.BudgetPatch
	if req.Amount != nil {
		amount, err := parseDecimal(*req.Amount)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
			return
		}
		patch.Amount = &amount
	}
	if req.Spent != nil {
		// Spent may be reset to zero by an explicit override.
		spent, err := parseDecimalAllowZero(*req.Spent)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "spent must be a non-negative decimal")
			return
		}
		patch.Spent = &spent
	}

	b, err := s.engine.UpdateBudget(r.Context(), r.PathValue("id"), patch)
	if err == nil || isPersistence(err) {
		s.dropSummary(b.Month)
	}
	s.writeMutation(w, http.StatusOK, budgetToResponse(b), err)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if old, err := s.engine.Budget(id); err == nil {
		s.dropSummary(old.Month)
	}
	err := s.engine.DeleteBudget(r.Context(), id)
	s.writeMutation(w, http.StatusOK, map[string]string{"deleted": id}, err)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "month query parameter must be formatted as 2006-01")
		return
	}

	summary, hit := s.summaries.Get(month.String())
	if !hit {
		summary = s.engine.MonthlySummary(r.Context(), month)
		s.summaries.Set(month.String(), summary)
	}

	resp := summaryResponse{
		Month:            summary.Month.String(),
		Budgets:          make([]budgetWithCategoryResp, len(summary.Budgets)),
		TotalBudgetCents: summary.TotalBudget.Cents,
		TotalSpentCents:  summary.TotalSpent.Cents,
		Percentage:       summary.Percentage,
	}
	for i, b := range summary.Budgets {
		resp.Budgets[i] = joinedToResponse(b)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func joinedToResponse(b core.BudgetWithCategory) budgetWithCategoryResp {
	return budgetWithCategoryResp{
		budgetResponse: budgetToResponse(b.Budget),
		CategoryLabel:  b.Category.Label,
		CategoryIcon:   b.Category.Icon,
		CategoryColor:  b.Category.Color,
	}
}

func (s *Server) dropSummary(month core.Month) {
	s.summaries.Delete(month.String())
}

func isPersistence(err error) bool {
	var pe *engine.PersistenceError
	return errors.As(err, &pe)
}

func parseDecimal(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func parseDecimalAllowZero(s string) (core.Money, error) {
	t := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if f, err := strconv.ParseFloat(t, 64); err == nil && f == 0 {
		return core.Money{}, nil
	}
	return parseDecimal(s)
}
