package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"centime/internal/core"
)

type expenseRequest struct {
	Amount        core.Money `json:"amount"`
	Description   string     `json:"description"`
	CategoryID    uuid.UUID  `json:"category_id"`
	Date          core.Date  `json:"date"`
	PaymentMethod *string    `json:"payment_method"`
	IsRecurring   bool       `json:"is_recurring"`
	Tags          []string   `json:"tags"`
}

func (req expenseRequest) toInput() core.ExpenseInput {
	return core.ExpenseInput{
		Amount:        req.Amount,
		Description:   strings.TrimSpace(req.Description),
		CategoryID:    req.CategoryID,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		IsRecurring:   req.IsRecurring,
		Tags:          req.Tags,
	}
}

// pageParam reads the page query parameter, defaulting to the first
// page on anything unparseable.
func pageParam(r *http.Request) int64 {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1
	}
	page, err := strconv.ParseInt(v, 10, 64)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &core.Error{Kind: core.KindValidation, Message: "invalid " + name, Err: err}
	}
	return id, nil
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.expenses.Add(r.Context(), userIDFrom(r.Context()), req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	res, err := s.expenses.List(r.Context(), userIDFrom(r.Context()), pageParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathUUID(r, "expense_id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.expenses.GetByID(r.Context(), userIDFrom(r.Context()), expenseID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathUUID(r, "expense_id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	e, err := s.expenses.Edit(r.Context(), userIDFrom(r.Context()), expenseID, req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathUUID(r, "expense_id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.expenses.Delete(r.Context(), userIDFrom(r.Context()), expenseID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleTotalExpenses(w http.ResponseWriter, r *http.Request) {
	total, err := s.expenses.TotalAll(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]core.Money{"total": total})
}

func (s *Server) handleFilterByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathUUID(r, "category_id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.expenses.FilterByCategory(r.Context(), userIDFrom(r.Context()), categoryID, pageParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}
