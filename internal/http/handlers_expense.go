package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"budgetwatch/internal/core"
)

type expenseRequest struct {
	CategoryID    int64  `json:"category_id"`
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description"`
}

func (req expenseRequest) toExpense(now time.Time) (core.Expense, error) {
	date := core.DateOf(now)
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		date = d
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	return core.Expense{
		CategoryID:    req.CategoryID,
		Date:          date,
		Amount:        core.Money{Cents: cents},
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		Description:   sanitizeInput(req.Description),
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	e, err := req.toExpense(time.Now())
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}

	saved, err := s.deps.Expenses.AddExpense(r.Context(), e)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/expenses/%d", saved.ID)).
		Body(toExpenseJSON(saved)).Send(w)
}

// handleUpdateExpense replaces every editable field; an omitted date means
// today, as on create.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	e, err := req.toExpense(time.Now())
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	e.ID = id

	saved, err := s.deps.Expenses.UpdateExpense(r.Context(), e)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toExpenseJSON(saved)).Send(w)
}

// handleListExpenses picks one listing by query: from/to for a date range,
// category_id for one category, q for a description search, and otherwise
// the most recent expenses bounded by limit.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	from, hasFrom, err := queryDate(r, "from")
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	to, hasTo, err := queryDate(r, "to")
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	categoryID, hasCategory, err := queryInt(r, "category_id")
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}

	var list []core.Expense
	switch {
	case hasFrom || hasTo:
		if !hasFrom || !hasTo {
			ErrorResponse(fmt.Errorf("%w: from and to must be given together", errBadRequest)).Send(w)
			return
		}
		list, err = s.deps.Expenses.ListByRange(ctx, from, to)
	case hasCategory:
		list, err = s.deps.Expenses.ListByCategory(ctx, categoryID)
	case q.Has("q"):
		list, err = s.deps.Expenses.Search(ctx, q.Get("q"))
	default:
		list, err = s.deps.Expenses.ListRecent(ctx, int(limit))
	}
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toExpenseList(list)).Send(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	e, err := s.deps.Expenses.GetExpense(r.Context(), id)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toExpenseJSON(e)).Send(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	if err := s.deps.Expenses.DeleteExpense(r.Context(), id); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}
