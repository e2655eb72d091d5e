package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"finpulse/internal/core"
)

var errMalformedCategoryID = errors.New("malformed categoryId")

type expenseRequest struct {
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Notes       string     `json:"notes"`
	CategoryID  int64      `json:"categoryId"`
}

func (req expenseRequest) toExpense(id int64) *core.Expense {
	e := &core.Expense{
		ID:          id,
		Date:        req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Notes:       req.Notes,
	}
	if req.CategoryID != 0 {
		e.Category = &core.Category{ID: req.CategoryID}
	}
	return e
}

func decodeBody[T any](r *http.Request, dst *T) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func idFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// filterFromQuery reads the list/export filter parameters. Date errors
// are reported so a malformed range never silently widens the result.
func filterFromQuery(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	f := core.Filter{Search: q.Get("search")}

	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return core.Filter{}, errMalformedCategoryID
		}
		f.CategoryID = id
	}
	if v := q.Get("startDate"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.From = d
	}
	if v := q.Get("endDate"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.To = d
	}
	return f, nil
}

// serveCached writes the cached JSON for key if fresh, otherwise computes,
// caches and writes it.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, compute func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	if body, ok := s.viewCache.Get(key); ok {
		slog.DebugContext(ctx, "View cache hit", "key", key)
		writeCachedJSON(w, body)
		return
	}

	v, err := compute(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode view", "key", key, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}
	s.viewCache.Set(key, body)
	writeCachedJSON(w, body)
}

func writeCachedJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.serveCached(w, r, "expenses:list:"+r.URL.RawQuery, func(ctx context.Context) (any, error) {
		expenses, err := s.expenses.List(ctx, f)
		if err != nil {
			return nil, err
		}
		if expenses == nil {
			expenses = []core.Expense{}
		}
		return map[string]any{"expenses": expenses}, nil
	})
}

func (s *Server) handleGroupedExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.serveCached(w, r, "expenses:grouped:"+r.URL.RawQuery, func(ctx context.Context) (any, error) {
		groups, err := s.expenses.Grouped(ctx, f)
		if err != nil {
			return nil, err
		}
		if groups == nil {
			groups = []core.DayGroup{}
		}
		return map[string]any{"groups": groups}, nil
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return
	}

	created, stale, err := s.expenses.Create(r.Context(), req.toExpense(0))
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	respondJSON(r.Context(), w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, stale, err := s.expenses.Update(r.Context(), req.toExpense(id))
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	respondJSON(r.Context(), w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	stale, err := s.expenses.Delete(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	doc, filename, err := s.expenses.ExportCSV(r.Context(), f)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
