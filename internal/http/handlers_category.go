package http

import (
	"context"
	"net/http"

	"finpulse/internal/core"
)

type categoryRequest struct {
	Name   string      `json:"name"`
	Icon   string      `json:"icon"`
	Color  string      `json:"color"`
	Budget *core.Money `json:"budgetAmount"`
}

func (req categoryRequest) toCategory(id int64) *core.Category {
	return &core.Category{
		ID:     id,
		Name:   req.Name,
		Icon:   req.Icon,
		Color:  req.Color,
		Budget: req.Budget,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "categories:all", func(ctx context.Context) (any, error) {
		categories, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		if categories == nil {
			categories = []core.Category{}
		}
		return map[string]any{"categories": categories}, nil
	})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	c, err := s.categories.Get(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, c)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return
	}

	created, stale, err := s.categories.Create(r.Context(), req.toCategory(0))
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	respondJSON(r.Context(), w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, stale, err := s.categories.Update(r.Context(), req.toCategory(id))
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	respondJSON(r.Context(), w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idFromPath(r)
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed id")
		return
	}

	stale, err := s.categories.Delete(r.Context(), id)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	w.WriteHeader(http.StatusNoContent)
}

type budgetRequest struct {
	CategoryID int64       `json:"categoryId"`
	Amount     *core.Money `json:"amount"`
}

// handleSetBudget sets or clears a category's monthly budget; a null
// amount removes the ceiling.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, stale, err := s.categories.SetBudget(r.Context(), req.CategoryID, req.Amount)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.invalidate(r.Context(), stale)
	respondJSON(r.Context(), w, http.StatusOK, updated)
}
