package http

import "net/http"

type categoryRequest struct {
	Name         string  `json:"name"`
	MonthlyLimit *string `json:"monthly_limit"`
}

type setLimitRequest struct {
	MonthlyLimit *string `json:"monthly_limit"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	NewJSONResponse().Body(out).Send(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	limit, err := parseLimit(req.MonthlyLimit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}

	c, err := s.deps.Categories.CreateCategory(r.Context(), sanitizeInput(req.Name), limit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toCategoryJSON(c)).Send(w)
}

// handleUpdateCategory renames a category and replaces its limit in one call.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	limit, err := parseLimit(req.MonthlyLimit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}

	c, err := s.deps.Categories.UpdateCategory(r.Context(), id, sanitizeInput(req.Name), limit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toCategoryJSON(c)).Send(w)
}

// handleSetLimit sets the monthly limit; a null or empty monthly_limit
// removes it.
func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	var req setLimitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	limit, err := parseLimit(req.MonthlyLimit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}

	c, err := s.deps.Categories.SetLimit(r.Context(), id, limit)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toCategoryJSON(c)).Send(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	if err := s.deps.Categories.DeleteCategory(r.Context(), id); err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}
