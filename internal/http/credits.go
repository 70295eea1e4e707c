package httpserver

import (
	"net/http"
	"strings"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

type creditRequest struct {
	MovieID     string `json:"movieId" validate:"required,uuid"`
	PersonID    string `json:"personId" validate:"required,uuid"`
	Role        string `json:"role" validate:"required,max=80"`
	CreditOrder int    `json:"creditOrder" validate:"gte=0"`
}

type creditResponse struct {
	ID          string         `json:"id"`
	MovieID     string         `json:"movieId"`
	Person      personResponse `json:"person"`
	Role        string         `json:"role"`
	CreditOrder int            `json:"creditOrder"`
}

func (req creditRequest) params() repository.CreditWriteParams {
	return repository.CreditWriteParams{
		MovieID:     req.MovieID,
		PersonID:    req.PersonID,
		Role:        strings.TrimSpace(req.Role),
		CreditOrder: req.CreditOrder,
	}
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.repo.Credits.List(r.Context(), optionalString(r.URL.Query(), "movie"))
	if err != nil {
		s.respondServiceError(w, r, "list credits", err)
		return
	}
	out := make([]creditResponse, 0, len(credits))
	for _, c := range credits {
		out = append(out, toCreditResponse(c))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	credit, err := s.repo.Credits.Create(r.Context(), req.params())
	if err != nil {
		s.respondServiceError(w, r, "create credit", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toCreditResponse(credit))
}

func (s *Server) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	credit, err := s.repo.Credits.Get(r.Context(), idParam(r))
	if err != nil {
		s.respondServiceError(w, r, "fetch credit", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCreditResponse(credit))
}

func (s *Server) handleUpdateCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	credit, err := s.repo.Credits.Update(r.Context(), idParam(r), req.params())
	if err != nil {
		s.respondServiceError(w, r, "update credit", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toCreditResponse(credit))
}

func (s *Server) handleDeleteCredit(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Credits.Delete(r.Context(), idParam(r)); err != nil {
		s.respondServiceError(w, r, "delete credit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCreditResponse(c domain.Credit) creditResponse {
	return creditResponse{
		ID:          c.ID,
		MovieID:     c.MovieID,
		Person:      toPersonResponse(c.Person),
		Role:        c.Role,
		CreditOrder: c.CreditOrder,
	}
}
