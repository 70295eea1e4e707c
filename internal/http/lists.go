package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

// listRoutes maps URL segments under /api to the per-user list they manage.
var listRoutes = map[string]domain.ListKind{
	"watchlist": domain.ListWatchlist,
	"favorites": domain.ListFavorites,
}

type listItemRequest struct {
	MovieID string `json:"movieId" validate:"required,uuid"`
}

type listItemResponse struct {
	ID         string    `json:"id"`
	MovieID    string    `json:"movieId"`
	MovieTitle string    `json:"movieTitle"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *Server) handleListItems(kind domain.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.repo.Lists.ListForUser(r.Context(), kind, actorFromRequest(r).UserID)
		if err != nil {
			s.respondServiceError(w, r, "list "+string(kind), err)
			return
		}
		out := make([]listItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, toListItemResponse(item))
		}
		s.respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleAddItem(kind domain.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listItemRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			s.respondDecodeError(w, err)
			return
		}

		item, err := s.repo.Lists.Add(r.Context(), kind, actorFromRequest(r).UserID, req.MovieID)
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.respondError(w, http.StatusConflict, "CONFLICT", "Movie is already in this list")
			return
		case errors.Is(err, repository.ErrInvalidReference):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		case err != nil:
			s.respondServiceError(w, r, "add to "+string(kind), err)
			return
		}
		s.respondJSON(w, http.StatusCreated, toListItemResponse(item))
	}
}

func (s *Server) handleRemoveItem(kind domain.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repo.Lists.Remove(r.Context(), kind, idParam(r), actorFromRequest(r).UserID); err != nil {
			s.respondServiceError(w, r, "remove from "+string(kind), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toListItemResponse(item domain.ListItem) listItemResponse {
	return listItemResponse{
		ID:         item.ID,
		MovieID:    item.MovieID,
		MovieTitle: item.MovieTitle,
		CreatedAt:  item.CreatedAt,
	}
}
