package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
)

type reviewRequest struct {
	MovieID string `json:"movieId" validate:"required,uuid"`
	Title   string `json:"title" validate:"max=200"`
	Body    string `json:"body"`
	Rating  *int   `json:"rating" validate:"required,gte=0,lte=10"`
}

type reviewPatchRequest struct {
	Title  *string `json:"title" validate:"omitempty,max=200"`
	Body   *string `json:"body"`
	Rating *int    `json:"rating" validate:"omitempty,gte=0,lte=10"`
}

type reviewResponse struct {
	ID         string    `json:"id"`
	MovieID    string    `json:"movieId"`
	MovieTitle string    `json:"movieTitle,omitempty"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := paging(query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	filters := repository.ReviewListFilters{
		MovieID:  optionalString(query, "movie"),
		Ordering: strings.TrimSpace(query.Get("ordering")),
		Limit:    limit,
		Offset:   offset,
	}
	if isTruthy(query.Get("mine")) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication credentials were not provided")
			return
		}
		filters.AuthorID = &principal.UserID
	}

	reviews, err := s.reviews.List(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, r, "list reviews", err)
		return
	}
	out := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, toReviewResponse(rv))
	}
	s.respondJSON(w, http.StatusOK, out)
}

// handleSubmitReview creates the caller's review of a movie, or overwrites it when
// one already exists: 201 on create, 200 on overwrite.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	review, created, err := s.reviews.Submit(r.Context(), actorFromRequest(r), service.SubmitReviewParams{
		MovieID: req.MovieID,
		Title:   strings.TrimSpace(req.Title),
		Body:    req.Body,
		Rating:  *req.Rating,
	})
	if err != nil {
		s.respondServiceError(w, r, "submit review", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/reviews/"+review.ID)
	}
	s.respondJSON(w, status, toReviewResponse(review))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.reviews.Get(r.Context(), idParam(r))
	if err != nil {
		s.respondServiceError(w, r, "fetch review", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewPatchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	review, err := s.reviews.Update(r.Context(), actorFromRequest(r), idParam(r), repository.ReviewPatch{
		Title:  req.Title,
		Body:   req.Body,
		Rating: req.Rating,
	})
	if err != nil {
		s.respondServiceError(w, r, "update review", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reviews.Delete(r.Context(), actorFromRequest(r), idParam(r)); err != nil {
		s.respondServiceError(w, r, "delete review", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toReviewResponse(rv domain.Review) reviewResponse {
	return reviewResponse{
		ID:         rv.ID,
		MovieID:    rv.MovieID,
		MovieTitle: rv.MovieTitle,
		AuthorID:   rv.AuthorID,
		AuthorName: rv.AuthorName,
		Title:      rv.Title,
		Body:       rv.Body,
		Rating:     rv.Rating,
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}
}
