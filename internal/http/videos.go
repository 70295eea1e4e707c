package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

type videoRequest struct {
	MovieID  string `json:"movieId" validate:"required,uuid"`
	Title    string `json:"title" validate:"required,max=200"`
	Kind     string `json:"kind" validate:"required,oneof=trailer teaser clip featurette other"`
	URL      string `json:"url" validate:"omitempty,url"`
	Site     string `json:"site" validate:"omitempty,max=40"`
	Key      string `json:"key" validate:"omitempty,max=80"`
	Language string `json:"language" validate:"omitempty,max=10"`
}

type videoResponse struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url,omitempty"`
	Site      string    `json:"site,omitempty"`
	Key       string    `json:"key,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.repo.Videos.List(r.Context(), optionalString(r.URL.Query(), "movie"))
	if err != nil {
		s.respondServiceError(w, r, "list videos", err)
		return
	}
	out := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoResponse(v))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	video, err := s.repo.Videos.Create(r.Context(), req.params())
	if err != nil {
		s.respondServiceError(w, r, "create video", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toVideoResponse(video))
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.repo.Videos.Get(r.Context(), idParam(r))
	if err != nil {
		s.respondServiceError(w, r, "fetch video", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toVideoResponse(video))
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	video, err := s.repo.Videos.Update(r.Context(), idParam(r), req.params())
	if err != nil {
		s.respondServiceError(w, r, "update video", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toVideoResponse(video))
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Videos.Delete(r.Context(), idParam(r)); err != nil {
		s.respondServiceError(w, r, "delete video", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req videoRequest) params() repository.VideoWriteParams {
	return repository.VideoWriteParams{
		MovieID:  req.MovieID,
		Title:    strings.TrimSpace(req.Title),
		Kind:     req.Kind,
		URL:      strings.TrimSpace(req.URL),
		Site:     strings.TrimSpace(req.Site),
		Key:      strings.TrimSpace(req.Key),
		Language: strings.TrimSpace(req.Language),
	}
}

func toVideoResponse(v domain.Video) videoResponse {
	return videoResponse{
		ID:        v.ID,
		MovieID:   v.MovieID,
		Title:     v.Title,
		Kind:      v.Kind,
		URL:       v.URL,
		Site:      v.Site,
		Key:       v.Key,
		Language:  v.Language,
		CreatedAt: v.CreatedAt,
	}
}
