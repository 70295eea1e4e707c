package httpserver

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
)

type movieRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Slug        string   `json:"slug" validate:"omitempty,max=280"`
	Description string   `json:"description"`
	ReleaseYear *int     `json:"releaseYear" validate:"omitempty,gte=1870,lte=2200"`
	Popularity  float64  `json:"popularity" validate:"gte=0"`
	PosterURL   string   `json:"posterUrl" validate:"omitempty,url"`
	BackdropURL string   `json:"backdropUrl" validate:"omitempty,url"`
	CategoryID  *string  `json:"categoryId" validate:"omitempty,uuid"`
	DirectorID  *string  `json:"directorId" validate:"omitempty,uuid"`
	GenreIDs    []string `json:"genreIds" validate:"omitempty,dive,uuid"`
	TagIDs      []string `json:"tagIds" validate:"omitempty,dive,uuid"`
	CountryIDs  []string `json:"countryIds" validate:"omitempty,dive,uuid"`
	LanguageIDs []string `json:"languageIds" validate:"omitempty,dive,uuid"`
}

type movieResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	ReleaseYear   *int      `json:"releaseYear,omitempty"`
	Popularity    float64   `json:"popularity"`
	AverageRating *float64  `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	PosterURL     string    `json:"posterUrl,omitempty"`
	BackdropURL   string    `json:"backdropUrl,omitempty"`
	CategoryID    *string   `json:"categoryId,omitempty"`
	DirectorID    *string   `json:"directorId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type movieDetailResponse struct {
	movieResponse
	Category   *termResponse    `json:"category,omitempty"`
	Director   *personResponse  `json:"director,omitempty"`
	Genres     []termResponse   `json:"genres"`
	Tags       []termResponse   `json:"tags"`
	Countries  []termResponse   `json:"countries"`
	Languages  []termResponse   `json:"languages"`
	Credits    []creditResponse `json:"credits"`
	Videos     []videoResponse  `json:"videos"`
	TrailerKey *string          `json:"trailerKey"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.movies.List(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, r, "list movies", err)
		return
	}

	items := make([]movieResponse, 0, len(result.Items))
	for _, movie := range result.Items {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, pageResponse[movieResponse]{Items: items, HasMore: result.HasMore})
}

func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	filters.Query = optionalString(query, "q")
	filters.Genre = optionalString(query, "genre")
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	filters.Ordering = strings.TrimSpace(query.Get("ordering"))

	limit, offset, err := paging(query)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	filters.Offset = offset
	return filters, nil
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	detail, err := s.movies.Create(r.Context(), req.input())
	if err != nil {
		s.respondServiceError(w, r, "create movie", err)
		return
	}

	w.Header().Set("Location", "/api/movies/"+detail.ID)
	s.respondJSON(w, http.StatusCreated, toMovieDetailResponse(detail))
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	detail, err := s.movies.Get(r.Context(), idParam(r))
	if err != nil {
		s.respondServiceError(w, r, "fetch movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieDetailResponse(detail))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	detail, err := s.movies.Update(r.Context(), idParam(r), req.input())
	if err != nil {
		s.respondServiceError(w, r, "update movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieDetailResponse(detail))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if err := s.movies.Delete(r.Context(), idParam(r)); err != nil {
		s.respondServiceError(w, r, "delete movie", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req movieRequest) input() service.MovieInput {
	return service.MovieInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		ReleaseYear: req.ReleaseYear,
		Popularity:  req.Popularity,
		PosterURL:   req.PosterURL,
		BackdropURL: req.BackdropURL,
		CategoryID:  normalizeStringPtr(req.CategoryID),
		DirectorID:  normalizeStringPtr(req.DirectorID),
		GenreIDs:    req.GenreIDs,
		TagIDs:      req.TagIDs,
		CountryIDs:  req.CountryIDs,
		LanguageIDs: req.LanguageIDs,
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	resp := movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Slug:        movie.Slug,
		Description: movie.Description,
		ReleaseYear: movie.ReleaseYear,
		Popularity:  movie.Popularity,
		ReviewCount: movie.ReviewCount,
		PosterURL:   movie.PosterURL,
		BackdropURL: movie.BackdropURL,
		CategoryID:  movie.CategoryID,
		DirectorID:  movie.DirectorID,
		CreatedAt:   movie.CreatedAt,
		UpdatedAt:   movie.UpdatedAt,
	}
	if movie.AverageRating != nil {
		avg := roundToTwoDecimals(*movie.AverageRating)
		resp.AverageRating = &avg
	}
	return resp
}

func toMovieDetailResponse(detail domain.MovieDetail) movieDetailResponse {
	resp := movieDetailResponse{
		movieResponse: toMovieResponse(detail.Movie),
		Genres:        toTermResponses(detail.Genres),
		Tags:          toTermResponses(detail.Tags),
		Countries:     toTermResponses(detail.Countries),
		Languages:     toTermResponses(detail.Languages),
		Credits:       make([]creditResponse, 0, len(detail.Credits)),
		Videos:        make([]videoResponse, 0, len(detail.Videos)),
		TrailerKey:    detail.TrailerKey,
	}
	if detail.Category != nil {
		category := toTermResponse(*detail.Category)
		resp.Category = &category
	}
	if detail.Director != nil {
		director := toPersonResponse(*detail.Director)
		resp.Director = &director
	}
	for _, c := range detail.Credits {
		resp.Credits = append(resp.Credits, toCreditResponse(c))
	}
	for _, v := range detail.Videos {
		resp.Videos = append(resp.Videos, toVideoResponse(v))
	}
	return resp
}

func roundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
