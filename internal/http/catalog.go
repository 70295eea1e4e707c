package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
)

// termRoutes maps URL segments under /api to the taxonomy they serve.
var termRoutes = map[string]domain.TermKind{
	"genres":     domain.TermGenre,
	"tags":       domain.TermTag,
	"categories": domain.TermCategory,
	"countries":  domain.TermCountry,
	"languages":  domain.TermLanguage,
}

type termRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Code string `json:"code" validate:"omitempty,max=140"`
}

type termResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type personRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"omitempty,max=220"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url"`
}

type personResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleListTerms(kind domain.TermKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terms, err := s.repo.Terms.List(r.Context(), kind, r.URL.Query().Get("search"))
		if err != nil {
			s.respondServiceError(w, r, "list "+string(kind), err)
			return
		}
		s.respondJSON(w, http.StatusOK, toTermResponses(terms))
	}
}

func (s *Server) handleGetTerm(kind domain.TermKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term, err := s.repo.Terms.Get(r.Context(), kind, idParam(r))
		if err != nil {
			s.respondServiceError(w, r, "fetch "+string(kind), err)
			return
		}
		s.respondJSON(w, http.StatusOK, toTermResponse(term))
	}
}

func (s *Server) handleCreateTerm(kind domain.TermKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req termRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			s.respondDecodeError(w, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		code := strings.TrimSpace(req.Code)
		switch {
		case kind == domain.TermCountry || kind == domain.TermLanguage:
			if code == "" {
				s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "code is required")
				return
			}
			if kind == domain.TermCountry {
				if len(code) != 2 {
					s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "code must be a two-letter country code")
					return
				}
				code = strings.ToUpper(code)
			}
			if kind == domain.TermLanguage && len(code) > 10 {
				s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "code must be at most 10 characters")
				return
			}
		case code == "":
			code = service.Slugify(name)
		}

		term, err := s.repo.Terms.Create(r.Context(), kind, name, code)
		if err != nil {
			s.respondServiceError(w, r, "create "+string(kind), err)
			return
		}
		s.respondJSON(w, http.StatusCreated, toTermResponse(term))
	}
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := paging(query)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	ordering := strings.TrimSpace(query.Get("ordering"))
	if !repository.ValidPersonOrdering(ordering) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unsupported ordering")
		return
	}

	people, err := s.repo.People.List(r.Context(), query.Get("search"), ordering, limit, offset)
	if err != nil {
		s.respondServiceError(w, r, "list people", err)
		return
	}
	out := make([]personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonResponse(p))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = service.Slugify(req.Name)
	}
	person, err := s.repo.People.Create(r.Context(), repository.PersonWriteParams{
		Name:     strings.TrimSpace(req.Name),
		Slug:     slug,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		s.respondServiceError(w, r, "create person", err)
		return
	}
	w.Header().Set("Location", "/api/people/"+person.ID)
	s.respondJSON(w, http.StatusCreated, toPersonResponse(person))
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	person, err := s.repo.People.Get(r.Context(), idParam(r))
	if err != nil {
		s.respondServiceError(w, r, "fetch person", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPersonResponse(person))
}

func toTermResponse(t domain.Term) termResponse {
	return termResponse{ID: t.ID, Name: t.Name, Code: t.Code}
}

func toTermResponses(terms []domain.Term) []termResponse {
	out := make([]termResponse, 0, len(terms))
	for _, t := range terms {
		out = append(out, toTermResponse(t))
	}
	return out
}

func toPersonResponse(p domain.Person) personResponse {
	return personResponse{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Bio:       p.Bio,
		PhotoURL:  p.PhotoURL,
		CreatedAt: p.CreatedAt,
	}
}
