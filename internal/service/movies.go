package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

// Movies implements the movie lifecycle on top of the repositories.
type Movies struct {
	repo    *repository.Repository
	reviews *Reviews
	logger  zerolog.Logger
}

// NewMovies constructs the movie service. reviews is notified after a movie is
// deleted so the aggregate engine sees the removal of its reviews.
func NewMovies(repo *repository.Repository, reviews *Reviews, logger zerolog.Logger) *Movies {
	return &Movies{
		repo:    repo,
		reviews: reviews,
		logger:  logger.With().Str("component", "movies").Logger(),
	}
}

// MovieInput carries the editable fields of a movie. Nil term slices leave the
// existing links untouched on update.
type MovieInput struct {
	Title       string
	Slug        string
	Description string
	ReleaseYear *int
	Popularity  float64
	PosterURL   string
	BackdropURL string
	CategoryID  *string
	DirectorID  *string
	GenreIDs    []string
	TagIDs      []string
	CountryIDs  []string
	LanguageIDs []string
}

func (in MovieInput) writeParams() repository.MovieWriteParams {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(in.Title)
	}
	return repository.MovieWriteParams{
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug,
		Description: in.Description,
		ReleaseYear: in.ReleaseYear,
		Popularity:  in.Popularity,
		PosterURL:   in.PosterURL,
		BackdropURL: in.BackdropURL,
		CategoryID:  in.CategoryID,
		DirectorID:  in.DirectorID,
	}
}

func (in MovieInput) termLinks() map[domain.TermKind][]string {
	return map[domain.TermKind][]string{
		domain.TermGenre:    in.GenreIDs,
		domain.TermTag:      in.TagIDs,
		domain.TermCountry:  in.CountryIDs,
		domain.TermLanguage: in.LanguageIDs,
	}
}

// Create stores a movie together with its taxonomy links.
func (s *Movies) Create(ctx context.Context, in MovieInput) (domain.MovieDetail, error) {
	var movieID string
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		movie, err := tx.Movies.Create(ctx, in.writeParams())
		if err != nil {
			return err
		}
		movieID = movie.ID
		return setTermLinks(ctx, tx, movie.ID, in.termLinks())
	})
	if err != nil {
		return domain.MovieDetail{}, movieWriteError("create movie", err)
	}
	return s.Get(ctx, movieID)
}

// Update replaces a movie's editable fields and any provided taxonomy links.
func (s *Movies) Update(ctx context.Context, id string, in MovieInput) (domain.MovieDetail, error) {
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Movies.Update(ctx, id, in.writeParams()); err != nil {
			return err
		}
		return setTermLinks(ctx, tx, id, in.termLinks())
	})
	if err != nil {
		return domain.MovieDetail{}, movieWriteError("update movie", err)
	}
	return s.Get(ctx, id)
}

func setTermLinks(ctx context.Context, tx *repository.Repository, movieID string, links map[domain.TermKind][]string) error {
	for kind, ids := range links {
		if ids == nil {
			continue
		}
		if err := tx.Terms.SetForMovie(ctx, kind, movieID, ids); err != nil {
			return err
		}
	}
	return nil
}

func movieWriteError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrConflict):
		return err
	case errors.Is(err, repository.ErrInvalidReference):
		return fmt.Errorf("%w: referenced category, director or taxonomy term does not exist", ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Get returns a movie with its taxonomy, people, videos and trailer key loaded.
func (s *Movies) Get(ctx context.Context, id string) (domain.MovieDetail, error) {
	movie, err := s.repo.Movies.GetByID(ctx, id)
	if err != nil {
		return domain.MovieDetail{}, err
	}
	detail := domain.MovieDetail{Movie: movie}

	if movie.CategoryID != nil {
		category, err := s.repo.Terms.Get(ctx, domain.TermCategory, *movie.CategoryID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return domain.MovieDetail{}, fmt.Errorf("load category: %w", err)
		}
		if err == nil {
			detail.Category = &category
		}
	}
	if movie.DirectorID != nil {
		director, err := s.repo.People.Get(ctx, *movie.DirectorID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return domain.MovieDetail{}, fmt.Errorf("load director: %w", err)
		}
		if err == nil {
			detail.Director = &director
		}
	}

	terms := []struct {
		kind domain.TermKind
		dst  *[]domain.Term
	}{
		{domain.TermGenre, &detail.Genres},
		{domain.TermTag, &detail.Tags},
		{domain.TermCountry, &detail.Countries},
		{domain.TermLanguage, &detail.Languages},
	}
	for _, t := range terms {
		linked, err := s.repo.Terms.ForMovie(ctx, t.kind, id)
		if err != nil {
			return domain.MovieDetail{}, fmt.Errorf("load %s: %w", t.kind, err)
		}
		*t.dst = linked
	}

	if detail.Credits, err = s.repo.Credits.List(ctx, &id); err != nil {
		return domain.MovieDetail{}, fmt.Errorf("load credits: %w", err)
	}
	if detail.Videos, err = s.repo.Videos.List(ctx, &id); err != nil {
		return domain.MovieDetail{}, fmt.Errorf("load videos: %w", err)
	}
	detail.TrailerKey = TrailerKey(detail.Videos)
	return detail, nil
}

// TrailerKey returns the key of the newest trailer in videos, which are expected
// newest first, or nil when no trailer has a key.
func TrailerKey(videos []domain.Video) *string {
	for _, v := range videos {
		if v.Kind == domain.VideoTrailer && v.Key != "" {
			key := v.Key
			return &key
		}
	}
	return nil
}

// List returns a page of movies.
func (s *Movies) List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error) {
	if !repository.ValidMovieOrdering(filters.Ordering) {
		return repository.MovieListResult{}, fmt.Errorf("%w: unsupported ordering %q", ErrInvalidInput, filters.Ordering)
	}
	return s.repo.Movies.List(ctx, filters)
}

// Delete removes a movie in two explicit steps: its reviews first, then the movie
// itself. The aggregate engine is notified afterwards and finds the movie gone.
func (s *Movies) Delete(ctx context.Context, id string) error {
	var removedReviews int64
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		n, err := tx.Reviews.DeleteByMovie(ctx, id)
		if err != nil {
			return err
		}
		removedReviews = n
		return tx.Movies.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("movie_id", id).Int64("reviews_removed", removedReviews).Msg("movie deleted")
	return s.reviews.OnReviewChanged(ctx, id)
}

// Slugify lowercases s and joins its alphanumeric runs with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
