package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/metrics"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

// ReviewStore is the subset of the reviews repository used by Reviews.
type ReviewStore interface {
	Upsert(ctx context.Context, params repository.ReviewUpsertParams) (domain.Review, bool, error)
	OverwriteExisting(ctx context.Context, params repository.ReviewUpsertParams) (domain.Review, error)
	Patch(ctx context.Context, id string, patch repository.ReviewPatch) (domain.Review, error)
	Get(ctx context.Context, id string) (domain.Review, error)
	List(ctx context.Context, filters repository.ReviewListFilters) ([]domain.Review, error)
	Delete(ctx context.Context, id string) (domain.Review, error)
	RatingsForMovie(ctx context.Context, movieID string) ([]int, error)
}

// AggregateWriter persists a movie's derived rating fields.
type AggregateWriter interface {
	SetAggregate(ctx context.Context, movieID string, summary domain.RatingSummary) (bool, error)
}

// Reviews owns review writes and keeps each movie's rating aggregate in step with them.
type Reviews struct {
	reviews ReviewStore
	movies  AggregateWriter
	logger  zerolog.Logger
}

// NewReviews constructs the review service.
func NewReviews(reviews ReviewStore, movies AggregateWriter, logger zerolog.Logger) *Reviews {
	return &Reviews{
		reviews: reviews,
		movies:  movies,
		logger:  logger.With().Str("component", "reviews").Logger(),
	}
}

// SubmitReviewParams is the payload of a review submission.
type SubmitReviewParams struct {
	MovieID string
	Title   string
	Body    string
	Rating  int
}

// OnReviewChanged recomputes the average rating and review count of movieID from
// the reviews currently stored and writes both fields in one update. A movie that
// no longer exists is skipped without error.
func (s *Reviews) OnReviewChanged(ctx context.Context, movieID string) error {
	ratings, err := s.reviews.RatingsForMovie(ctx, movieID)
	if err != nil {
		metrics.ObserveRecompute(metrics.RecomputeError)
		return fmt.Errorf("recompute aggregate: %w", err)
	}

	summary := domain.Summarize(ratings)
	found, err := s.movies.SetAggregate(ctx, movieID, summary)
	if err != nil {
		metrics.ObserveRecompute(metrics.RecomputeError)
		return fmt.Errorf("recompute aggregate: %w", err)
	}
	if !found {
		metrics.ObserveRecompute(metrics.RecomputeMissing)
		s.logger.Debug().Str("movie_id", movieID).Msg("movie gone, aggregate recompute skipped")
		return nil
	}

	metrics.ObserveRecompute(metrics.RecomputeUpdated)
	return nil
}

// Submit creates the actor's review of a movie or overwrites the one they already
// have. created reports whether a new row was inserted.
func (s *Reviews) Submit(ctx context.Context, actor Actor, params SubmitReviewParams) (review domain.Review, created bool, err error) {
	if err := validateRating(params.Rating); err != nil {
		return domain.Review{}, false, err
	}

	upsert := repository.ReviewUpsertParams{
		MovieID:  params.MovieID,
		AuthorID: actor.UserID,
		Title:    params.Title,
		Body:     params.Body,
		Rating:   params.Rating,
	}
	review, created, err = s.reviews.Upsert(ctx, upsert)
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent insert for the same pair won; apply ours on top of it.
		metrics.ObserveReviewSubmission("retried")
		review, err = s.reviews.OverwriteExisting(ctx, upsert)
		created = false
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return domain.Review{}, false, ErrNotFound
		}
		return domain.Review{}, false, fmt.Errorf("submit review: %w", err)
	}

	if created {
		metrics.ObserveReviewSubmission("created")
	} else {
		metrics.ObserveReviewSubmission("overwritten")
	}

	if err := s.OnReviewChanged(ctx, review.MovieID); err != nil {
		return domain.Review{}, false, err
	}
	return review, created, nil
}

// Update applies a partial edit to a review owned by actor.
func (s *Reviews) Update(ctx context.Context, actor Actor, reviewID string, patch repository.ReviewPatch) (domain.Review, error) {
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return domain.Review{}, err
		}
	}

	current, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	if current.AuthorID != actor.UserID {
		return domain.Review{}, ErrForbidden
	}

	updated, err := s.reviews.Patch(ctx, reviewID, patch)
	if err != nil {
		return domain.Review{}, fmt.Errorf("update review: %w", err)
	}
	if err := s.OnReviewChanged(ctx, updated.MovieID); err != nil {
		return domain.Review{}, err
	}
	return updated, nil
}

// Delete removes a review. Only its author or a staff user may delete it.
func (s *Reviews) Delete(ctx context.Context, actor Actor, reviewID string) error {
	current, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if current.AuthorID != actor.UserID && !actor.IsStaff {
		return ErrForbidden
	}

	deleted, err := s.reviews.Delete(ctx, reviewID)
	if err != nil {
		return err
	}
	return s.OnReviewChanged(ctx, deleted.MovieID)
}

// Get returns a single review.
func (s *Reviews) Get(ctx context.Context, reviewID string) (domain.Review, error) {
	return s.reviews.Get(ctx, reviewID)
}

// List returns reviews filtered by movie and/or author.
func (s *Reviews) List(ctx context.Context, filters repository.ReviewListFilters) ([]domain.Review, error) {
	if !repository.ValidReviewOrdering(filters.Ordering) {
		return nil, fmt.Errorf("%w: unsupported ordering %q", ErrInvalidInput, filters.Ordering)
	}
	return s.reviews.List(ctx, filters)
}

func validateRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	return nil
}
