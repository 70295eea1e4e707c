package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	db DBTX
}

const reviewColumns = `
    r.id::text,
    r.movie_id::text,
    r.author_id::text,
    r.title,
    r.body,
    r.rating,
    r.created_at,
    r.updated_at
`

// ReviewUpsertParams captures the payload required to upsert a review.
type ReviewUpsertParams struct {
	MovieID  string
	AuthorID string
	Title    string
	Body     string
	Rating   int
}

// ReviewPatch holds optional review fields for a partial update.
type ReviewPatch struct {
	Title  *string
	Body   *string
	Rating *int
}

// ReviewListFilters narrows and orders review listings.
type ReviewListFilters struct {
	MovieID  *string
	AuthorID *string
	Ordering string
	Limit    int
	Offset   int
}

var reviewOrderings = map[string]string{
	"":            "r.created_at DESC",
	"-created_at": "r.created_at DESC",
	"created_at":  "r.created_at ASC",
	"rating":      "r.rating ASC",
	"-rating":     "r.rating DESC",
}

// ValidReviewOrdering reports whether ordering is accepted by List.
func ValidReviewOrdering(ordering string) bool {
	_, ok := reviewOrderings[ordering]
	return ok
}

// Upsert inserts or overwrites the review for (movie, author) and indicates whether
// it was newly created. An overwrite keeps the row id and created_at.
func (r *ReviewsRepository) Upsert(ctx context.Context, params ReviewUpsertParams) (domain.Review, bool, error) {
	if !validID(params.MovieID) || !validID(params.AuthorID) {
		return domain.Review{}, false, ErrInvalidReference
	}
	query := fmt.Sprintf(`
        INSERT INTO reviews AS r (id, movie_id, author_id, title, body, rating)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (movie_id, author_id)
        DO UPDATE SET title = EXCLUDED.title,
                      body = EXCLUDED.body,
                      rating = EXCLUDED.rating,
                      updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, reviewColumns)

	var (
		review   domain.Review
		inserted bool
	)
	err := r.db.QueryRow(ctx, query, newID(), params.MovieID, params.AuthorID, params.Title, params.Body, params.Rating).Scan(
		&review.ID,
		&review.MovieID,
		&review.AuthorID,
		&review.Title,
		&review.Body,
		&review.Rating,
		&review.CreatedAt,
		&review.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Review{}, false, translateWriteError(err)
	}
	return review, inserted, nil
}

// OverwriteExisting updates the review held by (movie, author) in place.
func (r *ReviewsRepository) OverwriteExisting(ctx context.Context, params ReviewUpsertParams) (domain.Review, error) {
	if !validID(params.MovieID) || !validID(params.AuthorID) {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE reviews AS r
        SET title = $3, body = $4, rating = $5, updated_at = now()
        WHERE r.movie_id = $1 AND r.author_id = $2
        RETURNING %s
    `, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, params.MovieID, params.AuthorID, params.Title, params.Body, params.Rating))
	if err != nil {
		return domain.Review{}, translateWriteError(err)
	}
	return review, nil
}

// Patch applies the non-nil fields of patch to a review.
func (r *ReviewsRepository) Patch(ctx context.Context, id string, patch ReviewPatch) (domain.Review, error) {
	if !validID(id) {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE reviews AS r
        SET title = COALESCE($2, r.title),
            body = COALESCE($3, r.body),
            rating = COALESCE($4, r.rating),
            updated_at = now()
        WHERE r.id = $1
        RETURNING %s
    `, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, id, patch.Title, patch.Body, patch.Rating))
	if err != nil {
		return domain.Review{}, translateWriteError(err)
	}
	return review, nil
}

// Get retrieves a review with its author name and movie title.
func (r *ReviewsRepository) Get(ctx context.Context, id string) (domain.Review, error) {
	if !validID(id) {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        SELECT %s, u.username, m.title
        FROM reviews r
        JOIN users u ON u.id = r.author_id
        JOIN movies m ON m.id = r.movie_id
        WHERE r.id = $1
    `, reviewColumns)
	review, err := scanReviewDetail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// List returns reviews matching filters.
func (r *ReviewsRepository) List(ctx context.Context, filters ReviewListFilters) ([]domain.Review, error) {
	orderBy, ok := reviewOrderings[filters.Ordering]
	if !ok {
		return nil, fmt.Errorf("unsupported ordering %q", filters.Ordering)
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	if filters.MovieID != nil {
		if !validID(*filters.MovieID) {
			return []domain.Review{}, nil
		}
		args = append(args, *filters.MovieID)
		where = append(where, fmt.Sprintf("r.movie_id = $%d", len(args)))
	}
	if filters.AuthorID != nil {
		if !validID(*filters.AuthorID) {
			return []domain.Review{}, nil
		}
		args = append(args, *filters.AuthorID)
		where = append(where, fmt.Sprintf("r.author_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT %s, u.username, m.title
        FROM reviews r
        JOIN users u ON u.id = r.author_id
        JOIN movies m ON m.id = r.movie_id
    `, reviewColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s, r.id ASC LIMIT %d OFFSET %d", orderBy, clampLimit(filters.Limit), max(filters.Offset, 0))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReviewDetail)
}

// Delete removes a review and returns the deleted row.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) (domain.Review, error) {
	if !validID(id) {
		return domain.Review{}, ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM reviews AS r WHERE r.id = $1 RETURNING %s`, reviewColumns)
	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteByMovie removes every review of a movie and returns how many were deleted.
func (r *ReviewsRepository) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	if !validID(movieID) {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE movie_id = $1`, movieID)
	if err != nil {
		return 0, fmt.Errorf("delete movie reviews: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RatingsForMovie returns the ratings of all reviews currently referencing movieID.
func (r *ReviewsRepository) RatingsForMovie(ctx context.Context, movieID string) ([]int, error) {
	if !validID(movieID) {
		return []int{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT rating FROM reviews WHERE movie_id = $1`, movieID)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	ratings, err := collect(rows, func(row pgx.Row) (int, error) {
		var rating int
		err := row.Scan(&rating)
		return rating, err
	})
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return ratings, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MovieID,
		&review.AuthorID,
		&review.Title,
		&review.Body,
		&review.Rating,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	return review, err
}

func scanReviewDetail(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MovieID,
		&review.AuthorID,
		&review.Title,
		&review.Body,
		&review.Rating,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.AuthorName,
		&review.MovieTitle,
	)
	return review, err
}
