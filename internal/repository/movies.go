package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    m.id::text,
    m.title,
    m.slug,
    m.description,
    m.release_year,
    m.popularity,
    m.average_rating,
    m.review_count,
    m.poster_url,
    m.backdrop_url,
    m.category_id::text,
    m.director_id::text,
    m.created_at,
    m.updated_at
`

// MovieWriteParams bundles the editable movie fields. Aggregate fields are
// absent: only SetAggregate writes them.
type MovieWriteParams struct {
	Title       string
	Slug        string
	Description string
	ReleaseYear *int
	Popularity  float64
	PosterURL   string
	BackdropURL string
	CategoryID  *string
	DirectorID  *string
}

// MovieListFilters encapsulates search, ordering and pagination options.
type MovieListFilters struct {
	Query    *string
	Genre    *string
	Year     *int
	Ordering string
	Limit    int
	Offset   int
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items   []domain.Movie
	HasMore bool
}

var movieOrderings = map[string]string{
	"":                "m.popularity DESC, m.average_rating DESC NULLS LAST",
	"popularity":      "m.popularity ASC",
	"-popularity":     "m.popularity DESC",
	"average_rating":  "m.average_rating ASC NULLS FIRST",
	"-average_rating": "m.average_rating DESC NULLS LAST",
	"release_year":    "m.release_year ASC NULLS FIRST",
	"-release_year":   "m.release_year DESC NULLS LAST",
	"title":           "m.title ASC",
	"-title":          "m.title DESC",
}

// ValidMovieOrdering reports whether ordering is accepted by List.
func ValidMovieOrdering(ordering string) bool {
	_, ok := movieOrderings[ordering]
	return ok
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieWriteParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies AS m (id, title, slug, description, release_year, popularity, poster_url, backdrop_url, category_id, director_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, newID(), params.Title, params.Slug, params.Description, params.ReleaseYear,
		params.Popularity, params.PosterURL, params.BackdropURL, params.CategoryID, params.DirectorID)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateWriteError(err)
	}
	return movie, nil
}

// Update replaces the editable fields of a movie.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieWriteParams) (domain.Movie, error) {
	if !validID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE movies AS m
        SET title = $2,
            slug = $3,
            description = $4,
            release_year = $5,
            popularity = $6,
            poster_url = $7,
            backdrop_url = $8,
            category_id = $9,
            director_id = $10,
            updated_at = now()
        WHERE m.id = $1
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, id, params.Title, params.Slug, params.Description, params.ReleaseYear,
		params.Popularity, params.PosterURL, params.BackdropURL, params.CategoryID, params.DirectorID)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateWriteError(err)
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	if !validID(id) {
		return domain.Movie{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns movies that match the provided filters.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	limit := clampLimit(filters.Limit)
	orderBy, ok := movieOrderings[filters.Ordering]
	if !ok {
		return MovieListResult{}, fmt.Errorf("unsupported ordering %q", filters.Ordering)
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		p := arg(containsPattern(strings.TrimSpace(*filters.Query)))
		where = append(where, fmt.Sprintf("(m.title ILIKE %s OR m.description ILIKE %s)", p, p))
	}
	if filters.Genre != nil && strings.TrimSpace(*filters.Genre) != "" {
		p := arg(strings.TrimSpace(*filters.Genre))
		where = append(where, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM movie_genres mg JOIN genres g ON g.id = mg.term_id
            WHERE mg.movie_id = m.id AND (lower(g.code) = lower(%s) OR lower(g.name) = lower(%s)))`, p, p))
	}
	if filters.Year != nil {
		where = append(where, fmt.Sprintf("m.release_year = %s", arg(*filters.Year)))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieColumns)
	queryBuilder.WriteString(" FROM movies m")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(orderBy)
	queryBuilder.WriteString(", m.title ASC, m.id ASC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit+1, max(filters.Offset, 0)))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return MovieListResult{}, err
	}
	items, err := collect(rows, scanMovie)
	if err != nil {
		return MovieListResult{}, err
	}

	result := MovieListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
	}
	return result, nil
}

// Delete removes a movie row. Reviews must already be gone; remaining dependent
// rows (credits, videos, list entries, term links) cascade in the schema.
func (r *MoviesRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAggregate writes the derived rating fields in a single statement so the pair
// is never observed half-updated. It reports false when the movie does not exist.
func (r *MoviesRepository) SetAggregate(ctx context.Context, id string, summary domain.RatingSummary) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	const query = `
        UPDATE movies
        SET average_rating = $2,
            review_count = $3,
            updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, summary.Average, summary.Count)
	if err != nil {
		return false, fmt.Errorf("set movie aggregate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Slug,
		&movie.Description,
		&movie.ReleaseYear,
		&movie.Popularity,
		&movie.AverageRating,
		&movie.ReviewCount,
		&movie.PosterURL,
		&movie.BackdropURL,
		&movie.CategoryID,
		&movie.DirectorID,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
