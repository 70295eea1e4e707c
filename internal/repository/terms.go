package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// TermsRepository serves the flat taxonomies (genres, tags, categories, countries,
// languages), which share the same (id, name, code) shape.
type TermsRepository struct {
	db DBTX
}

// termTables maps each kind to its table and, for kinds linked many-to-many with
// movies, the join table.
var termTables = map[domain.TermKind]struct {
	table string
	join  string
}{
	domain.TermGenre:    {table: "genres", join: "movie_genres"},
	domain.TermTag:      {table: "tags", join: "movie_tags"},
	domain.TermCountry:  {table: "countries", join: "movie_countries"},
	domain.TermLanguage: {table: "languages", join: "movie_languages"},
	domain.TermCategory: {table: "categories"},
}

// ErrUnknownTermKind is returned for kinds outside the fixed taxonomy set.
var ErrUnknownTermKind = errors.New("repository: unknown term kind")

// List returns all terms of a kind ordered by name, optionally filtered by a
// case-insensitive search on name or code.
func (r *TermsRepository) List(ctx context.Context, kind domain.TermKind, search string) ([]domain.Term, error) {
	t, ok := termTables[kind]
	if !ok {
		return nil, ErrUnknownTermKind
	}

	query := fmt.Sprintf(`SELECT id::text, name, code FROM %s`, t.table)
	args := make([]interface{}, 0, 1)
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, containsPattern(s))
		query += ` WHERE name ILIKE $1 OR code ILIKE $1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTerm)
}

// Get fetches a single term.
func (r *TermsRepository) Get(ctx context.Context, kind domain.TermKind, id string) (domain.Term, error) {
	t, ok := termTables[kind]
	if !ok {
		return domain.Term{}, ErrUnknownTermKind
	}
	if !validID(id) {
		return domain.Term{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT id::text, name, code FROM %s WHERE id = $1`, t.table)
	term, err := scanTerm(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Term{}, ErrNotFound
		}
		return domain.Term{}, err
	}
	return term, nil
}

// Create inserts a term.
func (r *TermsRepository) Create(ctx context.Context, kind domain.TermKind, name, code string) (domain.Term, error) {
	t, ok := termTables[kind]
	if !ok {
		return domain.Term{}, ErrUnknownTermKind
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, name, code) VALUES ($1,$2,$3) RETURNING id::text, name, code`, t.table)
	term, err := scanTerm(r.db.QueryRow(ctx, query, newID(), name, code))
	if err != nil {
		return domain.Term{}, translateWriteError(err)
	}
	return term, nil
}

// ForMovie returns the terms of a kind linked to movieID.
func (r *TermsRepository) ForMovie(ctx context.Context, kind domain.TermKind, movieID string) ([]domain.Term, error) {
	t, ok := termTables[kind]
	if !ok || t.join == "" {
		return nil, ErrUnknownTermKind
	}
	if !validID(movieID) {
		return []domain.Term{}, nil
	}
	query := fmt.Sprintf(`
        SELECT t.id::text, t.name, t.code
        FROM %s t JOIN %s j ON j.term_id = t.id
        WHERE j.movie_id = $1
        ORDER BY t.name ASC
    `, t.table, t.join)
	rows, err := r.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTerm)
}

// SetForMovie replaces the set of terms of a kind linked to movieID. Unknown
// term ids yield ErrInvalidReference.
func (r *TermsRepository) SetForMovie(ctx context.Context, kind domain.TermKind, movieID string, termIDs []string) error {
	t, ok := termTables[kind]
	if !ok || t.join == "" {
		return ErrUnknownTermKind
	}
	if _, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE movie_id = $1`, t.join), movieID); err != nil {
		return fmt.Errorf("clear %s: %w", t.join, err)
	}
	for _, termID := range termIDs {
		if !validID(termID) {
			return ErrInvalidReference
		}
		query := fmt.Sprintf(`INSERT INTO %s (movie_id, term_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, t.join)
		if _, err := r.db.Exec(ctx, query, movieID, termID); err != nil {
			return translateWriteError(err)
		}
	}
	return nil
}

func scanTerm(row pgx.Row) (domain.Term, error) {
	var term domain.Term
	err := row.Scan(&term.ID, &term.Name, &term.Code)
	return term, err
}
