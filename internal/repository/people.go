package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// PeopleRepository provides persistence helpers for people.
type PeopleRepository struct {
	db DBTX
}

const personColumns = `p.id::text, p.name, p.slug, p.bio, p.photo_url, p.created_at, p.updated_at`

// PersonWriteParams bundles the editable person fields.
type PersonWriteParams struct {
	Name     string
	Slug     string
	Bio      string
	PhotoURL string
}

var personOrderings = map[string]string{
	"":            "p.name ASC",
	"name":        "p.name ASC",
	"-name":       "p.name DESC",
	"created_at":  "p.created_at ASC",
	"-created_at": "p.created_at DESC",
}

// ValidPersonOrdering reports whether ordering is accepted by List.
func ValidPersonOrdering(ordering string) bool {
	_, ok := personOrderings[ordering]
	return ok
}

// Create inserts a person.
func (r *PeopleRepository) Create(ctx context.Context, params PersonWriteParams) (domain.Person, error) {
	query := fmt.Sprintf(`
        INSERT INTO people AS p (id, name, slug, bio, photo_url)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, personColumns)
	person, err := scanPerson(r.db.QueryRow(ctx, query, newID(), params.Name, params.Slug, params.Bio, params.PhotoURL))
	if err != nil {
		return domain.Person{}, translateWriteError(err)
	}
	return person, nil
}

// Get fetches a person by id.
func (r *PeopleRepository) Get(ctx context.Context, id string) (domain.Person, error) {
	if !validID(id) {
		return domain.Person{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM people p WHERE p.id = $1`, personColumns)
	person, err := scanPerson(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Person{}, ErrNotFound
		}
		return domain.Person{}, err
	}
	return person, nil
}

// List returns people optionally filtered by a search over name, slug and bio.
func (r *PeopleRepository) List(ctx context.Context, search, ordering string, limit, offset int) ([]domain.Person, error) {
	orderBy, ok := personOrderings[ordering]
	if !ok {
		return nil, fmt.Errorf("unsupported ordering %q", ordering)
	}
	query := fmt.Sprintf(`SELECT %s FROM people p`, personColumns)
	args := make([]interface{}, 0, 1)
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, containsPattern(s))
		query += ` WHERE p.name ILIKE $1 OR p.slug ILIKE $1 OR p.bio ILIKE $1`
	}
	query += fmt.Sprintf(` ORDER BY %s, p.id ASC LIMIT %d OFFSET %d`, orderBy, clampLimit(limit), max(offset, 0))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPerson)
}

func scanPerson(row pgx.Row) (domain.Person, error) {
	var p domain.Person
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Bio, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
