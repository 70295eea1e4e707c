package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// CreditsRepository stores the cast and crew of movies.
type CreditsRepository struct {
	db DBTX
}

// CreditWriteParams bundles the editable fields of a credit.
type CreditWriteParams struct {
	MovieID     string
	PersonID    string
	Role        string
	CreditOrder int
}

const creditSelect = `
    SELECT c.id::text, c.movie_id::text, c.role, c.credit_order, c.created_at, c.updated_at,
           ` + personColumns + `
    FROM credits c
    JOIN people p ON p.id = c.person_id
`

// Create inserts a credit and returns it with the person loaded.
func (r *CreditsRepository) Create(ctx context.Context, params CreditWriteParams) (domain.Credit, error) {
	if !validID(params.MovieID) || !validID(params.PersonID) {
		return domain.Credit{}, ErrInvalidReference
	}
	id := newID()
	_, err := r.db.Exec(ctx, `
        INSERT INTO credits (id, movie_id, person_id, role, credit_order)
        VALUES ($1,$2,$3,$4,$5)
    `, id, params.MovieID, params.PersonID, params.Role, params.CreditOrder)
	if err != nil {
		return domain.Credit{}, translateWriteError(err)
	}
	return r.Get(ctx, id)
}

// Update replaces the editable fields of a credit and returns it with the person loaded.
func (r *CreditsRepository) Update(ctx context.Context, id string, params CreditWriteParams) (domain.Credit, error) {
	if !validID(id) {
		return domain.Credit{}, ErrNotFound
	}
	if !validID(params.MovieID) || !validID(params.PersonID) {
		return domain.Credit{}, ErrInvalidReference
	}
	tag, err := r.db.Exec(ctx, `
        UPDATE credits
        SET movie_id = $2, person_id = $3, role = $4, credit_order = $5, updated_at = now()
        WHERE id = $1
    `, id, params.MovieID, params.PersonID, params.Role, params.CreditOrder)
	if err != nil {
		return domain.Credit{}, translateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Credit{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Get fetches a credit by id.
func (r *CreditsRepository) Get(ctx context.Context, id string) (domain.Credit, error) {
	if !validID(id) {
		return domain.Credit{}, ErrNotFound
	}
	credit, err := scanCredit(r.db.QueryRow(ctx, creditSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Credit{}, ErrNotFound
		}
		return domain.Credit{}, err
	}
	return credit, nil
}

// List returns credits ordered by credit order, optionally for a single movie.
func (r *CreditsRepository) List(ctx context.Context, movieID *string) ([]domain.Credit, error) {
	query := creditSelect
	args := make([]interface{}, 0, 1)
	if movieID != nil {
		if !validID(*movieID) {
			return []domain.Credit{}, nil
		}
		args = append(args, *movieID)
		query += ` WHERE c.movie_id = $1`
	}
	query += ` ORDER BY c.credit_order ASC, c.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	return collect(rows, scanCredit)
}

// Delete removes a credit.
func (r *CreditsRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM credits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCredit(row pgx.Row) (domain.Credit, error) {
	var c domain.Credit
	err := row.Scan(
		&c.ID, &c.MovieID, &c.Role, &c.CreditOrder, &c.CreatedAt, &c.UpdatedAt,
		&c.Person.ID, &c.Person.Name, &c.Person.Slug, &c.Person.Bio, &c.Person.PhotoURL,
		&c.Person.CreatedAt, &c.Person.UpdatedAt,
	)
	return c, err
}
