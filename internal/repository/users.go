package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// UsersRepository stores accounts.
type UsersRepository struct {
	db DBTX
}

const userColumns = `id::text, username, email, password_hash, is_staff, created_at`

// Create inserts a user. A taken username yields ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, username, email, passwordHash string, isStaff bool) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO users (id, username, email, password_hash, is_staff)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING `+userColumns, newID(), username, email, passwordHash, isStaff)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, translateWriteError(err)
	}
	return user, nil
}

// EnsureStaff creates username as a staff account, or promotes the existing account
// and replaces its email and password hash.
func (r *UsersRepository) EnsureStaff(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO users AS u (id, username, email, password_hash, is_staff)
        VALUES ($1,$2,$3,$4,TRUE)
        ON CONFLICT (username) DO UPDATE
        SET email = EXCLUDED.email, password_hash = EXCLUDED.password_hash, is_staff = TRUE
        RETURNING `+userColumns, newID(), username, email, passwordHash)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, translateWriteError(err)
	}
	return user, nil
}

// GetByID fetches a user by id.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if !validID(id) {
		return domain.User{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername fetches a user by username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UsersRepository) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt)
	return u, err
}
