package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// ListsRepository stores user-scoped movie lists (watchlist and favorites).
type ListsRepository struct {
	db DBTX
}

func listTable(kind domain.ListKind) (string, error) {
	switch kind {
	case domain.ListWatchlist, domain.ListFavorites:
		return string(kind), nil
	default:
		return "", fmt.Errorf("unknown list kind %q", kind)
	}
}

// Add saves movieID to the user's list. Adding the same movie twice yields ErrConflict.
func (r *ListsRepository) Add(ctx context.Context, kind domain.ListKind, userID, movieID string) (domain.ListItem, error) {
	table, err := listTable(kind)
	if err != nil {
		return domain.ListItem{}, err
	}
	if !validID(userID) || !validID(movieID) {
		return domain.ListItem{}, ErrInvalidReference
	}
	query := fmt.Sprintf(`
        WITH inserted AS (
            INSERT INTO %s (id, user_id, movie_id) VALUES ($1,$2,$3)
            RETURNING id, user_id, movie_id, created_at
        )
        SELECT i.id::text, i.user_id::text, i.movie_id::text, m.title, i.created_at
        FROM inserted i JOIN movies m ON m.id = i.movie_id
    `, table)
	item, err := scanListItem(r.db.QueryRow(ctx, query, newID(), userID, movieID))
	if err != nil {
		return domain.ListItem{}, translateWriteError(err)
	}
	return item, nil
}

// ListForUser returns the user's list, newest first.
func (r *ListsRepository) ListForUser(ctx context.Context, kind domain.ListKind, userID string) ([]domain.ListItem, error) {
	table, err := listTable(kind)
	if err != nil {
		return nil, err
	}
	if !validID(userID) {
		return []domain.ListItem{}, nil
	}
	query := fmt.Sprintf(`
        SELECT l.id::text, l.user_id::text, l.movie_id::text, m.title, l.created_at
        FROM %s l JOIN movies m ON m.id = l.movie_id
        WHERE l.user_id = $1
        ORDER BY l.created_at DESC, l.id ASC
    `, table)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanListItem)
}

// Remove deletes an entry owned by userID. Entries of other users are reported as missing.
func (r *ListsRepository) Remove(ctx context.Context, kind domain.ListKind, id, userID string) error {
	table, err := listTable(kind)
	if err != nil {
		return err
	}
	if !validID(id) || !validID(userID) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, table), id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanListItem(row pgx.Row) (domain.ListItem, error) {
	var item domain.ListItem
	err := row.Scan(&item.ID, &item.UserID, &item.MovieID, &item.MovieTitle, &item.CreatedAt)
	return item, err
}
