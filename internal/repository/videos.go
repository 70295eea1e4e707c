package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/cinemateca/internal/domain"
)

// VideosRepository stores externally hosted videos attached to movies.
type VideosRepository struct {
	db DBTX
}

const videoColumns = `v.id::text, v.movie_id::text, v.title, v.kind, v.url, v.site, v.key, v.language, v.created_at, v.updated_at`

// VideoWriteParams bundles the editable video fields.
type VideoWriteParams struct {
	MovieID  string
	Title    string
	Kind     string
	URL      string
	Site     string
	Key      string
	Language string
}

// Create inserts a video.
func (r *VideosRepository) Create(ctx context.Context, params VideoWriteParams) (domain.Video, error) {
	if !validID(params.MovieID) {
		return domain.Video{}, ErrInvalidReference
	}
	query := fmt.Sprintf(`
        INSERT INTO videos AS v (id, movie_id, title, kind, url, site, key, language)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING %s
    `, videoColumns)
	video, err := scanVideo(r.db.QueryRow(ctx, query, newID(), params.MovieID, params.Title, params.Kind,
		params.URL, params.Site, params.Key, params.Language))
	if err != nil {
		return domain.Video{}, translateWriteError(err)
	}
	return video, nil
}

// Update replaces the editable fields of a video.
func (r *VideosRepository) Update(ctx context.Context, id string, params VideoWriteParams) (domain.Video, error) {
	if !validID(id) {
		return domain.Video{}, ErrNotFound
	}
	if !validID(params.MovieID) {
		return domain.Video{}, ErrInvalidReference
	}
	query := fmt.Sprintf(`
        UPDATE videos AS v
        SET movie_id = $2, title = $3, kind = $4, url = $5, site = $6, key = $7, language = $8, updated_at = now()
        WHERE v.id = $1
        RETURNING %s
    `, videoColumns)
	video, err := scanVideo(r.db.QueryRow(ctx, query, id, params.MovieID, params.Title, params.Kind,
		params.URL, params.Site, params.Key, params.Language))
	if err != nil {
		return domain.Video{}, translateWriteError(err)
	}
	return video, nil
}

// Get fetches a video by id.
func (r *VideosRepository) Get(ctx context.Context, id string) (domain.Video, error) {
	if !validID(id) {
		return domain.Video{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM videos v WHERE v.id = $1`, videoColumns)
	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Video{}, ErrNotFound
		}
		return domain.Video{}, err
	}
	return video, nil
}

// List returns videos newest first, optionally for a single movie.
func (r *VideosRepository) List(ctx context.Context, movieID *string) ([]domain.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos v`, videoColumns)
	args := make([]interface{}, 0, 1)
	if movieID != nil {
		if !validID(*movieID) {
			return []domain.Video{}, nil
		}
		args = append(args, *movieID)
		query += ` WHERE v.movie_id = $1`
	}
	query += ` ORDER BY v.created_at DESC, v.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return collect(rows, scanVideo)
}

// Delete removes a video.
func (r *VideosRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVideo(row pgx.Row) (domain.Video, error) {
	var v domain.Video
	err := row.Scan(&v.ID, &v.MovieID, &v.Title, &v.Kind, &v.URL, &v.Site, &v.Key, &v.Language, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
