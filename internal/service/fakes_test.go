package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/repository"
)

// memoryStore keeps movies and reviews in memory and implements both ReviewStore
// and AggregateWriter.
type memoryStore struct {
	mu      sync.Mutex
	movies  map[string]*domain.Movie
	reviews map[string]*domain.Review

	aggregateWrites int
	// conflictOnce makes the next Upsert report a unique violation.
	conflictOnce bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		movies:  make(map[string]*domain.Movie),
		reviews: make(map[string]*domain.Review),
	}
}

func (m *memoryStore) addMovie(title string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.movies[id] = &domain.Movie{ID: id, Title: title}
	return id
}

func (m *memoryStore) movie(id string) (domain.Movie, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	movie, ok := m.movies[id]
	if !ok {
		return domain.Movie{}, false
	}
	return *movie, true
}

func (m *memoryStore) deleteMovie(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.movies, id)
	for rid, r := range m.reviews {
		if r.MovieID == id {
			delete(m.reviews, rid)
		}
	}
}

func (m *memoryStore) findByPair(movieID, authorID string) *domain.Review {
	for _, r := range m.reviews {
		if r.MovieID == movieID && r.AuthorID == authorID {
			return r
		}
	}
	return nil
}

func (m *memoryStore) Upsert(_ context.Context, p repository.ReviewUpsertParams) (domain.Review, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflictOnce {
		m.conflictOnce = false
		return domain.Review{}, false, repository.ErrConflict
	}
	if _, ok := m.movies[p.MovieID]; !ok {
		return domain.Review{}, false, repository.ErrInvalidReference
	}
	now := time.Now()
	if existing := m.findByPair(p.MovieID, p.AuthorID); existing != nil {
		existing.Title, existing.Body, existing.Rating, existing.UpdatedAt = p.Title, p.Body, p.Rating, now
		return *existing, false, nil
	}
	r := &domain.Review{
		ID: uuid.NewString(), MovieID: p.MovieID, AuthorID: p.AuthorID,
		Title: p.Title, Body: p.Body, Rating: p.Rating, CreatedAt: now, UpdatedAt: now,
	}
	m.reviews[r.ID] = r
	return *r, true, nil
}

func (m *memoryStore) OverwriteExisting(_ context.Context, p repository.ReviewUpsertParams) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.findByPair(p.MovieID, p.AuthorID)
	if existing == nil {
		return domain.Review{}, repository.ErrNotFound
	}
	existing.Title, existing.Body, existing.Rating, existing.UpdatedAt = p.Title, p.Body, p.Rating, time.Now()
	return *existing, nil
}

func (m *memoryStore) Patch(_ context.Context, id string, patch repository.ReviewPatch) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Body != nil {
		r.Body = *patch.Body
	}
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	r.UpdatedAt = time.Now()
	return *r, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	return *r, nil
}

func (m *memoryStore) List(_ context.Context, f repository.ReviewListFilters) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, r := range m.reviews {
		if f.MovieID != nil && r.MovieID != *f.MovieID {
			continue
		}
		if f.AuthorID != nil && r.AuthorID != *f.AuthorID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	delete(m.reviews, id)
	return *r, nil
}

func (m *memoryStore) RatingsForMovie(_ context.Context, movieID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ratings := make([]int, 0)
	for _, r := range m.reviews {
		if r.MovieID == movieID {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings, nil
}

func (m *memoryStore) SetAggregate(_ context.Context, movieID string, summary domain.RatingSummary) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	movie, ok := m.movies[movieID]
	if !ok {
		return false, nil
	}
	m.aggregateWrites++
	movie.AverageRating = summary.Average
	movie.ReviewCount = summary.Count
	return true, nil
}
