package domain

import "time"

// Movie represents the canonical movie entity. AverageRating and ReviewCount are
// derived from the movie's reviews and are only written by the recompute engine.
type Movie struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	ReleaseYear   *int
	Popularity    float64
	AverageRating *float64
	ReviewCount   int
	PosterURL     string
	BackdropURL   string
	CategoryID    *string
	DirectorID    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MovieDetail is a movie with its related entities loaded.
type MovieDetail struct {
	Movie
	Category   *Term
	Director   *Person
	Genres     []Term
	Tags       []Term
	Countries  []Term
	Languages  []Term
	Credits    []Credit
	Videos     []Video
	TrailerKey *string
}
