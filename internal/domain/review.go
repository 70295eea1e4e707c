package domain

import "time"

// Rating bounds for a review, inclusive.
const (
	MinRating = 0
	MaxRating = 10
)

// Review is a single user's review of a movie. A user holds at most one review per movie.
type Review struct {
	ID        string
	MovieID   string
	AuthorID  string
	Title     string
	Body      string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Populated by list/get queries.
	AuthorName string
	MovieTitle string
}

// RatingSummary is the derived aggregate stored on a movie.
type RatingSummary struct {
	Average *float64
	Count   int
}

// Summarize computes the arithmetic mean and count of ratings. The average is nil
// when there are no ratings.
func Summarize(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return RatingSummary{Average: &avg, Count: len(ratings)}
}
