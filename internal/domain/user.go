package domain

import "time"

// User is an account able to write reviews and keep lists.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

// ListKind distinguishes the two per-user movie lists.
type ListKind string

const (
	ListWatchlist ListKind = "watchlist_items"
	ListFavorites ListKind = "favorites"
)

// ListItem is a movie saved to one of a user's lists.
type ListItem struct {
	ID         string
	UserID     string
	MovieID    string
	MovieTitle string
	CreatedAt  time.Time
}
