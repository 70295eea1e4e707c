package domain

import "time"

// TermKind identifies one of the flat taxonomies attached to movies.
type TermKind string

const (
	TermGenre    TermKind = "genres"
	TermTag      TermKind = "tags"
	TermCategory TermKind = "categories"
	TermCountry  TermKind = "countries"
	TermLanguage TermKind = "languages"
)

// Term is a taxonomy entry. Code holds the slug for genres, tags and categories,
// the ISO-3166 alpha-2 code for countries and the language code for languages.
type Term struct {
	ID   string
	Name string
	Code string
}

// Person is anyone credited on a movie.
type Person struct {
	ID        string
	Name      string
	Slug      string
	Bio       string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credit links a person to a movie with a role, ordered by CreditOrder.
type Credit struct {
	ID          string
	MovieID     string
	Person      Person
	Role        string
	CreditOrder int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Video kinds.
const (
	VideoTrailer    = "trailer"
	VideoTeaser     = "teaser"
	VideoClip       = "clip"
	VideoFeaturette = "featurette"
	VideoOther      = "other"
)

// Video is an externally hosted clip for a movie.
type Video struct {
	ID        string
	MovieID   string
	Title     string
	Kind      string
	URL       string
	Site      string
	Key       string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
