package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Clark-Hu/cinemateca/internal/domain"
	"github.com/Clark-Hu/cinemateca/internal/testdb"
)

type testEnv struct {
	ctx        context.Context
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	db := testdb.Start(t)
	return &testEnv{
		ctx:        context.Background(),
		repository: NewWithPool(db.Pool),
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func mustCreateMovie(t testing.TB, env *testEnv, title string) domain.Movie {
	t.Helper()
	movie, err := env.repository.Movies.Create(env.ctx, MovieWriteParams{
		Title:       title,
		Slug:        slugFor(title),
		ReleaseYear: intPtr(2020),
	})
	if err != nil {
		t.Fatalf("create movie %q: %v", title, err)
	}
	return movie
}

func mustCreateUser(t testing.TB, env *testEnv, username string) domain.User {
	t.Helper()
	user, err := env.repository.Users.Create(env.ctx, username, username+"@example.com", "hash", false)
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

func slugFor(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func TestMoviesRepository_CreateGetList(t *testing.T) {
	env := newTestEnv(t)

	movieA := mustCreateMovie(t, env, "Movie A")
	movieB := mustCreateMovie(t, env, "Movie B")

	if movieA.AverageRating != nil || movieA.ReviewCount != 0 {
		t.Fatalf("new movie aggregate = (%v, %d), want (nil, 0)", movieA.AverageRating, movieA.ReviewCount)
	}

	if _, err := env.repository.Movies.GetByID(env.ctx, "non-existent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed ID, got %v", err)
	}
	if _, err := env.repository.Movies.GetByID(env.ctx, newID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ID, got %v", err)
	}

	firstPage, err := env.repository.Movies.List(env.ctx, MovieListFilters{Ordering: "title", Limit: 1})
	if err != nil {
		t.Fatalf("List first page: %v", err)
	}
	if len(firstPage.Items) != 1 || !firstPage.HasMore {
		t.Fatalf("first page = %d items, hasMore=%v", len(firstPage.Items), firstPage.HasMore)
	}

	secondPage, err := env.repository.Movies.List(env.ctx, MovieListFilters{Ordering: "title", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List second page: %v", err)
	}
	if len(secondPage.Items) != 1 || secondPage.HasMore {
		t.Fatalf("second page = %d items, hasMore=%v", len(secondPage.Items), secondPage.HasMore)
	}
	if firstPage.Items[0].ID == secondPage.Items[0].ID {
		t.Fatalf("pagination returned duplicate movie")
	}

	gotByID, err := env.repository.Movies.GetByID(env.ctx, movieB.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gotByID.Title != movieB.Title {
		t.Fatalf("GetByID title = %s, want %s", gotByID.Title, movieB.Title)
	}

	if _, err := env.repository.Movies.List(env.ctx, MovieListFilters{Ordering: "bogus"}); err == nil {
		t.Fatalf("expected error for unsupported ordering")
	}
}

func TestMoviesRepository_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	mustCreateMovie(t, env, "Same Title")

	_, err := env.repository.Movies.Create(env.ctx, MovieWriteParams{Title: "Same Title", Slug: "same-title"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate slug error = %v, want ErrConflict", err)
	}
}

func TestMoviesRepository_ListFilters(t *testing.T) {
	env := newTestEnv(t)

	drama, err := env.repository.Terms.Create(env.ctx, domain.TermGenre, "Drama", "drama")
	if err != nil {
		t.Fatalf("create genre: %v", err)
	}
	alpha := mustCreateMovie(t, env, "Alpha Story")
	beta, err := env.repository.Movies.Create(env.ctx, MovieWriteParams{Title: "Beta", Slug: "beta", ReleaseYear: intPtr(1999)})
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}
	if err := env.repository.Terms.SetForMovie(env.ctx, domain.TermGenre, alpha.ID, []string{drama.ID}); err != nil {
		t.Fatalf("set genres: %v", err)
	}
	sale, err := env.repository.Movies.Create(env.ctx, MovieWriteParams{Title: "50% Off_Sale", Slug: "half-off-sale"})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	tests := []struct {
		name    string
		filters MovieListFilters
		want    []string
	}{
		{name: "query", filters: MovieListFilters{Query: strPtr("story")}, want: []string{alpha.ID}},
		{name: "genre by code", filters: MovieListFilters{Genre: strPtr("drama")}, want: []string{alpha.ID}},
		{name: "genre by name", filters: MovieListFilters{Genre: strPtr("DRAMA")}, want: []string{alpha.ID}},
		{name: "year", filters: MovieListFilters{Year: intPtr(1999)}, want: []string{beta.ID}},
		{name: "no match", filters: MovieListFilters{Query: strPtr("gamma")}, want: nil},
		{name: "percent is literal", filters: MovieListFilters{Query: strPtr("%")}, want: []string{sale.ID}},
		{name: "underscore is literal", filters: MovieListFilters{Query: strPtr("f_s")}, want: []string{sale.ID}},
		{name: "wildcard text does not match across", filters: MovieListFilters{Query: strPtr("a_p")}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.repository.Movies.List(env.ctx, tt.filters)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got.Items) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got.Items), len(tt.want))
			}
			for i, id := range tt.want {
				if got.Items[i].ID != id {
					t.Fatalf("item %d = %s, want %s", i, got.Items[i].ID, id)
				}
			}
		})
	}
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"zone":    "%zone%",
		"100%":    `%100\%%`,
		"a_b":     `%a\_b%`,
		`c:\temp`: `%c:\\temp%`,
	}
	for in, want := range tests {
		if got := containsPattern(in); got != want {
			t.Errorf("containsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMoviesRepository_SetAggregate(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "Aggregate Movie")

	found, err := env.repository.Movies.SetAggregate(env.ctx, movie.ID, domain.Summarize([]int{10, 4}))
	if err != nil || !found {
		t.Fatalf("SetAggregate = (%v, %v), want (true, nil)", found, err)
	}
	got, err := env.repository.Movies.GetByID(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AverageRating == nil || *got.AverageRating != 7 || got.ReviewCount != 2 {
		t.Fatalf("aggregate = (%v, %d), want (7, 2)", got.AverageRating, got.ReviewCount)
	}

	if _, err := env.repository.Movies.SetAggregate(env.ctx, movie.ID, domain.Summarize(nil)); err != nil {
		t.Fatalf("SetAggregate empty: %v", err)
	}
	got, _ = env.repository.Movies.GetByID(env.ctx, movie.ID)
	if got.AverageRating != nil || got.ReviewCount != 0 {
		t.Fatalf("aggregate = (%v, %d), want (nil, 0)", got.AverageRating, got.ReviewCount)
	}

	found, err = env.repository.Movies.SetAggregate(env.ctx, newID(), domain.Summarize([]int{5}))
	if err != nil || found {
		t.Fatalf("SetAggregate missing = (%v, %v), want (false, nil)", found, err)
	}
}

func TestReviewsRepository_UpsertAndRatings(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "Review Movie")
	u := mustCreateUser(t, env, "u")
	v := mustCreateUser(t, env, "v")

	params := ReviewUpsertParams{MovieID: movie.ID, AuthorID: u.ID, Title: "first", Rating: 8}
	first, inserted, err := env.repository.Reviews.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first upsert to insert")
	}

	params.Rating = 4
	second, inserted, err := env.repository.Reviews.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if inserted {
		t.Fatalf("expected overwrite, not insert")
	}
	if second.ID != first.ID || second.Rating != 4 {
		t.Fatalf("overwrite = %+v, want same id with rating 4", second)
	}

	if _, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{MovieID: movie.ID, AuthorID: v.ID, Rating: 10}); err != nil {
		t.Fatalf("third upsert: %v", err)
	}

	ratings, err := env.repository.Reviews.RatingsForMovie(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	if summary := domain.Summarize(ratings); summary.Count != 2 || *summary.Average != 7 {
		t.Fatalf("summary = (%v, %d), want (7, 2)", summary.Average, summary.Count)
	}

	fetched, err := env.repository.Reviews.Get(env.ctx, first.ID)
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if fetched.AuthorName != "u" || fetched.MovieTitle != movie.Title {
		t.Fatalf("review detail = %+v", fetched)
	}

	if _, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{MovieID: newID(), AuthorID: u.ID, Rating: 1}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("upsert for missing movie = %v, want ErrInvalidReference", err)
	}
}

func TestReviewsRepository_PatchListDelete(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "Patch Movie")
	u := mustCreateUser(t, env, "u")
	v := mustCreateUser(t, env, "v")

	ru, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{MovieID: movie.ID, AuthorID: u.ID, Title: "keep", Rating: 3})
	if err != nil {
		t.Fatalf("upsert u: %v", err)
	}
	if _, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{MovieID: movie.ID, AuthorID: v.ID, Rating: 9}); err != nil {
		t.Fatalf("upsert v: %v", err)
	}

	patched, err := env.repository.Reviews.Patch(env.ctx, ru.ID, ReviewPatch{Rating: intPtr(6)})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Rating != 6 || patched.Title != "keep" {
		t.Fatalf("patched = %+v", patched)
	}

	byRating, err := env.repository.Reviews.List(env.ctx, ReviewListFilters{MovieID: &movie.ID, Ordering: "-rating"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byRating) != 2 || byRating[0].Rating != 9 {
		t.Fatalf("list by rating = %+v", byRating)
	}

	mine, err := env.repository.Reviews.List(env.ctx, ReviewListFilters{AuthorID: &u.ID})
	if err != nil || len(mine) != 1 {
		t.Fatalf("list mine = (%d, %v), want 1", len(mine), err)
	}

	deleted, err := env.repository.Reviews.Delete(env.ctx, ru.ID)
	if err != nil || deleted.MovieID != movie.ID {
		t.Fatalf("delete = (%+v, %v)", deleted, err)
	}
	if _, err := env.repository.Reviews.Delete(env.ctx, ru.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}

	n, err := env.repository.Reviews.DeleteByMovie(env.ctx, movie.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByMovie = (%d, %v), want 1", n, err)
	}
	ratings, _ := env.repository.Reviews.RatingsForMovie(env.ctx, movie.ID)
	if len(ratings) != 0 {
		t.Fatalf("ratings after DeleteByMovie = %v", ratings)
	}
}

func TestReviewsRepository_ConcurrentUpserts(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Concurrent Movie")
	const workers = 10
	users := make([]domain.User, workers)
	for i := range users {
		users[i] = mustCreateUser(t, env, fmt.Sprintf("user-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(author string) {
			defer wg.Done()
			params := ReviewUpsertParams{MovieID: movie.ID, AuthorID: author, Rating: 4}
			if _, inserted, err := env.repository.Reviews.Upsert(env.ctx, params); err != nil {
				t.Errorf("upsert failed for %s: %v", author, err)
			} else if !inserted {
				t.Errorf("expected insert for %s", author)
			}
		}(users[i].ID)
	}
	wg.Wait()

	ratings, err := env.repository.Reviews.RatingsForMovie(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("ratings after concurrent upserts: %v", err)
	}
	if len(ratings) != workers {
		t.Fatalf("len(ratings) = %d, want %d", len(ratings), workers)
	}
}

func TestRepository_RunInTxRollsBack(t *testing.T) {
	env := newTestEnv(t)
	sentinel := errors.New("boom")

	err := env.repository.RunInTx(env.ctx, func(tx *Repository) error {
		if _, err := tx.Movies.Create(env.ctx, MovieWriteParams{Title: "Ghost", Slug: "ghost"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx error = %v, want sentinel", err)
	}

	got, err := env.repository.Movies.List(env.ctx, MovieListFilters{Query: strPtr("Ghost")})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("rolled back movie is visible")
	}
}

func TestTermsRepository(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "Term Movie")

	fr, err := env.repository.Terms.Create(env.ctx, domain.TermCountry, "France", "FR")
	if err != nil {
		t.Fatalf("create country: %v", err)
	}
	if _, err := env.repository.Terms.Create(env.ctx, domain.TermCountry, "Other France", "FR"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate code = %v, want ErrConflict", err)
	}

	found, err := env.repository.Terms.List(env.ctx, domain.TermCountry, "fra")
	if err != nil || len(found) != 1 {
		t.Fatalf("search = (%v, %v)", found, err)
	}
	if found, err := env.repository.Terms.List(env.ctx, domain.TermCountry, "%"); err != nil || len(found) != 0 {
		t.Fatalf("percent search = (%v, %v), want no rows", found, err)
	}

	if err := env.repository.Terms.SetForMovie(env.ctx, domain.TermCountry, movie.ID, []string{fr.ID, fr.ID}); err != nil {
		t.Fatalf("SetForMovie: %v", err)
	}
	linked, err := env.repository.Terms.ForMovie(env.ctx, domain.TermCountry, movie.ID)
	if err != nil || len(linked) != 1 {
		t.Fatalf("ForMovie = (%v, %v)", linked, err)
	}

	if err := env.repository.Terms.SetForMovie(env.ctx, domain.TermCountry, movie.ID, []string{newID()}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown term = %v, want ErrInvalidReference", err)
	}
	if _, err := env.repository.Terms.List(env.ctx, domain.TermKind("planets"), ""); !errors.Is(err, ErrUnknownTermKind) {
		t.Fatalf("unknown kind = %v", err)
	}
}

func TestCreditsAndVideosRepository(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "Credit Movie")

	lead, err := env.repository.People.Create(env.ctx, PersonWriteParams{Name: "Lead", Slug: "lead"})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	support, err := env.repository.People.Create(env.ctx, PersonWriteParams{Name: "Support", Slug: "support"})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}

	if _, err := env.repository.Credits.Create(env.ctx, CreditWriteParams{MovieID: movie.ID, PersonID: support.ID, Role: "actor", CreditOrder: 2}); err != nil {
		t.Fatalf("create credit: %v", err)
	}
	if _, err := env.repository.Credits.Create(env.ctx, CreditWriteParams{MovieID: movie.ID, PersonID: lead.ID, Role: "actor", CreditOrder: 1}); err != nil {
		t.Fatalf("create credit: %v", err)
	}
	credits, err := env.repository.Credits.List(env.ctx, &movie.ID)
	if err != nil || len(credits) != 2 {
		t.Fatalf("list credits = (%v, %v)", credits, err)
	}
	if credits[0].Person.Name != "Lead" {
		t.Fatalf("first credit = %s, want Lead", credits[0].Person.Name)
	}

	moved, err := env.repository.Credits.Update(env.ctx, credits[0].ID, CreditWriteParams{MovieID: movie.ID, PersonID: lead.ID, Role: "director", CreditOrder: 3})
	if err != nil {
		t.Fatalf("update credit: %v", err)
	}
	if moved.Role != "director" || moved.CreditOrder != 3 || moved.Person.ID != lead.ID {
		t.Fatalf("updated credit = %+v", moved)
	}
	if _, err := env.repository.Credits.Update(env.ctx, newID(), CreditWriteParams{MovieID: movie.ID, PersonID: lead.ID, Role: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing credit = %v, want ErrNotFound", err)
	}

	video, err := env.repository.Videos.Create(env.ctx, VideoWriteParams{MovieID: movie.ID, Title: "Trailer", Kind: domain.VideoTrailer, URL: "https://example.com/v", Key: "abc"})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	if _, err := env.repository.Videos.Create(env.ctx, VideoWriteParams{MovieID: newID(), Title: "x", Kind: domain.VideoClip, URL: "u"}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("video for missing movie = %v", err)
	}
	videos, err := env.repository.Videos.List(env.ctx, &movie.ID)
	if err != nil || len(videos) != 1 || videos[0].ID != video.ID {
		t.Fatalf("list videos = (%v, %v)", videos, err)
	}
	if err := env.repository.Videos.Delete(env.ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if _, err := env.repository.Videos.Get(env.ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted video = %v", err)
	}
}

func TestListsAndUsersRepository(t *testing.T) {
	env := newTestEnv(t)
	movie := mustCreateMovie(t, env, "List Movie")
	u := mustCreateUser(t, env, "lister")
	other := mustCreateUser(t, env, "other")

	if _, err := env.repository.Users.Create(env.ctx, "lister", "x@example.com", "hash", false); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username = %v, want ErrConflict", err)
	}
	byName, err := env.repository.Users.GetByUsername(env.ctx, "lister")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("GetByUsername = (%+v, %v)", byName, err)
	}

	promoted, err := env.repository.Users.EnsureStaff(env.ctx, "lister", "staff@example.com", "new-hash")
	if err != nil {
		t.Fatalf("EnsureStaff existing: %v", err)
	}
	if promoted.ID != u.ID || !promoted.IsStaff || promoted.PasswordHash != "new-hash" {
		t.Fatalf("promoted = %+v", promoted)
	}
	fresh, err := env.repository.Users.EnsureStaff(env.ctx, "root", "root@example.com", "hash")
	if err != nil || !fresh.IsStaff || fresh.ID == "" {
		t.Fatalf("EnsureStaff new = (%+v, %v)", fresh, err)
	}

	item, err := env.repository.Lists.Add(env.ctx, domain.ListFavorites, u.ID, movie.ID)
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if item.MovieTitle != movie.Title {
		t.Fatalf("item title = %q", item.MovieTitle)
	}
	if _, err := env.repository.Lists.Add(env.ctx, domain.ListFavorites, u.ID, movie.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate favorite = %v, want ErrConflict", err)
	}
	if _, err := env.repository.Lists.Add(env.ctx, domain.ListWatchlist, u.ID, movie.ID); err != nil {
		t.Fatalf("same movie on watchlist: %v", err)
	}

	items, err := env.repository.Lists.ListForUser(env.ctx, domain.ListFavorites, u.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("ListForUser = (%v, %v)", items, err)
	}

	if err := env.repository.Lists.Remove(env.ctx, domain.ListFavorites, item.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove by other user = %v, want ErrNotFound", err)
	}
	if err := env.repository.Lists.Remove(env.ctx, domain.ListFavorites, item.ID, u.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func BenchmarkMoviesRepositoryCreate(b *testing.B) {
	env := newTestEnv(b)

	for i := 0; i < b.N; i++ {
		title := fmt.Sprintf("Bench Movie %d", i)
		_, err := env.repository.Movies.Create(env.ctx, MovieWriteParams{Title: title, Slug: slugFor(title)})
		if err != nil {
			b.Fatalf("create movie: %v", err)
		}
	}
}

func BenchmarkReviewsRepositoryUpsert(b *testing.B) {
	env := newTestEnv(b)

	movie := mustCreateMovie(b, env, "Bench Movie")
	author := mustCreateUser(b, env, "bench")
	for i := 0; i < b.N; i++ {
		_, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{
			MovieID:  movie.ID,
			AuthorID: author.ID,
			Rating:   i % 11,
		})
		if err != nil {
			b.Fatalf("upsert: %v", err)
		}
	}
}
