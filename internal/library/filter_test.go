package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/shelf-api/internal/models"
)

func ids(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func shelf() []models.Book {
	return []models.Book{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Genre: models.GenreScienceFiction, OverallPages: 612, ReadPages: 612, Status: models.StatusRead, Rating: 9},
		{ID: "2", Title: "Emma", Author: "Jane Austen", Genre: models.GenreClassics, OverallPages: 474, ReadPages: 100, Status: models.StatusInProgress, Rating: 7.5, Favorite: true},
		{ID: "3", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: models.GenreFantasy, OverallPages: 310, Status: models.StatusWantToRead},
		{ID: "4", Title: "Persuasion", Author: "Jane Austen", Genre: models.GenreClassics, OverallPages: 249, ReadPages: 30, Status: models.StatusAbandoned, Rating: 4},
		{ID: "5", Title: "Straße der Ölsardinen", Author: "John Steinbeck", Genre: models.GenreFiction, OverallPages: 181, ReadPages: 181, Status: models.StatusRead, Rating: 10},
	}
}

func TestSentinelsAreNoOps(t *testing.T) {
	books := shelf()

	assert.Equal(t, ids(books), ids(ByStatus(books, All)))
	assert.Equal(t, ids(books), ids(ByGenre(books, All)))
	assert.Equal(t, ids(books), ids(ByAuthor(books, "")))
	assert.Equal(t, ids(books), ids(BySearch(books, "")))
	assert.Equal(t, ids(books), ids(FavoritesOnly(books, false)))
}

func TestByStatus(t *testing.T) {
	got := ByStatus(shelf(), string(models.StatusRead))
	assert.Equal(t, []string{"1", "5"}, ids(got))
}

func TestByGenre(t *testing.T) {
	got := ByGenre(shelf(), string(models.GenreClassics))
	assert.Equal(t, []string{"2", "4"}, ids(got))
}

func TestByRatingRangeIsInclusive(t *testing.T) {
	got := ByRatingRange(shelf(), RatingRange{Min: 7.5, Max: 9})
	assert.Equal(t, []string{"1", "2"}, ids(got))

	got = ByRatingRange(shelf(), RatingRange{Min: 0, Max: 0})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestByPageRangeIsInclusive(t *testing.T) {
	got := ByPageRange(shelf(), PageRange{Min: 249, Max: 474})
	assert.Equal(t, []string{"2", "3", "4"}, ids(got))
}

func TestFavoritesOnly(t *testing.T) {
	books := []models.Book{{ID: "a"}, {ID: "b", Favorite: true}, {ID: "c"}, {ID: "d"}}
	got := FavoritesOnly(books, true)
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestByAuthorMatchesSubstringIgnoringCase(t *testing.T) {
	got := ByAuthor(shelf(), "AUSTEN")
	assert.Equal(t, []string{"2", "4"}, ids(got))

	got = ByAuthor(shelf(), "hobbit")
	assert.Empty(t, got)
}

func TestBySearchMatchesTitleOrAuthor(t *testing.T) {
	got := BySearch(shelf(), "jane")
	assert.Equal(t, []string{"2", "4"}, ids(got))

	got = BySearch(shelf(), "hob")
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestBySearchFoldsUnicode(t *testing.T) {
	got := BySearch(shelf(), "STRASSE")
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].ID)

	got = BySearch(shelf(), "ÖLSARDINEN")
	assert.Equal(t, []string{"5"}, ids(got))
}

func TestFiltersAreExact(t *testing.T) {
	books := shelf()
	for _, st := range models.Statuses {
		got := ByStatus(books, string(st))
		want := 0
		for _, b := range books {
			if b.Status == st {
				want++
			}
		}
		require.Len(t, got, want, "status %s", st)
		for _, b := range got {
			assert.Equal(t, st, b.Status)
		}
	}
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	books := shelf()
	before := ids(books)
	_ = ByStatus(books, string(models.StatusRead))
	_ = BySearch(books, "a")
	_ = ByRatingRange(books, RatingRange{Min: 5, Max: 10})
	assert.Equal(t, before, ids(books))
}
