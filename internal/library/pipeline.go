package library

import (
	"slices"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// Apply filters records by c and returns them ordered by c.SortBy/c.SortOrder.
// records is never modified; the result is always a new, non-nil slice.
func Apply(records []models.Book, c Criteria) []models.Book {
	out := BySearch(records, c.Search)
	out = ByStatus(out, c.Status)
	out = ByGenre(out, c.Genre)
	out = ByRatingRange(out, c.Rating)
	out = ByPageRange(out, c.Pages)
	out = FavoritesOnly(out, c.FavoritesOnly)
	out = ByAuthor(out, c.Author)

	view := make([]models.Book, len(out))
	copy(view, out)
	Sort(view, c)
	return view
}

// Sort orders books in place with a stable sort, so equal keys keep their
// incoming order.
func Sort(books []models.Book, c Criteria) {
	by := ComparatorFor(c.SortBy)
	dir := c.SortOrder
	if !dir.Valid() {
		dir = Desc
	}
	if c.StatusFirst && c.SortBy != SortStatus {
		slices.SortStableFunc(books, func(a, b models.Book) int {
			if s := CompareStatus(a, b, Asc); s != 0 {
				return s
			}
			return by(a, b, dir)
		})
		return
	}
	slices.SortStableFunc(books, func(a, b models.Book) int { return by(a, b, dir) })
}
