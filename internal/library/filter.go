// Package library holds the book collection query pipeline: predicate
// filters, comparators, the filter-then-sort orchestrator, statistics and the
// filter/sort state. Everything here is pure: []models.Book in, new values out.
package library

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// fold applies full Unicode case folding. A Caser is stateful, so one is
// built per call instead of being shared.
func fold(s string) string {
	return cases.Fold().String(s)
}

func keep(books []models.Book, pred func(models.Book) bool) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

// ByStatus keeps books with the given status. All returns books unchanged.
func ByStatus(books []models.Book, status string) []models.Book {
	if status == All {
		return books
	}
	want := models.Status(status)
	return keep(books, func(b models.Book) bool { return b.Status == want })
}

// ByGenre keeps books in the given genre. All returns books unchanged.
func ByGenre(books []models.Book, genre string) []models.Book {
	if genre == All {
		return books
	}
	want := models.Genre(genre)
	return keep(books, func(b models.Book) bool { return b.Genre == want })
}

// ByRatingRange keeps books whose rating lies in [r.Min, r.Max].
func ByRatingRange(books []models.Book, r RatingRange) []models.Book {
	return keep(books, func(b models.Book) bool {
		return b.Rating >= r.Min && b.Rating <= r.Max
	})
}

// ByPageRange keeps books whose page count lies in [p.Min, p.Max].
func ByPageRange(books []models.Book, p PageRange) []models.Book {
	return keep(books, func(b models.Book) bool {
		return b.OverallPages >= p.Min && b.OverallPages <= p.Max
	})
}

// FavoritesOnly keeps favorites when only is true.
func FavoritesOnly(books []models.Book, only bool) []models.Book {
	if !only {
		return books
	}
	return keep(books, func(b models.Book) bool { return b.Favorite })
}

// ByAuthor is a case-insensitive substring match on the author.
func ByAuthor(books []models.Book, author string) []models.Book {
	if author == "" {
		return books
	}
	term := fold(author)
	return keep(books, func(b models.Book) bool {
		return strings.Contains(fold(b.Author), term)
	})
}

// BySearch is a case-insensitive substring match on title or author.
func BySearch(books []models.Book, q string) []models.Book {
	if q == "" {
		return books
	}
	term := fold(q)
	return keep(books, func(b models.Book) bool {
		return strings.Contains(fold(b.Title), term) || strings.Contains(fold(b.Author), term)
	})
}
