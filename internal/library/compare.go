package library

import (
	"cmp"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// Comparator orders two books by one field. Results are -1, 0 or +1 and
// carry no secondary tie-break.
type Comparator func(a, b models.Book, dir Direction) int

func (d Direction) apply(c int) int {
	if d == Desc {
		return -c
	}
	return c
}

func CompareTitle(a, b models.Book, dir Direction) int {
	return dir.apply(strings.Compare(fold(a.Title), fold(b.Title)))
}

func CompareAuthor(a, b models.Book, dir Direction) int {
	return dir.apply(strings.Compare(fold(a.Author), fold(b.Author)))
}

func CompareRating(a, b models.Book, dir Direction) int {
	return dir.apply(cmp.Compare(a.Rating, b.Rating))
}

func ComparePages(a, b models.Book, dir Direction) int {
	return dir.apply(cmp.Compare(a.OverallPages, b.OverallPages))
}

// CompareCreated treats a zero CreatedAt as the oldest possible time.
func CompareCreated(a, b models.Book, dir Direction) int {
	return dir.apply(a.CreatedAt.Compare(b.CreatedAt))
}

// CompareStatus uses the fixed priority: want_to_read, in_progress, read, abandoned.
func CompareStatus(a, b models.Book, dir Direction) int {
	return dir.apply(cmp.Compare(a.Status.Priority(), b.Status.Priority()))
}

// ComparatorFor maps a sort field to its comparator. Unknown fields fall back
// to creation date.
func ComparatorFor(f SortField) Comparator {
	switch f {
	case SortTitle:
		return CompareTitle
	case SortAuthor:
		return CompareAuthor
	case SortRating:
		return CompareRating
	case SortPages:
		return ComparePages
	case SortStatus:
		return CompareStatus
	default:
		return CompareCreated
	}
}
