package library

import (
	"sort"
	"strings"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// MinSuggestQuery is the shortest query that produces suggestions.
const MinSuggestQuery = 2

type Suggestion struct {
	Type       string  `json:"type"` // "book" | "author"
	Label      string  `json:"label"`
	Score      float64 `json:"-"`
	ID         string  `json:"id,omitempty"`
	Author     string  `json:"author,omitempty"`
	BooksCount int     `json:"books_count,omitempty"`
}

// matchScore ranks how well text matches term (both folded): exact beats
// prefix, prefix beats a word prefix, a word prefix beats a plain substring.
func matchScore(text, term string) float64 {
	switch {
	case text == term:
		return 1
	case strings.HasPrefix(text, term):
		return 0.8
	}
	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		if strings.HasPrefix(words[i], term) {
			return 0.6
		}
	}
	if strings.Contains(text, term) {
		return 0.3
	}
	return 0
}

// Suggest returns up to limit title and author completions for q, best
// match first. Authors are grouped case-insensitively and carry their book
// count. Queries shorter than MinSuggestQuery runes yield nothing.
func Suggest(books []models.Book, q string, limit int) []Suggestion {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinSuggestQuery || limit <= 0 {
		return []Suggestion{}
	}
	term := fold(q)

	out := make([]Suggestion, 0, limit)
	authors := map[string]int{}
	for _, b := range books {
		if s := matchScore(fold(b.Title), term); s > 0 {
			out = append(out, Suggestion{Type: "book", Label: b.Title, Score: s, ID: b.ID, Author: b.Author})
		}
		key := fold(strings.TrimSpace(b.Author))
		if key == "" {
			continue
		}
		if i, seen := authors[key]; seen {
			if i >= 0 {
				out[i].BooksCount++
			}
			continue
		}
		if s := matchScore(key, term); s > 0 {
			authors[key] = len(out)
			out = append(out, Suggestion{Type: "author", Label: strings.TrimSpace(b.Author), Score: s, BooksCount: 1})
		} else {
			authors[key] = -1
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Type != out[j].Type {
			return out[i].Type == "author"
		}
		return fold(out[i].Label) < fold(out[j].Label)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
