package library

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// All is the selector value that disables the status and genre filters.
const All = "all"

var ErrInvalidCriteria = errors.New("invalid criteria")

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Valid() bool { return d == Asc || d == Desc }

type SortField string

const (
	SortTitle   SortField = "title"
	SortAuthor  SortField = "author"
	SortRating  SortField = "rating"
	SortPages   SortField = "pages"
	SortCreated SortField = "created"
	SortStatus  SortField = "status"
)

var SortFields = []SortField{SortTitle, SortAuthor, SortRating, SortPages, SortCreated, SortStatus}

func (f SortField) Valid() bool {
	for _, v := range SortFields {
		if v == f {
			return true
		}
	}
	return false
}

// RatingRange is a closed interval over Book.Rating.
type RatingRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PageRange is a closed interval over Book.OverallPages.
type PageRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var (
	FullRatingRange = RatingRange{Min: models.MinRating, Max: models.MaxRating}
	FullPageRange   = PageRange{Min: 0, Max: models.MaxPages}
)

const (
	maxAuthorTerm = models.MaxAuthorLen
	maxSearchTerm = models.MaxTitleLen
)

// Criteria is the full set of active filter and sort selections.
type Criteria struct {
	Status        string      `json:"status"`
	Genre         string      `json:"genre"`
	Rating        RatingRange `json:"rating"`
	Pages         PageRange   `json:"pages"`
	SortBy        SortField   `json:"sort_by"`
	SortOrder     Direction   `json:"sort_order"`
	FavoritesOnly bool        `json:"favorites_only"`
	Author        string      `json:"author"`
	Search        string      `json:"search"`

	// StatusFirst orders by status priority before SortBy. Off by default.
	StatusFirst bool `json:"status_first,omitempty"`
}

// DefaultCriteria is the API's call-site default: everything visible, newest first.
func DefaultCriteria() Criteria {
	return Criteria{
		Status:    All,
		Genre:     All,
		Rating:    FullRatingRange,
		Pages:     FullPageRange,
		SortBy:    SortCreated,
		SortOrder: Desc,
	}
}

// Validate reports the first field that breaks the criteria invariants.
func (c Criteria) Validate() error {
	if c.Status != All && !models.Status(c.Status).Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidCriteria, c.Status)
	}
	if c.Genre != All && !models.Genre(c.Genre).Valid() {
		return fmt.Errorf("%w: genre %q", ErrInvalidCriteria, c.Genre)
	}
	if err := validateRating(c.Rating); err != nil {
		return err
	}
	if err := validatePages(c.Pages); err != nil {
		return err
	}
	if !c.SortBy.Valid() {
		return fmt.Errorf("%w: sort field %q", ErrInvalidCriteria, c.SortBy)
	}
	if !c.SortOrder.Valid() {
		return fmt.Errorf("%w: sort order %q", ErrInvalidCriteria, c.SortOrder)
	}
	if utf8.RuneCountInString(c.Author) > maxAuthorTerm {
		return fmt.Errorf("%w: author longer than %d characters", ErrInvalidCriteria, maxAuthorTerm)
	}
	if utf8.RuneCountInString(c.Search) > maxSearchTerm {
		return fmt.Errorf("%w: search longer than %d characters", ErrInvalidCriteria, maxSearchTerm)
	}
	return nil
}

func validateRating(r RatingRange) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) ||
		r.Min < models.MinRating || r.Max > models.MaxRating || r.Min > r.Max {
		return fmt.Errorf("%w: rating range [%g, %g]", ErrInvalidCriteria, r.Min, r.Max)
	}
	return nil
}

func validatePages(p PageRange) error {
	if p.Min < 0 || p.Max > models.MaxPages || p.Min > p.Max {
		return fmt.Errorf("%w: page range [%d, %d]", ErrInvalidCriteria, p.Min, p.Max)
	}
	return nil
}

// ActiveFilters counts the filter fields of c that differ from defaults.
// Sort field, direction and StatusFirst never count.
func ActiveFilters(c, defaults Criteria) int {
	n := 0
	if c.Status != defaults.Status {
		n++
	}
	if c.Genre != defaults.Genre {
		n++
	}
	if c.Rating != defaults.Rating {
		n++
	}
	if c.Pages != defaults.Pages {
		n++
	}
	if c.FavoritesOnly != defaults.FavoritesOnly {
		n++
	}
	if c.Author != defaults.Author {
		n++
	}
	if c.Search != defaults.Search {
		n++
	}
	return n
}
