package library

import (
	"strings"

	"github.com/5w1tchy/shelf-api/internal/models"
)

// State is the single authoritative holder of a user's criteria. Every setter
// validates a full replacement value before swapping it in, so a rejected
// update leaves the state untouched. A State is request-scoped; it is not safe
// for concurrent use.
type State struct {
	criteria Criteria
	defaults Criteria
	active   int
}

// NewState starts at defaults. Invalid defaults are replaced by DefaultCriteria.
func NewState(defaults Criteria) *State {
	if defaults.Validate() != nil {
		defaults = DefaultCriteria()
	}
	return &State{criteria: defaults, defaults: defaults}
}

// Restore rebuilds a state from previously saved criteria.
func Restore(defaults, saved Criteria) (*State, error) {
	s := NewState(defaults)
	if err := s.Replace(saved); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) Criteria() Criteria { return s.criteria }

func (s *State) Defaults() Criteria { return s.defaults }

func (s *State) ActiveFilterCount() int { return s.active }

// Replace swaps in a whole criteria value.
func (s *State) Replace(next Criteria) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.criteria = next
	s.active = ActiveFilters(next, s.defaults)
	return nil
}

func (s *State) update(fn func(c *Criteria)) error {
	next := s.criteria
	fn(&next)
	return s.Replace(next)
}

// SetStatus accepts a status value or All.
func (s *State) SetStatus(status string) error {
	return s.update(func(c *Criteria) { c.Status = strings.TrimSpace(status) })
}

// SetGenre accepts a genre value or All.
func (s *State) SetGenre(genre string) error {
	return s.update(func(c *Criteria) { c.Genre = strings.TrimSpace(genre) })
}

func (s *State) SetRatingRange(min, max float64) error {
	return s.update(func(c *Criteria) { c.Rating = RatingRange{Min: min, Max: max} })
}

func (s *State) SetPageRange(min, max int) error {
	return s.update(func(c *Criteria) { c.Pages = PageRange{Min: min, Max: max} })
}

func (s *State) SetSort(field SortField, dir Direction) error {
	return s.update(func(c *Criteria) {
		c.SortBy = field
		c.SortOrder = dir
	})
}

func (s *State) SetStatusFirst(on bool) error {
	return s.update(func(c *Criteria) { c.StatusFirst = on })
}

func (s *State) SetFavoritesOnly(only bool) error {
	return s.update(func(c *Criteria) { c.FavoritesOnly = only })
}

func (s *State) SetAuthor(author string) error {
	return s.update(func(c *Criteria) { c.Author = strings.TrimSpace(author) })
}

func (s *State) SetSearch(q string) error {
	return s.update(func(c *Criteria) { c.Search = strings.TrimSpace(q) })
}

// Reset restores every field, sort included, to the defaults.
func (s *State) Reset() {
	s.criteria = s.defaults
	s.active = 0
}

// View runs the pipeline with the current criteria.
func (s *State) View(records []models.Book) []models.Book {
	return Apply(records, s.criteria)
}
