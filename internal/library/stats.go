package library

import (
	"math"

	"github.com/5w1tchy/shelf-api/internal/models"
)

type Stats struct {
	Total          int     `json:"total"`
	WantToRead     int     `json:"want_to_read"`
	InProgress     int     `json:"in_progress"`
	Read           int     `json:"read"`
	Abandoned      int     `json:"abandoned"`
	Favorites      int     `json:"favorites"`
	AverageRating  float64 `json:"average_rating"`
	TotalPages     int     `json:"total_pages"`
	ReadPages      int     `json:"read_pages"`
	ProgressRate   int     `json:"progress_rate"`
	CompletionRate int     `json:"completion_rate"`
}

// ComputeStats reduces the full record set. Callers pass every record, not a
// filtered view.
func ComputeStats(records []models.Book) Stats {
	var s Stats
	var ratingSum float64
	for _, b := range records {
		s.Total++
		switch b.Status {
		case models.StatusWantToRead:
			s.WantToRead++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusRead:
			s.Read++
		case models.StatusAbandoned:
			s.Abandoned++
		}
		if b.Favorite {
			s.Favorites++
		}
		ratingSum += b.Rating
		s.TotalPages += b.OverallPages
		s.ReadPages += b.ReadPages
	}

	if s.Total > 0 {
		s.AverageRating = math.Round(ratingSum/float64(s.Total)*10) / 10
		s.CompletionRate = int(math.Round(float64(s.Read) / float64(s.Total) * 100))
	}
	if s.TotalPages > 0 {
		s.ProgressRate = int(math.Round(float64(s.ReadPages) / float64(s.TotalPages) * 100))
	}
	return s
}
