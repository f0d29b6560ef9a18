package models

import "time"

// Status is the reading status of a book. Exactly one is active at a time.
type Status string

const (
	StatusWantToRead Status = "want_to_read"
	StatusInProgress Status = "in_progress"
	StatusRead       Status = "read"
	StatusAbandoned  Status = "abandoned"
)

// Statuses lists every status in priority order.
var Statuses = []Status{StatusWantToRead, StatusInProgress, StatusRead, StatusAbandoned}

// Priority is the fixed domain ordering used when sorting by status.
// Unknown values sort after every known status.
func (s Status) Priority() int {
	switch s {
	case StatusWantToRead:
		return 0
	case StatusInProgress:
		return 1
	case StatusRead:
		return 2
	case StatusAbandoned:
		return 3
	default:
		return 4
	}
}

func (s Status) Valid() bool { return s.Priority() < 4 }

type Genre string

const (
	GenreFiction        Genre = "fiction"
	GenreNonFiction     Genre = "non_fiction"
	GenreFantasy        Genre = "fantasy"
	GenreScienceFiction Genre = "science_fiction"
	GenreMystery        Genre = "mystery"
	GenreThriller       Genre = "thriller"
	GenreRomance        Genre = "romance"
	GenreHorror         Genre = "horror"
	GenreBiography      Genre = "biography"
	GenreHistory        Genre = "history"
	GenreScience        Genre = "science"
	GenreSelfHelp       Genre = "self_help"
	GenrePoetry         Genre = "poetry"
	GenreClassics       Genre = "classics"
	GenreOther          Genre = "other"
)

var Genres = []Genre{
	GenreFiction, GenreNonFiction, GenreFantasy, GenreScienceFiction,
	GenreMystery, GenreThriller, GenreRomance, GenreHorror, GenreBiography,
	GenreHistory, GenreScience, GenreSelfHelp, GenrePoetry, GenreClassics,
	GenreOther,
}

func (g Genre) Valid() bool {
	for _, v := range Genres {
		if v == g {
			return true
		}
	}
	return false
}

// Limits shared by validation and the filter criteria defaults.
const (
	MaxTitleLen    = 200
	MaxAuthorLen   = 100
	MaxCoverURLLen = 500
	MinPages       = 1
	MaxPages       = 5000
	MinRating      = 0.0
	MaxRating      = 10.0
)

// Book is one library entry owned by a user.
type Book struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Genre        Genre     `json:"genre"`
	OverallPages int       `json:"overall_pages"`
	ReadPages    int       `json:"read_pages"`
	Status       Status    `json:"status"`
	Rating       float64   `json:"rating"`
	Favorite     bool      `json:"favorite"`
	CoverURL     *string   `json:"cover_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProgressPercent treats pages read beyond the page count as complete.
func (b Book) ProgressPercent() int {
	if b.OverallPages <= 0 {
		return 0
	}
	if b.ReadPages >= b.OverallPages {
		return 100
	}
	return b.ReadPages * 100 / b.OverallPages
}
