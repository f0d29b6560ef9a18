package validate

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

// BookInput is the body of POST /books and PUT /books/{id}.
type BookInput struct {
	Title        string        `json:"title" validate:"notblank,max=200"`
	Author       string        `json:"author" validate:"notblank,max=100"`
	Genre        models.Genre  `json:"genre" validate:"genre"`
	OverallPages int           `json:"overall_pages" validate:"gte=1,lte=5000"`
	ReadPages    int           `json:"read_pages" validate:"gte=0,lte=5000"`
	Status       models.Status `json:"status" validate:"status"`
	Rating       float64       `json:"rating" validate:"gte=0,lte=10,halfstep"`
	Favorite     bool          `json:"favorite"`
	CoverURL     string        `json:"cover_url" validate:"coverurl"`
}

// cleanText trims s and composes it to NFC so that visually equal titles
// compare and sort equal.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize trims text fields and fills the default status.
func (in *BookInput) Normalize() {
	in.Title = cleanText(in.Title)
	in.Author = cleanText(in.Author)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
	if in.Status == "" {
		in.Status = models.StatusWantToRead
	}
}

// Book builds the record to insert for ownerID.
func (in BookInput) Book(ownerID string) models.Book {
	b := models.Book{
		OwnerID:      ownerID,
		Title:        in.Title,
		Author:       in.Author,
		Genre:        in.Genre,
		OverallPages: in.OverallPages,
		ReadPages:    in.ReadPages,
		Status:       in.Status,
		Rating:       in.Rating,
		Favorite:     in.Favorite,
	}
	if in.CoverURL != "" {
		u := in.CoverURL
		b.CoverURL = &u
	}
	return b
}

// Patch turns a full edit into a patch that rewrites every mutable field.
func (in BookInput) Patch() userbooks.Patch {
	cover := in.CoverURL
	return userbooks.Patch{
		Title:        &in.Title,
		Author:       &in.Author,
		Genre:        &in.Genre,
		OverallPages: &in.OverallPages,
		ReadPages:    &in.ReadPages,
		Status:       &in.Status,
		Rating:       &in.Rating,
		Favorite:     &in.Favorite,
		CoverURL:     &cover,
	}
}

// NormalizePatch cleans the text fields a patch carries.
func NormalizePatch(p *userbooks.Patch) {
	for _, s := range []*string{p.Title, p.Author} {
		if s != nil {
			*s = cleanText(*s)
		}
	}
	if p.CoverURL != nil {
		*p.CoverURL = strings.TrimSpace(*p.CoverURL)
	}
}
