package userbooks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/dbx"
)

var ErrNotFound = errors.New("book not found")

// Store is the persistence collaborator for an owner's books. Every call is
// scoped to one owner; another owner's ids behave as missing.
type Store interface {
	FetchForOwner(ctx context.Context, ownerID string) ([]models.Book, error)
	Get(ctx context.Context, ownerID, id string) (models.Book, error)
	Create(ctx context.Context, b models.Book) (string, error)
	Update(ctx context.Context, ownerID, id string, p Patch) (models.Book, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Patch is a partial update; nil fields are left alone. A CoverURL pointing
// at "" clears the cover.
type Patch struct {
	Title        *string        `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Author       *string        `json:"author,omitempty" validate:"omitempty,notblank,max=100"`
	Genre        *models.Genre  `json:"genre,omitempty" validate:"omitempty,genre"`
	OverallPages *int           `json:"overall_pages,omitempty" validate:"omitempty,gte=1,lte=5000"`
	ReadPages    *int           `json:"read_pages,omitempty" validate:"omitempty,gte=0,lte=5000"`
	Status       *models.Status `json:"status,omitempty" validate:"omitempty,status"`
	Rating       *float64       `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10,halfstep"`
	Favorite     *bool          `json:"favorite,omitempty"`
	CoverURL     *string        `json:"cover_url,omitempty" validate:"omitempty,coverurl"`
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply merges p into b.
func (p Patch) Apply(b models.Book) models.Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.OverallPages != nil {
		b.OverallPages = *p.OverallPages
	}
	if p.ReadPages != nil {
		b.ReadPages = *p.ReadPages
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Favorite != nil {
		b.Favorite = *p.Favorite
	}
	if p.CoverURL != nil {
		if *p.CoverURL == "" {
			b.CoverURL = nil
		} else {
			u := *p.CoverURL
			b.CoverURL = &u
		}
	}
	return b
}

type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const selectCols = `id::text, owner_id::text, title, author, genre, overall_pages,
       read_pages, status, rating, favorite, cover_url, created_at`

func scanBook(row interface{ Scan(...any) error }) (models.Book, error) {
	var b models.Book
	var cover sql.NullString
	err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Author, &b.Genre, &b.OverallPages,
		&b.ReadPages, &b.Status, &b.Rating, &b.Favorite, &cover, &b.CreatedAt)
	if err != nil {
		return models.Book{}, err
	}
	if cover.Valid {
		b.CoverURL = &cover.String
	}
	return b, nil
}

// validID keeps malformed ids away from the uuid columns (SQLSTATE 22P02).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// FetchForOwner returns every book of ownerID, newest first. Never nil.
func (s *SQLStore) FetchForOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+selectCols+`
        FROM public.user_books
        WHERE owner_id = $1
        ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, ownerID, id string) (models.Book, error) {
	return get(ctx, s.db, ownerID, id, false)
}

func get(ctx context.Context, r dbx.Runner, ownerID, id string, lock bool) (models.Book, error) {
	if !validID(id) {
		return models.Book{}, ErrNotFound
	}
	q := `
        SELECT ` + selectCols + `
        FROM public.user_books
        WHERE id = $1 AND owner_id = $2`
	if lock {
		q += " FOR UPDATE"
	}
	b, err := scanBook(r.QueryRowContext(ctx, q, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, ErrNotFound
	}
	return b, err
}

// Create inserts b for b.OwnerID. The id and created_at come from the database.
func (s *SQLStore) Create(ctx context.Context, b models.Book) (string, error) {
	if b.OwnerID == "" {
		return "", errors.New("create book: missing owner")
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO public.user_books
            (owner_id, title, author, genre, overall_pages, read_pages, status, rating, favorite, cover_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id::text`,
		b.OwnerID, b.Title, b.Author, b.Genre, b.OverallPages, b.ReadPages,
		b.Status, b.Rating, b.Favorite, b.CoverURL,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create book: %w", err)
	}
	return id, nil
}

// Update locks the row, merges p and writes the mutable columns back.
// Owner and created_at are never touched.
func (s *SQLStore) Update(ctx context.Context, ownerID, id string, p Patch) (models.Book, error) {
	var out models.Book
	err := dbx.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := get(ctx, tx, ownerID, id, true)
		if err != nil {
			return err
		}
		if p.Empty() {
			out = cur
			return nil
		}
		next := p.Apply(cur)
		res, err := tx.ExecContext(ctx, `
            UPDATE public.user_books
            SET title = $1, author = $2, genre = $3, overall_pages = $4, read_pages = $5,
                status = $6, rating = $7, favorite = $8, cover_url = $9, updated_at = now()
            WHERE id = $10 AND owner_id = $11`,
			next.Title, next.Author, next.Genre, next.OverallPages, next.ReadPages,
			next.Status, next.Rating, next.Favorite, next.CoverURL, cur.ID, ownerID)
		if err != nil {
			return err
		}
		if err := dbx.MustAffect(res, ErrNotFound); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (s *SQLStore) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM public.user_books
        WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return dbx.MustAffect(res, ErrNotFound)
}
