package books

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/library"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	"github.com/5w1tchy/shelf-api/internal/models"
	"github.com/5w1tchy/shelf-api/internal/store/criteria"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks/userbookstest"
)

const (
	me    = "owner-1"
	other = "owner-2"

	duneID   = "11111111-1111-4111-8111-111111111111"
	hobbitID = "22222222-2222-4222-8222-222222222222"
	emmaID   = "33333333-3333-4333-8333-333333333333"
	theirsID = "44444444-4444-4444-8444-444444444444"
)

type events struct {
	mu  sync.Mutex
	got []activity.Event
}

func (e *events) Enqueue(ev activity.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
	return true
}

func (e *events) kinds() []activity.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]activity.Kind, 0, len(e.got))
	for _, ev := range e.got {
		out = append(out, ev.Kind)
	}
	return out
}

const cdn = "https://cdn.example/"

type fakeCovers struct {
	puts    map[string][]byte
	deleted []string
}

func (f *fakeCovers) PutCover(_ context.Context, key string, body io.Reader, size int64, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(b)) != size {
		return "", io.ErrShortWrite
	}
	f.puts[key] = b
	return cdn + key, nil
}

func (f *fakeCovers) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeCovers) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, cdn)
}

type fixture struct {
	h      *Handler
	store  *userbookstest.Memory
	crit   *criteria.Store
	events *events
	covers *fakeCovers
	mux    *http.ServeMux
}

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := userbookstest.NewMemory(
		models.Book{ID: duneID, OwnerID: me, Title: "Dune", Author: "Frank Herbert", Genre: models.GenreScienceFiction,
			OverallPages: 612, ReadPages: 612, Status: models.StatusRead, Rating: 9.5, Favorite: true, CreatedAt: base},
		models.Book{ID: hobbitID, OwnerID: me, Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: models.GenreFantasy,
			OverallPages: 310, ReadPages: 100, Status: models.StatusInProgress, Rating: 8, CreatedAt: base.Add(time.Hour),
			CoverURL: ptr(cdn + "covers/owner-1/old.png")},
		models.Book{ID: emmaID, OwnerID: me, Title: "emma", Author: "Jane Austen", Genre: models.GenreClassics,
			OverallPages: 474, Status: models.StatusWantToRead, CreatedAt: base.Add(2 * time.Hour)},
		models.Book{ID: theirsID, OwnerID: other, Title: "Not Mine", Author: "Someone", Genre: models.GenreOther,
			OverallPages: 10, Status: models.StatusRead, CreatedAt: base},
	)
	f := &fixture{
		store:  store,
		crit:   criteria.New(nil, library.DefaultCriteria()),
		events: &events{},
		covers: &fakeCovers{puts: map[string][]byte{}},
	}
	f.h = New(f.store, f.crit, f.events, f.covers)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /books", f.h.List)
	mux.HandleFunc("POST /books", f.h.Create)
	mux.HandleFunc("GET /books/stats", f.h.Stats)
	mux.HandleFunc("GET /books/{id}", f.h.Get)
	mux.HandleFunc("PATCH /books/{id}", f.h.Patch)
	mux.HandleFunc("PUT /books/{id}", f.h.Put)
	mux.HandleFunc("DELETE /books/{id}", f.h.Delete)
	mux.HandleFunc("POST /books/{id}/cover", f.h.UploadCover)
	f.mux = mux
	return f
}

func (f *fixture) do(method, target string, body any, userID string) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if userID != "" {
		req = req.WithContext(middlewares.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func decodeBook(t *testing.T, rec *httptest.ResponseRecorder) models.Book {
	t.Helper()
	var out struct {
		Data models.Book `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out.Data
}

func titlesOf(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestListDefaultsToNewestFirst(t *testing.T) {
	f := newFixture(t)
	out := decodeList(t, f.do("GET", "/books", nil, me))

	assert.Equal(t, []string{"emma", "The Hobbit", "Dune"}, titlesOf(out.Data))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.Count)
	assert.Zero(t, out.ActiveFilters)
}

func TestListQueryOverridesAreNotSaved(t *testing.T) {
	f := newFixture(t)
	out := decodeList(t, f.do("GET", "/books?q=TOLKIEN&sort=title&order=asc", nil, me))
	assert.Equal(t, []string{"The Hobbit"}, titlesOf(out.Data))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 1, out.ActiveFilters)

	again := decodeList(t, f.do("GET", "/books", nil, me))
	assert.Len(t, again.Data, 3)
	assert.Equal(t, library.SortCreated, again.Criteria.SortBy)
}

func TestListSortsByTitleIgnoringCase(t *testing.T) {
	f := newFixture(t)
	out := decodeList(t, f.do("GET", "/books?sort=title&order=asc", nil, me))
	assert.Equal(t, []string{"Dune", "emma", "The Hobbit"}, titlesOf(out.Data))
}

func TestListRangesAndFavorites(t *testing.T) {
	f := newFixture(t)

	out := decodeList(t, f.do("GET", "/books?rating_min=8", nil, me))
	assert.ElementsMatch(t, []string{"Dune", "The Hobbit"}, titlesOf(out.Data))

	out = decodeList(t, f.do("GET", "/books?pages_min=310&pages_max=474", nil, me))
	assert.ElementsMatch(t, []string{"emma", "The Hobbit"}, titlesOf(out.Data))
	assert.Equal(t, 1, out.ActiveFilters)

	out = decodeList(t, f.do("GET", "/books?favorites=true&status=read", nil, me))
	assert.Equal(t, []string{"Dune"}, titlesOf(out.Data))
	assert.Equal(t, 2, out.ActiveFilters)
}

func TestListUsesSavedCriteria(t *testing.T) {
	f := newFixture(t)
	st := library.NewState(library.DefaultCriteria())
	require.NoError(t, st.SetGenre(string(models.GenreFantasy)))
	require.NoError(t, f.crit.Save(context.Background(), me, st))

	out := decodeList(t, f.do("GET", "/books", nil, me))
	assert.Equal(t, []string{"The Hobbit"}, titlesOf(out.Data))
	assert.Equal(t, 1, out.ActiveFilters)

	out = decodeList(t, f.do("GET", "/books?genre=all", nil, me))
	assert.Len(t, out.Data, 3)
}

func TestListLimit(t *testing.T) {
	f := newFixture(t)
	out := decodeList(t, f.do("GET", "/books?limit=1", nil, me))
	assert.Len(t, out.Data, 1)
	assert.Equal(t, 3, out.Count)
}

func TestListRejectsInvalidQuery(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{
		"rating_min=8&rating_max=2",
		"rating_min=abc",
		"pages_max=9000",
		"sort=isbn",
		"order=sideways",
		"status=finished",
		"favorites=maybe",
	} {
		t.Run(q, func(t *testing.T) {
			rec := f.do("GET", "/books?"+q, nil, me)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRequiresUser(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ method, path string }{
		{"GET", "/books"}, {"POST", "/books"}, {"GET", "/books/stats"}, {"GET", "/books/" + duneID},
		{"PATCH", "/books/" + duneID}, {"DELETE", "/books/" + duneID},
	} {
		rec := f.do(tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	rec := f.do("POST", "/books", map[string]any{
		"title": "  Piranesi ", "author": "Susanna Clarke", "genre": "fantasy", "overall_pages": 272,
	}, me)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	b := decodeBook(t, rec)
	assert.Equal(t, "Piranesi", b.Title)
	assert.Equal(t, me, b.OwnerID)
	assert.Equal(t, models.StatusWantToRead, b.Status)
	assert.False(t, b.CreatedAt.IsZero())
	assert.Equal(t, "/books/"+b.ID, rec.Header().Get("Location"))
	assert.Equal(t, []activity.Kind{activity.Created}, f.events.kinds())
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/books", map[string]any{
		"title": "", "author": "A", "genre": "cookbook", "overall_pages": 0, "rating": 7.3,
	}, me)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var p apperr.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	fields := map[string]bool{}
	for _, fe := range p.FieldErrors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["title"] && fields["genre"] && fields["overall_pages"] && fields["rating"], p.FieldErrors)

	assert.Equal(t, http.StatusBadRequest, f.do("POST", "/books", "{not json", me).Code)
	assert.Equal(t, http.StatusBadRequest, f.do("POST", "/books", `{"title":"X","owner_id":"someone"}`, me).Code)
	assert.Empty(t, f.events.kinds())
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/books/"+duneID, nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", decodeBook(t, rec).Title)

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/books/"+theirsID, nil, me).Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/books/not-a-uuid", nil, me).Code)
}

func TestPatchRecordsOnlyChanges(t *testing.T) {
	f := newFixture(t)

	rec := f.do("PATCH", "/books/"+hobbitID, map[string]any{"status": "read", "read_pages": 310, "favorite": false}, me)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decodeBook(t, rec)
	assert.Equal(t, models.StatusRead, b.Status)
	assert.Equal(t, 310, b.ReadPages)
	assert.Equal(t, "J.R.R. Tolkien", b.Author)

	// favorite was already false, so only the status change is recorded.
	assert.Equal(t, []activity.Kind{activity.StatusChanged}, f.events.kinds())
}

func TestPatchRejects(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do("PATCH", "/books/"+duneID, map[string]any{"rating": 11}, me).Code)
	assert.Equal(t, http.StatusBadRequest, f.do("PATCH", "/books/"+duneID, map[string]any{"title": "   "}, me).Code)
	assert.Equal(t, http.StatusBadRequest, f.do("PATCH", "/books/"+duneID, map[string]any{"created_at": "2020-01-01T00:00:00Z"}, me).Code)
	assert.Equal(t, http.StatusNotFound, f.do("PATCH", "/books/"+theirsID, map[string]any{"favorite": true}, me).Code)
	assert.Empty(t, f.events.kinds())
}

func TestPutReplacesEveryField(t *testing.T) {
	f := newFixture(t)

	rec := f.do("PUT", "/books/"+hobbitID, map[string]any{
		"title": "The Hobbit", "author": "J.R.R. Tolkien", "genre": "fantasy", "overall_pages": 320,
		"read_pages": 0, "status": "want_to_read", "rating": 8,
	}, me)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decodeBook(t, rec)
	assert.Nil(t, b.CoverURL)
	assert.Equal(t, 320, b.OverallPages)
	assert.ElementsMatch(t, []activity.Kind{activity.StatusChanged, activity.CoverChanged}, f.events.kinds())
	assert.Equal(t, []string{"covers/owner-1/old.png"}, f.covers.deleted)
}

func TestDeleteRemovesBookAndCover(t *testing.T) {
	f := newFixture(t)

	rec := f.do("DELETE", "/books/"+hobbitID, nil, me)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.Equal(t, []string{"covers/owner-1/old.png"}, f.covers.deleted)
	assert.Equal(t, []activity.Kind{activity.Deleted}, f.events.kinds())

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/books/"+hobbitID, nil, me).Code)
	assert.Equal(t, http.StatusNotFound, f.do("DELETE", "/books/"+hobbitID, nil, me).Code)
	assert.Equal(t, http.StatusNotFound, f.do("DELETE", "/books/"+theirsID, nil, me).Code)
}

func TestStatsIgnoresSavedFilters(t *testing.T) {
	f := newFixture(t)
	st := library.NewState(library.DefaultCriteria())
	require.NoError(t, st.SetFavoritesOnly(true))
	require.NoError(t, f.crit.Save(context.Background(), me, st))

	rec := f.do("GET", "/books/stats", nil, me)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data library.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	assert.Equal(t, 3, out.Data.Total)
	assert.Equal(t, 1, out.Data.Read)
	assert.Equal(t, 1, out.Data.Favorites)
	assert.Equal(t, 5.8, out.Data.AverageRating)
	assert.Equal(t, 33, out.Data.CompletionRate)
}

func coverRequest(t *testing.T, target, userID string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="cover"; filename="cover.bin"`)
	hdr.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(middlewares.WithUserID(req.Context(), userID))
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func TestUploadCover(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, coverRequest(t, "/books/"+hobbitID+"/cover", me, pngBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	b := decodeBook(t, rec)
	require.NotNil(t, b.CoverURL)
	key, ok := f.covers.KeyFromURL(*b.CoverURL)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "covers/owner-1/"+hobbitID+"-"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, pngBytes, f.covers.puts[key])
	assert.Equal(t, []string{"covers/owner-1/old.png"}, f.covers.deleted)
	assert.Equal(t, []activity.Kind{activity.CoverChanged}, f.events.kinds())
}

func TestUploadCoverRejects(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, coverRequest(t, "/books/"+duneID+"/cover", me, []byte("just some text, not an image")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, coverRequest(t, "/books/"+theirsID+"/cover", me, pngBytes))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.h.Covers = nil
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, coverRequest(t, "/books/"+duneID+"/cover", me, pngBytes))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.Empty(t, f.covers.puts)
}
