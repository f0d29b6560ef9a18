package books

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/5w1tchy/shelf-api/internal/api/apperr"
	"github.com/5w1tchy/shelf-api/internal/api/httpx"
	"github.com/5w1tchy/shelf-api/internal/logging"
	"github.com/5w1tchy/shelf-api/internal/metrics/activity"
	storage "github.com/5w1tchy/shelf-api/internal/storage/s3"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

const maxCoverBytes = 5 << 20

var coverExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// POST /books/{id}/cover takes a multipart "cover" file, stores it and points
// the book at its public URL. The previous uploaded cover is removed.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	if h.Covers == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Service Unavailable", "cover uploads are not configured")
		return
	}
	ctx := r.Context()

	cur, err := h.Store.Get(ctx, ownerID, id)
	if err != nil {
		h.storeError(w, r, err, "Failed to upload cover")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes+1<<10)
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "cover must be a multipart upload of at most 5 MiB")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "missing cover file")
		return
	}
	defer file.Close()
	if header.Size <= 0 || header.Size > maxCoverBytes {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "cover must be between 1 byte and 5 MiB")
		return
	}

	// The declared Content-Type is not trusted; sniff the first bytes.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "unreadable cover file")
		return
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()
	ext, ok := coverExt[contentType]
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "cover must be jpeg, png or webp")
		return
	}

	key := storage.CoverKey(ownerID, id, ext, time.Now().Unix())
	body := io.MultiReader(bytes.NewReader(head), file)
	url, err := h.Covers.PutCover(ctx, key, body, header.Size, contentType)
	if err != nil {
		logging.Error("[covers] upload failed", "key", key, "err", err)
		apperr.WriteStatus(w, r, http.StatusBadGateway, "Bad Gateway", "failed to store cover")
		return
	}

	b, err := h.Store.Update(ctx, ownerID, id, userbooks.Patch{CoverURL: &url})
	if err != nil {
		h.dropCover(ctx, url)
		h.storeError(w, r, err, "Failed to save cover")
		return
	}
	if cur.CoverURL != nil && *cur.CoverURL != url {
		h.dropCover(ctx, *cur.CoverURL)
	}
	h.record(ownerID, id, activity.Event{Kind: activity.CoverChanged})

	httpx.OK(w, b)
}
