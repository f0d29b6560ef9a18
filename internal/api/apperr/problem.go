package apperr

import (
	"encoding/json"
	"net/http"
)

// Problem type URIs. Clients branch on these rather than on detail text.
const (
	TypeValidation = "/problems/validation"
	TypeNotFound   = "/problems/not-found"
	TypeConflict   = "/problems/conflict"
	TypeBadInput   = "/problems/bad-request"
	TypeUpstream   = "/problems/upstream"
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`    // validator tag or "unique", "fk", "check"
	Message string `json:"message"` // human readable
}

// Problem is an RFC 7807 body.
type Problem struct {
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Instance    string       `json:"instance,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Retryable   bool         `json:"retryable,omitempty"`
}

// Write fills the defaults (500, title from the status, path, request id)
// and sends p as application/problem+json. 502, 503 and 504 are retryable.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	switch p.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		p.Retryable = true
		if p.Type == "" {
			p.Type = TypeUpstream
		}
	}
	if r != nil {
		if p.Instance == "" {
			p.Instance = r.URL.Path
		}
		if p.RequestID == "" {
			p.RequestID = r.Header.Get("X-Request-ID")
		}
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteStatus(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	Write(w, r, Problem{Status: status, Title: title, Detail: detail})
}

// NotFound answers 404 for a resource the caller cannot see, whether it is
// missing or owned by someone else.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, Problem{Type: TypeNotFound, Status: http.StatusNotFound, Detail: detail})
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, Problem{Type: TypeBadInput, Status: http.StatusBadRequest, Detail: detail})
}

// Invalid writes a 400 carrying per-field validation failures.
func Invalid(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	Write(w, r, Problem{Type: TypeValidation, Status: http.StatusBadRequest, Detail: "validation failed", FieldErrors: fields})
}
