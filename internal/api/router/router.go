package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/shelf-api/internal/api/handlers"
	"github.com/5w1tchy/shelf-api/internal/api/handlers/activity"
	"github.com/5w1tchy/shelf-api/internal/api/handlers/books"
	"github.com/5w1tchy/shelf-api/internal/api/handlers/filters"
	"github.com/5w1tchy/shelf-api/internal/api/handlers/search"
	mw "github.com/5w1tchy/shelf-api/internal/api/middlewares"
	"github.com/5w1tchy/shelf-api/internal/auth"
	jwtutil "github.com/5w1tchy/shelf-api/internal/security/jwt"
	"github.com/5w1tchy/shelf-api/internal/store/criteria"
	"github.com/5w1tchy/shelf-api/internal/store/userbooks"
)

// Deps are the collaborators the HTTP surface is built from. RDB, Events and
// Covers may be nil; the features behind them then degrade or report 503.
type Deps struct {
	DB       *sql.DB
	RDB      *redis.Client
	JWT      *jwtutil.Manager
	Auth     *auth.Handler
	Versions mw.TokenVersions
	Books    userbooks.Store
	Criteria *criteria.Store
	Events   books.Recorder
	Covers   books.CoverStorage
}

func Router(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	protect := mw.RequireAuth(d.JWT, d.Versions)
	private := func(h http.HandlerFunc) http.Handler { return protect(h) }

	// Root & health
	mux.HandleFunc("GET /", handlers.RootHandler)
	mux.Handle("GET /healthz", handlers.Healthz(d.DB, d.RDB))

	// Auth
	mux.HandleFunc("POST /auth/register", d.Auth.Register)
	mux.Handle("POST /auth/login", mw.LoginRateLimit(d.RDB)(http.HandlerFunc(d.Auth.Login)))
	mux.HandleFunc("POST /auth/refresh", d.Auth.Refresh)
	mux.HandleFunc("POST /auth/logout", d.Auth.Logout)
	mux.Handle("POST /auth/logout-all", private(d.Auth.LogoutAll))
	mux.Handle("GET /auth/me", private(d.Auth.Me))
	mux.Handle("POST /auth/change-password", private(d.Auth.ChangePassword))

	// Books (owner-scoped)
	bh := books.New(d.Books, d.Criteria, d.Events, d.Covers)
	mux.Handle("GET /books", protect(mw.HPP(mw.ListQueryParams)(http.HandlerFunc(bh.List))))
	mux.Handle("POST /books", private(bh.Create))
	mux.Handle("GET /books/stats", private(bh.Stats))
	mux.Handle("GET /books/suggest", private(search.Suggest(d.Books)))
	mux.Handle("GET /books/{id}", private(bh.Get))
	mux.Handle("PATCH /books/{id}", private(bh.Patch))
	mux.Handle("PUT /books/{id}", private(bh.Put))
	mux.Handle("DELETE /books/{id}", private(bh.Delete))
	mux.Handle("POST /books/{id}/cover", private(bh.UploadCover))

	// Saved filter state
	fh := filters.New(d.Criteria)
	mux.Handle("GET /me/filters", private(fh.Get))
	mux.Handle("PATCH /me/filters", private(fh.Patch))
	mux.Handle("POST /me/filters/reset", private(fh.Reset))

	// Activity
	mux.Handle("GET /me/activity", protect(activity.Recent(d.DB)))

	return mux
}

// Handler is Router behind the global middleware chain.
func Handler(d Deps) http.Handler {
	tb := mw.NewRedisTokenBucket(d.RDB, 5, 20, mw.PerIPKey("tb"))
	sw := mw.NewRedisSlidingWindow(d.RDB, 3000, 60*time.Minute, mw.PerIPKey("sw"))

	return Chain(
		Router(d),
		mw.RequestID,
		mw.Recovery,
		mw.AccessLog,
		mw.Cors(mw.OriginsFromEnv()),
		mw.SecurityHeaders,
		mw.ResponseTime,
		mw.BodySizeLimit(mw.BodyLimitFromEnv()),
		tb.Middleware,
		sw.Middleware,
		mw.Compression,
	)
}
