package middlewares

import (
	"net/http"
	"slices"
)

// ListQueryParams are the query parameters GET /books understands.
var ListQueryParams = []string{
	"status", "genre", "rating_min", "rating_max", "pages_min", "pages_max",
	"favorites", "author", "q", "sort", "order", "status_first", "limit",
}

// HPP guards against HTTP parameter pollution: repeated keys collapse to
// their first value and keys outside whitelist are dropped.
func HPP(whitelist []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				filterQueryParams(r, whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if !slices.Contains(whitelist, k) {
			query.Del(k)
			continue
		}
		if len(v) > 1 {
			query.Set(k, v[0])
		}
	}
	r.URL.RawQuery = query.Encode()
}
