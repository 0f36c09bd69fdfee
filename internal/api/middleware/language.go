// Package middleware implements the JSONP-wrapping and language-prefix
// adapters layered in front of the reconciliation handlers.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const langKey contextKey = "lang"

// LanguagePrefix strips a leading "/<lang>" path segment (e.g. "/fr/api")
// and stores the language it names in the request context, overriding
// whatever the request would otherwise negotiate. Requests with no
// recognized prefix pass through unchanged.
func LanguagePrefix(known func(lang string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if len(path) > 1 && path[0] == '/' {
				rest := path[1:]
				if i := strings.IndexByte(rest, '/'); i > 0 {
					candidate := rest[:i]
					if known == nil || known(candidate) {
						ctx := context.WithValue(r.Context(), langKey, candidate)
						r2 := r.WithContext(ctx)
						r2.URL.Path = rest[i:]
						next.ServeHTTP(w, r2)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Language returns the language the LanguagePrefix middleware recognized
// for this request, or "" if none did.
func Language(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Context().Value(langKey).(string); ok {
		return v
	}
	return ""
}
