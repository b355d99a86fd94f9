package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

var (
	privatePages  = []string{"/dashboard", "/profile", "/rooms/create", "/questions"}
	authOnlyPages = []string{"/login", "/register", "/forgot-password", "/verify"}
)

func hasPagePrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// AccessGate redirects signed-out visitors away from private pages and
// signed-in users away from the auth pages. API paths are never redirected.
// Must run after Identify.
func AccessGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		signedIn := GetIdentity(r.Context()).Authenticated
		switch {
		case !signedIn && hasPagePrefix(path, privatePages):
			http.Redirect(w, r, "/login?callbackUrl="+url.QueryEscape(path), http.StatusFound)
			return
		case signedIn && hasPagePrefix(path, authOnlyPages):
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
