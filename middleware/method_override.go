package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideField is the form field and query parameter HTML forms use to
// tunnel PUT and DELETE through POST.
const MethodOverrideField = "_method"

// MethodOverride rewrites POST requests carrying _method=PUT|PATCH|DELETE
// before the router sees them. It wraps the whole handler because gin picks
// the route before any gin middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := overrideMethod(r); m != "" {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	v := r.URL.Query().Get(MethodOverrideField)
	if v == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		// ParseForm keeps the body readable later through r.PostForm.
		if err := r.ParseForm(); err == nil {
			v = r.PostForm.Get(MethodOverrideField)
		}
	}
	if v == "" {
		v = r.Header.Get("X-HTTP-Method-Override")
	}
	switch m := strings.ToUpper(strings.TrimSpace(v)); m {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m
	}
	return ""
}
