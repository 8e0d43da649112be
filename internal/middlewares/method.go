package middlewares

import (
	"net/http"
	"strings"
)

const methodField = "_method"

// MethodOverride lets HTML forms, which can only POST, issue PUT, PATCH and
// DELETE requests through a hidden _method field.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch m := strings.ToUpper(r.PostFormValue(methodField)); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
