package api

import (
	"net/http"
)

type middleware func(http.Handler) http.Handler

func inlineMiddleware(middleware func(rw http.ResponseWriter, r *http.Request, next http.Handler)) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			middleware(rw, r, next)
		})
	}
}
