// Package middleware provides HTTP middleware shared by the RentFlow servers.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/RentFlow/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 64
)

// RequestID is HTTP middleware that extracts X-Request-ID from the request
// header or generates a new one. The ID is stored in the context, where the
// logger picks it up, and echoed on the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
