// Package requestid propagates a correlation ID from X-Request-ID, minting
// one when the caller did not send it.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"leadflow/pkg/requestcontext"
)

const Header = "X-Request-ID"

const maxLen = 128

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(Header))
		if reqID == "" || len(reqID) > maxLen {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
