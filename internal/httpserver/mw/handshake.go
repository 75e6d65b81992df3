package mw

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/chs/internal/logger"
)

// HandshakeHeader carries the shared secret on every request.
const HandshakeHeader = "X-Handshake-Key"

// Handshake rejects any request whose X-Handshake-Key does not equal key.
// It runs before routing so no handler ever sees an unauthenticated request.
func Handshake(key string, log logger.Logger) func(http.Handler) http.Handler {
	expected := []byte(key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(HandshakeHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				log.Debug("handshake rejected",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr),
					logger.Bool("header_present", len(got) > 0))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
