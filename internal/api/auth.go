package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminGuard protects match control routes with a shared bearer token.
// A guard with an empty token lets every request through.
type AdminGuard struct {
	digest  [sha256.Size]byte
	enabled bool
}

// NewAdminGuard creates a guard for token
func NewAdminGuard(token string) *AdminGuard {
	g := &AdminGuard{enabled: token != ""}
	if g.enabled {
		g.digest = sha256.Sum256([]byte(token))
	}
	return g
}

// Enabled reports whether a token is required
func (g *AdminGuard) Enabled() bool {
	return g != nil && g.enabled
}

// Authorized checks the request's bearer token
func (g *AdminGuard) Authorized(r *http.Request) bool {
	if !g.Enabled() {
		return true
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	got := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return subtle.ConstantTimeCompare(got[:], g.digest[:]) == 1
}

// Middleware rejects unauthorized requests with 401
func (g *AdminGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authorized(r) {
			RecordConnectionRejected("unauthorized")
			w.Header().Set("WWW-Authenticate", `Bearer realm="match"`)
			writeError(w, "admin token required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
