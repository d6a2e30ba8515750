package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminGuardDisabled(t *testing.T) {
	g := NewAdminGuard("")
	assert.False(t, g.Enabled())
	assert.True(t, g.Authorized(httptest.NewRequest("POST", "/", nil)))

	var nilGuard *AdminGuard
	assert.False(t, nilGuard.Enabled())
}

func TestAdminGuardAuthorized(t *testing.T) {
	g := NewAdminGuard("token-123")
	assert.True(t, g.Enabled())

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"missing", "", false},
		{"wrong scheme", "Basic token-123", false},
		{"wrong token", "Bearer token-124", false},
		{"prefix only", "Bearer token", false},
		{"valid", "Bearer token-123", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, g.Authorized(r))
		})
	}
}

func TestAdminGuardMiddleware(t *testing.T) {
	g := NewAdminGuard("token-123")
	called := false
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin token required")
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	assert.False(t, called)
}
