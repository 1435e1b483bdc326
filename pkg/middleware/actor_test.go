package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorMiddleware(t *testing.T) {
	var seen string
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetActorID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		method   string
		actor    string
		status   int
		expected string
	}{
		{"anonymous read", http.MethodGet, "", http.StatusNoContent, ""},
		{"named read", http.MethodGet, "clerk-7", http.StatusNoContent, "clerk-7"},
		{"anonymous write", http.MethodPost, "", http.StatusUnauthorized, ""},
		{"named write", http.MethodPost, "clerk-7", http.StatusNoContent, "clerk-7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(tc.method, "/", nil)
			if tc.actor != "" {
				req.Header.Set(ActorHeader, tc.actor)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.expected, seen)
		})
	}
}
