package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWSTokenToHeader(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})
	handler := wsTokenToHeader(next)

	t.Run("token in query", func(t *testing.T) {
		got = ""
		req := httptest.NewRequest(http.MethodGet, "/ws?token=abc123", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got != "Bearer abc123" {
			t.Fatalf("expected Authorization header to be set, got %q", got)
		}
	})

	t.Run("no token leaves header alone", func(t *testing.T) {
		got = ""
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Authorization", "Bearer existing")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got != "Bearer existing" {
			t.Fatalf("expected existing header preserved, got %q", got)
		}
	})
}
