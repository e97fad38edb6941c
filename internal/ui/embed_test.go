package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	t.Parallel()
	h := Handler()
	cases := []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/kanban", http.StatusOK},
		{http.MethodGet, "/docs/3", http.StatusOK},
		{http.MethodHead, "/", http.StatusOK},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.code {
			t.Errorf("%s %s: status=%d, want %d", tc.method, tc.path, rec.Code, tc.code)
			continue
		}
		if tc.method != http.MethodGet {
			continue
		}
		if !strings.Contains(rec.Body.String(), "<title>Jet Dashboard</title>") {
			t.Errorf("%s %s: expected the dashboard page", tc.method, tc.path)
		}
		if rec.Header().Get("Cache-Control") != "no-cache" {
			t.Errorf("%s %s: Cache-Control = %q", tc.method, tc.path, rec.Header().Get("Cache-Control"))
		}
	}
}
