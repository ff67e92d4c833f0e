package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/temoto/robotstxt"
)

func TestRobotsTxtHandler(t *testing.T) {
	handler := RobotsTxtHandler()

	tests := []struct {
		name       string
		method     string
		wantStatus int
	}{
		{name: "GET returns 200", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "HEAD returns 200", method: http.MethodHead, wantStatus: http.StatusOK},
		{name: "POST not allowed", method: http.MethodPost, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/robots.txt", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	if !strings.Contains(rec.Body.String(), "Disallow: /admin") {
		t.Errorf("robots.txt should keep crawlers out of /admin, got %q", rec.Body.String())
	}
}

func TestRobotsTxtRules(t *testing.T) {
	rec := httptest.NewRecorder()
	RobotsTxtHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	data, err := robotstxt.FromBytes(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("robots.txt does not parse: %v", err)
	}

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/", true},
		{"/jazz-night", true},
		{"/jazz-night/thanks", true},
		{"/admin", false},
		{"/admin/jazz-night", false},
		{"/user/login", false},
	}
	for _, tt := range tests {
		if got := data.TestAgent(tt.path, "Googlebot"); got != tt.allowed {
			t.Errorf("TestAgent(%q) = %v, want %v", tt.path, got, tt.allowed)
		}
	}
}

func TestStaticHandler(t *testing.T) {
	handler := StaticHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", rec.Code)
	}
}

func TestTemplatesIncludeLayout(t *testing.T) {
	if _, err := fs.Stat(Templates(), "layout.html"); err != nil {
		t.Fatalf("layout.html not embedded: %v", err)
	}
	pages, err := fs.Glob(Templates(), "pages/*.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) == 0 {
		t.Fatal("no page templates embedded")
	}
}
