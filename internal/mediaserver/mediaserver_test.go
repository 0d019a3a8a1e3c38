package mediaserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServeFileRoute(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mp4")
	if err := os.WriteFile(mediaPath, []byte("fake mp4 payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewServer(":0")
	s.AddFile("/movie.mp4", mediaPath, "video/mp4")

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "fake mp4 payload" {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin header = %q, want *", got)
	}
}

func TestServeFileSupportsRangeRequests(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mp4")
	if err := os.WriteFile(mediaPath, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewServer(":0")
	s.AddFile("/movie.mp4", mediaPath, "video/mp4")

	req := httptest.NewRequest(http.MethodGet, "/movie.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Errorf("range body = %q, want 2345", got)
	}
}

func TestServeBytesRoute(t *testing.T) {
	s := NewServer(":0")
	s.AddBytes("/movie.vtt", "text/vtt", []byte("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhi\n"))

	req := httptest.NewRequest(http.MethodGet, "/movie.vtt", nil)
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/vtt" {
		t.Errorf("content type = %q, want text/vtt", got)
	}
	if got := rec.Body.String(); !strings.HasPrefix(got, "WEBVTT") {
		t.Errorf("body = %q, want WebVTT document", got)
	}
}

func TestOptionsPreflight(t *testing.T) {
	s := NewServer(":0")
	s.AddBytes("/movie.vtt", "text/vtt", []byte("WEBVTT\n"))

	req := httptest.NewRequest(http.MethodOptions, "/movie.vtt", nil)
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("missing CORS methods header on preflight")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := NewServer(":0")

	req := httptest.NewRequest(http.MethodGet, "/nope.mp4", nil)
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRemoveHandler(t *testing.T) {
	s := NewServer(":0")
	s.AddBytes("/gone.vtt", "text/vtt", []byte("WEBVTT\n"))
	s.RemoveHandler("/gone.vtt")

	req := httptest.NewRequest(http.MethodGet, "/gone.vtt", nil)
	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 after remove", rec.Code)
	}
}
