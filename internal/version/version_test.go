package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		v1      string
		v2      string
		want    int
		wantErr bool
	}{
		{"v1 greater", "2.0.0", "1.9.9", 1, false},
		{"v1 less", "1.0.0", "1.0.1", -1, false},
		{"equal", "1.2.3", "1.2.3", 0, false},
		{"patch greater", "1.2.10", "1.2.9", 1, false},
		{"minor less", "1.2.0", "1.10.0", -1, false},
		{"with v prefix", "v1.5.0", "1.4.0", 1, false},
		{"short form equals padded", "1.0", "1.0.0", 0, false},
		{"invalid version", "dev", "1.0.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.v1, tt.v2)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Compare(%q, %q) expected error, got none", tt.v1, tt.v2)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compare(%q, %q) returned error: %v", tt.v1, tt.v2, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
			}
		})
	}
}

func TestCheckLatestDetectsNewRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/mjsorribas/PopcornCast/releases/tag/v9.9.9", http.StatusFound)
	}))
	defer srv.Close()

	latest, newer, err := checkLatest(context.Background(), "1.0.0", srv.URL)
	if err != nil {
		t.Fatalf("checkLatest returned error: %v", err)
	}
	if latest != "9.9.9" {
		t.Errorf("latest = %q, want %q", latest, "9.9.9")
	}
	if !newer {
		t.Error("expected a newer release to be reported")
	}
}

func TestCheckLatestSameVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/mjsorribas/PopcornCast/releases/tag/v1.0.0", http.StatusFound)
	}))
	defer srv.Close()

	latest, newer, err := checkLatest(context.Background(), "1.0.0", srv.URL)
	if err != nil {
		t.Fatalf("checkLatest returned error: %v", err)
	}
	if latest != "1.0.0" {
		t.Errorf("latest = %q, want %q", latest, "1.0.0")
	}
	if newer {
		t.Error("expected no newer release for the same version")
	}
}

func TestCheckLatestWithoutRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, _, err := checkLatest(context.Background(), "1.0.0", srv.URL)
	if !errors.Is(err, ErrNoRedirect) {
		t.Fatalf("expected ErrNoRedirect, got %v", err)
	}
}

func TestCheckLatestRejectsDevBuild(t *testing.T) {
	_, _, err := checkLatest(context.Background(), "dev", "http://127.0.0.1:0")
	if !errors.Is(err, ErrDevVersion) {
		t.Fatalf("expected ErrDevVersion, got %v", err)
	}
}
