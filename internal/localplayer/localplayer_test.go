package localplayer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func TestPlayBeforeLoadFails(t *testing.T) {
	p := New()

	if err := p.Play(context.Background()); !errors.Is(err, ErrNoMedia) {
		t.Fatalf("Play() error = %v, want ErrNoMedia", err)
	}
	if err := p.Pause(context.Background()); !errors.Is(err, ErrNoMedia) {
		t.Fatalf("Pause() error = %v, want ErrNoMedia", err)
	}
	if err := p.Seek(context.Background(), 10); !errors.Is(err, ErrNoMedia) {
		t.Fatalf("Seek() error = %v, want ErrNoMedia", err)
	}
}

func TestLoadPlayPauseRoundTrip(t *testing.T) {
	p := New()
	p.Load("http://10.0.0.5:3500/movie.mp4", "Movie Night", "video/mp4", 120)

	if !p.HasMedia() {
		t.Fatal("HasMedia() = false after Load")
	}
	if p.Playing() {
		t.Fatal("Playing() = true before Play")
	}
	if got := p.Duration(); got != 120 {
		t.Fatalf("Duration() = %v, want 120", got)
	}

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !p.Playing() {
		t.Fatal("Playing() = false after Play")
	}

	if err := p.Pause(context.Background()); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if p.Playing() {
		t.Fatal("Playing() = true after Pause")
	}
}

func TestLoadResetsPlayback(t *testing.T) {
	p := New()
	p.Load("http://example.com/a.mp4", "A", "video/mp4", 60)
	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	p.Load("http://example.com/b.mkv", "B", "video/x-matroska", 0)
	if p.Playing() {
		t.Fatal("Playing() = true after a fresh Load")
	}
	if got := p.Duration(); got != 0 {
		t.Fatalf("Duration() = %v, want 0 for unknown", got)
	}
	if got := p.Title(); got != "B" {
		t.Fatalf("Title() = %q, want %q", got, "B")
	}
}

func TestSeekRejectsNegativePosition(t *testing.T) {
	p := New()
	p.Load("http://example.com/a.mp4", "A", "video/mp4", 60)

	if err := p.Seek(context.Background(), -1); err == nil {
		t.Fatal("Seek(-1) error = nil, want error")
	}
	if err := p.Seek(context.Background(), 30); err != nil {
		t.Fatalf("Seek(30) error = %v", err)
	}
}

func TestVolumeClamps(t *testing.T) {
	p := New()

	if err := p.SetVolume(context.Background(), 1.7); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if got := p.Volume(); got != 1 {
		t.Fatalf("Volume() = %v, want 1", got)
	}

	if err := p.SetVolume(context.Background(), -0.2); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	if got := p.Volume(); got != 0 {
		t.Fatalf("Volume() = %v, want 0", got)
	}

	if err := p.SetMuted(context.Background(), true); err != nil {
		t.Fatalf("SetMuted() error = %v", err)
	}
	if !p.Muted() {
		t.Fatal("Muted() = false after SetMuted(true)")
	}
}
