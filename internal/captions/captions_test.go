package captions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:01,234 --> 00:00:04,567
Hello, world

2
00:01:02,000 --> 00:01:03,999
Second cue
over two lines
`

func TestConvert(t *testing.T) {
	out, err := Convert(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	vtt := string(out)
	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Fatalf("missing WEBVTT header: %q", vtt[:20])
	}
	if !strings.Contains(vtt, "00:00:01.234 --> 00:00:04.567") {
		t.Fatal("first cue timestamps were not rewritten")
	}
	if !strings.Contains(vtt, "00:01:02.000 --> 00:01:03.999") {
		t.Fatal("second cue timestamps were not rewritten")
	}
	if !strings.Contains(vtt, "Hello, world") {
		t.Fatal("cue text with a comma must survive unchanged")
	}
	if !strings.Contains(vtt, "over two lines") {
		t.Fatal("multi-line cue text lost")
	}
	// Bare counters stay as cue identifiers.
	if !strings.Contains(vtt, "\n1\n") {
		t.Fatal("cue identifier dropped")
	}
}

func TestConvertRejectsNonUTF8(t *testing.T) {
	latin1 := []byte("1\n00:00:01,000 --> 00:00:02,000\ncaf\xe9 au lait\n")

	_, err := Convert(strings.NewReader(string(latin1)))
	if !errors.Is(err, ErrNotUTF8) {
		t.Fatalf("got %v, want ErrNotUTF8", err)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(path, []byte(sampleSRT), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ConvertFile(path)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "WEBVTT") {
		t.Fatal("missing WEBVTT header")
	}

	if _, err := ConvertFile(filepath.Join(dir, "missing.srt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestTrackFor(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mkv")
	srt := filepath.Join(dir, "movie.srt")

	if got := TrackFor(media); got != "" {
		t.Fatalf("got %q, want no track", got)
	}

	if err := os.WriteFile(srt, []byte(sampleSRT), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := TrackFor(media); got != srt {
		t.Fatalf("got %q, want %q", got, srt)
	}
}

func TestStyleMessages(t *testing.T) {
	msg := TrackMessage("http://10.0.0.2:3500/subs.vtt")
	if msg.Type != "CAPTIONS" || msg.Track == "" || msg.Font != "" {
		t.Fatalf("unexpected track message: %+v", msg)
	}

	msg = FontMessage("serif")
	if msg.Type != "FONT" || msg.Font != "serif" || msg.Track != "" {
		t.Fatalf("unexpected font message: %+v", msg)
	}
}
