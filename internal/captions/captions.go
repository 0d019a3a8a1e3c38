// Package captions prepares subtitle sidecars for casting. SRT input is
// converted to WebVTT, which is what receivers render, and caption styling
// travels over a custom receiver namespace.
package captions

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/saintfish/chardet"
)

var ErrNotUTF8 = errors.New("subtitles are not UTF-8 encoded")

const (
	// Namespace is the custom receiver channel for caption styling.
	Namespace = "urn:x-cast:popcorncast.captions"

	// ContentType of converted subtitle tracks.
	ContentType = "text/vtt"
)

// SRT uses a comma before the milliseconds, WebVTT uses a dot.
var timeRegex = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)

// Convert turns SRT content into WebVTT. Bare cue counters are carried
// through as WebVTT cue identifiers. Non-UTF-8 input fails with the
// detected charset in the error.
func Convert(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("convert read error: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("convert %s input: %w", detectCharset(raw), ErrNotUTF8)
	}

	var buf bytes.Buffer
	buf.WriteString("WEBVTT\n\n")

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, " --> ") {
			line = timeRegex.ReplaceAllString(line, "$1.$2")
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("convert scan error: %w", err)
	}

	return buf.Bytes(), nil
}

// ConvertFile converts an SRT subtitle file to WebVTT.
func ConvertFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("convertFile open error: %w", err)
	}
	defer f.Close()

	return Convert(f)
}

// TrackFor returns the sidecar subtitle path next to a media file, or an
// empty string when there is none.
func TrackFor(mediaPath string) string {
	srt := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
	if _, err := os.Stat(srt); err != nil {
		return ""
	}

	return srt
}

func detectCharset(raw []byte) string {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}

	det := chardet.NewTextDetector()
	guess, err := det.DetectBest(head)
	if err != nil || guess == nil {
		return "unknown charset"
	}

	return guess.Charset
}

// StyleMessage is the payload the receiver's caption handler expects on
// the captions namespace.
type StyleMessage struct {
	Type  string `json:"type"`
	Track string `json:"track,omitempty"`
	Font  string `json:"font,omitempty"`
}

// TrackMessage selects the active caption track on the receiver.
func TrackMessage(trackURL string) StyleMessage {
	return StyleMessage{Type: "CAPTIONS", Track: trackURL}
}

// FontMessage sets the caption font on the receiver.
func FontMessage(font string) StyleMessage {
	return StyleMessage{Type: "FONT", Font: font}
}
