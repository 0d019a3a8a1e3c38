// Package mediainfo resolves the content type we advertise for a media
// source, from its extension, its leading bytes or a probe of its URL.
package mediainfo

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// DefaultContentType is what we advertise when nothing better is known.
// Receivers treat it as a generic video container.
const DefaultContentType = "video/mp4"

var contentTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".gif":  "image/gif",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// FromExtension maps a file extension (with or without the leading dot)
// to a content type. Unknown extensions fall back to DefaultContentType.
func FromExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	if ct, ok := contentTypes[ext]; ok {
		return ct
	}

	return DefaultContentType
}

// FromURL resolves the content type from the path component of a media
// URL, ignoring any query string. Bare paths work too.
func FromURL(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}

	return FromExtension(filepath.Ext(path))
}

// FromReader sniffs the content type from the leading bytes of a media
// stream. When the sniffer does not recognize the payload, the fallback
// extension decides.
func FromReader(r io.Reader, fallbackExt string) (string, error) {
	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("fromReader head read error: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil {
		return "", fmt.Errorf("fromReader match error: %w", err)
	}

	if kind == filetype.Unknown {
		return FromExtension(fallbackExt), nil
	}

	return fmt.Sprintf("%s/%s", kind.MIME.Type, kind.MIME.Subtype), nil
}

// IsImage reports whether a content type belongs to the image family.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
