package mediainfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

var ErrBadStatus = errors.New("probeURL bad status code")

const probeHTTPTimeout = 10 * time.Second

// ProbeURL checks that a remote media source is reachable and resolves its
// content type from the first bytes of the payload, falling back to the
// URL extension. Load paths use it to fail fast with a named source error
// before anything reaches the receiver.
func ProbeURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("probeURL failed to parse url: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = probeHTTPTimeout
	client := retryClient.StandardClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("probeURL failed to call NewRequest: %w", err)
	}
	req.Header.Set("Range", "bytes=0-260")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probeURL failed to client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("probeURL %q status %d: %w", rawURL, resp.StatusCode, ErrBadStatus)
	}

	ct, err := FromReader(resp.Body, filepath.Ext(parsed.Path))
	if err != nil {
		return "", fmt.Errorf("probeURL sniff error: %w", err)
	}

	return ct, nil
}
