// Package version compares release versions and asks the project's
// release page for the newest one.
package version

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// releasesURL redirects to the latest tagged release.
const releasesURL = "https://github.com/mjsorribas/PopcornCast/releases/latest"

var (
	// ErrDevVersion reports a build without a comparable version, e.g.
	// a non-release "dev" binary.
	ErrDevVersion = errors.New("development build has no comparable version")

	// ErrNoRedirect reports a release endpoint that did not answer with
	// the expected redirect to a tag.
	ErrNoRedirect = errors.New("release endpoint did not redirect to a tag")
)

// normalize adds a "v" prefix to the version string if it's missing.
// The semver package strictly requires the "v" prefix (e.g., "v1.2.3").
func normalize(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// Compare compares two semantic version strings.
// Returns 1 if v1 > v2, -1 if v1 < v2, and 0 if equal.
// Returns an error if either version is not valid semver.
func Compare(v1, v2 string) (int, error) {
	v1Norm := normalize(v1)
	v2Norm := normalize(v2)

	if !semver.IsValid(v1Norm) {
		return 0, errors.New("invalid version: " + v1)
	}
	if !semver.IsValid(v2Norm) {
		return 0, errors.New("invalid version: " + v2)
	}

	return semver.Compare(v1Norm, v2Norm), nil
}

// CheckLatest asks the release page for the newest tag and compares it
// against current.
func CheckLatest(ctx context.Context, current string) (latest string, newer bool, err error) {
	return checkLatest(ctx, current, releasesURL)
}

func checkLatest(ctx context.Context, current, url string) (string, bool, error) {
	if !semver.IsValid(normalize(current)) {
		return "", false, fmt.Errorf("checkLatest %q: %w", current, ErrDevVersion)
	}

	// The release page answers with a redirect to the tag, which is all
	// we need. The client intercepts it instead of following.
	errRedirectChecker := errors.New("redirect")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil

	client := retryClient.StandardClient()
	client.Timeout = 3 * time.Second
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return errRedirectChecker
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("checkLatest request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil && !errors.Is(err, errRedirectChecker) {
		return "", false, fmt.Errorf("checkLatest get: %w", err)
	}
	defer resp.Body.Close()

	if !errors.Is(err, errRedirectChecker) {
		return "", false, fmt.Errorf("checkLatest status %d: %w", resp.StatusCode, ErrNoRedirect)
	}

	loc, err := resp.Location()
	if err != nil {
		return "", false, fmt.Errorf("checkLatest location: %w", err)
	}

	latest := strings.TrimPrefix(filepath.Base(loc.Path), "v")
	cmp, err := Compare(latest, current)
	if err != nil {
		return "", false, fmt.Errorf("checkLatest compare: %w", err)
	}

	return latest, cmp > 0, nil
}
