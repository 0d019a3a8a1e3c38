package timefmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrBadClock = errors.New("malformed clock string")

// Format renders a position in seconds the way the player clock shows it.
// Hours appear only when the position needs them and sub-minute positions
// render as zero-padded seconds. Fractions truncate.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}

	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	case m > 0:
		return fmt.Sprintf("%d:%02d", m, s)
	default:
		return fmt.Sprintf("%02d", s)
	}
}

// Parse is the inverse of Format. It accepts all three shapes Format
// produces and returns whole seconds.
func Parse(clock string) (float64, error) {
	parts := strings.Split(clock, ":")
	if len(parts) > 3 {
		return 0, ErrBadClock
	}

	total := 0
	for _, part := range parts {
		if part == "" {
			return 0, ErrBadClock
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, ErrBadClock
		}

		total = total*60 + n
	}

	return float64(total), nil
}
