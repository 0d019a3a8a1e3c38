package timefmt

import (
	"math"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"seconds only", 7, "07"},
		{"seconds upper edge", 59, "59"},
		{"exact minute", 60, "1:00"},
		{"minutes and seconds", 75, "1:15"},
		{"minutes upper edge", 3599, "59:59"},
		{"exact hour", 3600, "1:00:00"},
		{"hours with padding", 3725, "1:02:05"},
		{"double digit hours", 36115, "10:01:55"},
		{"fraction truncates", 95.9, "1:35"},
		{"zero", 0, "00"},
		{"negative clamps to zero", -5, "00"},
		{"nan clamps to zero", math.NaN(), "00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.seconds); got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		clock string
		want  float64
	}{
		{"07", 7},
		{"59", 59},
		{"1:00", 60},
		{"1:15", 75},
		{"59:59", 3599},
		{"1:00:00", 3600},
		{"1:02:05", 3725},
		{"10:01:55", 36115},
	}

	for _, tt := range tests {
		got, err := Parse(tt.clock)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.clock, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.clock, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, clock := range []string{"", ":", "1:", ":30", "1:2:3:4", "1:-2", "x:10", "1:0x"} {
		if _, err := Parse(clock); err == nil {
			t.Errorf("Parse(%q) expected an error", clock)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 7, 59, 60, 95.4, 3599, 3600, 3725.9, 86399} {
		got, err := Parse(Format(seconds))
		if err != nil {
			t.Fatalf("Parse(Format(%v)) unexpected error: %v", seconds, err)
		}
		if want := math.Floor(seconds); got != want {
			t.Fatalf("round trip for %v: got %v, want %v", seconds, got, want)
		}
	}
}
