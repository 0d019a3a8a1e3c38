// Package localplayer is the local leg of playback, a virtual media
// element the controller drives while no cast session is held. Position
// bookkeeping lives in the progress engine, not here.
package localplayer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skratchdot/open-golang/open"
)

// ErrNoMedia reports a transport command before any Load.
var ErrNoMedia = errors.New("no media loaded")

// Player is the virtual local element. All methods are safe for
// concurrent use.
type Player struct {
	mu       sync.Mutex
	url      string
	title    string
	duration float64
	volume   float64
	muted    bool
	playing  bool
	opened   bool

	// OpenOnPlay hands the URL to the OS default player on the first
	// Play after a Load.
	OpenOnPlay bool

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

func New() *Player {
	return &Player{volume: 1}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (p *Player) Log() *zerolog.Logger {
	if p.LogOutput != nil {
		p.initLogOnce.Do(func() {
			p.Logger = zerolog.New(p.LogOutput).With().Timestamp().Logger()
		})
	}
	return &p.Logger
}

// Load primes the element with new media. Duration 0 means unknown.
func (p *Player) Load(url, title, contentType string, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.url = url
	p.title = title
	p.duration = duration
	p.playing = false
	p.opened = false
	p.Log().Debug().Str("Method", "Load").Str("URL", url).Str("ContentType", contentType).Float64("Duration", duration).Msg("media primed")
}

// Play starts or resumes the element. The optional OS handoff happens
// once per load; a failure there is logged but playback state still
// advances, the element keeps its own clock either way.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url == "" {
		return fmt.Errorf("play: %w", ErrNoMedia)
	}

	p.playing = true
	if p.OpenOnPlay && !p.opened {
		p.opened = true
		p.Log().Debug().Str("Method", "Play").Str("URL", p.url).Msg("handing off to the system player")
		if err := open.Run(p.url); err != nil {
			p.Log().Error().Str("Method", "Play").Err(err).Msg("system player handoff failed")
		}
	}
	return nil
}

// Pause suspends the element.
func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url == "" {
		return fmt.Errorf("pause: %w", ErrNoMedia)
	}
	p.playing = false
	return nil
}

// Stop halts the element. The media stays loaded so Play can restart it.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url == "" {
		return fmt.Errorf("stop: %w", ErrNoMedia)
	}
	p.playing = false
	return nil
}

// Seek validates that a jump is possible. The shared progress engine
// owns the actual position.
func (p *Player) Seek(ctx context.Context, pos float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url == "" {
		return fmt.Errorf("seek: %w", ErrNoMedia)
	}
	if pos < 0 {
		return fmt.Errorf("seek to %.1f: position before start", pos)
	}
	return nil
}

// SetVolume stores a 0..1 level.
func (p *Player) SetVolume(ctx context.Context, level float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	p.volume = level
	return nil
}

// SetMuted stores the mute state.
func (p *Player) SetMuted(ctx context.Context, muted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	return nil
}

// HasMedia reports whether a Load happened.
func (p *Player) HasMedia() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url != ""
}

// Playing reports whether the element advances.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Duration returns the primed duration, 0 when unknown.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Title returns the primed title.
func (p *Player) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// URL returns the primed URL.
func (p *Player) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Volume returns the stored 0..1 level.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Muted returns the stored mute state.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}
