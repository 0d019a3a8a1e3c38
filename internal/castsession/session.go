// Package castsession is the facade over the cast receiver protocol. The
// playback controller drives it through narrow interfaces so transports
// can be faked in tests.
package castsession

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotReady reports that no receiver is resolvable yet. Launch paths
// poll until the environment comes up.
var ErrNotReady = errors.New("cast environment not ready")

// Connector hands out receiver sessions.
type Connector interface {
	RequestSession(ctx context.Context) (Session, error)
}

// Session is a connected receiver application.
type Session interface {
	LoadMedia(ctx context.Context, req LoadRequest) (MediaSession, error)
	SendMessage(ctx context.Context, namespace string, payload any) error
	Close(ctx context.Context, stopApp bool) error
	Receiver() string
}

// MediaSession is an active media item on a session.
type MediaSession interface {
	AddUpdateListener(fn func(Status))
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, pos float64) error
	SetVolume(ctx context.Context, level float64) error
	SetMuted(ctx context.Context, muted bool) error
}

// CaptionTrack rides along on a load request as a WebVTT text track.
type CaptionTrack struct {
	URL      string
	Name     string
	Language string
}

// LoadRequest describes the media to put on the receiver.
type LoadRequest struct {
	URL         string
	ContentType string
	Title       string
	Autoplay    bool
	StartTime   float64
	Captions    *CaptionTrack
}

// Player states a receiver reports.
const (
	StateIdle      = "IDLE"
	StateBuffering = "BUFFERING"
	StatePlaying   = "PLAYING"
	StatePaused    = "PAUSED"
)

// Idle reasons a receiver reports once media leaves the player.
const (
	IdleFinished    = "FINISHED"
	IdleCancelled   = "CANCELLED"
	IdleError       = "ERROR"
	IdleInterrupted = "INTERRUPTED"
)

// Status is one receiver push: position, extent and transport state of
// the current media plus the receiver volume.
type Status struct {
	PlayerState    string
	IdleReason     string
	CurrentTime    float64
	Duration       float64
	MediaSessionID int
	Volume         float64
	Muted          bool
}
