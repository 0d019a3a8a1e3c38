// Package controller owns playback for both legs, local and cast, as
// one serialized state machine. Every mutation happens under a single
// lock and every asynchronous completion is fenced by a generation
// counter, so late transport callbacks can never resurrect dead state.
package controller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mjsorribas/PopcornCast/internal/captions"
	"github.com/mjsorribas/PopcornCast/internal/castsession"
	"github.com/mjsorribas/PopcornCast/internal/localplayer"
	"github.com/mjsorribas/PopcornCast/internal/mediainfo"
	"github.com/mjsorribas/PopcornCast/internal/progress"
	"github.com/mjsorribas/PopcornCast/internal/screen"
)

const (
	defaultTickInterval = 1 * time.Second
	defaultLaunchPoll   = 1 * time.Second
	defaultSliderHeight = 100

	// commandTimeout caps a single transport command.
	commandTimeout = 10 * time.Second
)

var (
	ErrNoSession    = errors.New("no cast session")
	ErrNoMedia      = errors.New("no media loaded")
	ErrBadSourceIdx = errors.New("media source index out of range")
	ErrSeekState    = errors.New("seek is only legal while playing or paused")
)

// MediaSource is one castable item.
type MediaSource struct {
	URL      string
	Title    string
	Captions string  // URL of a WebVTT track, empty for none
	Duration float64 // seconds, 0 when unknown
}

func sourceLabel(src MediaSource) string {
	if src.Title != "" {
		return src.Title
	}
	return src.URL
}

// Config wires a Controller.
type Config struct {
	Connector castsession.Connector
	Local     *localplayer.Player
	Sources   []MediaSource
	Sink      screen.Renderer

	// Font is pushed to the receiver after every captioned load.
	Font string

	BarWidth     int
	SliderHeight float64
	Suppression  time.Duration
	TickInterval time.Duration
	LaunchPoll   time.Duration

	LogOutput io.Writer
}

// Controller is the dual-mode playback state machine.
type Controller struct {
	mu sync.Mutex

	connector castsession.Connector
	local     *localplayer.Player
	sources   []MediaSource
	sink      screen.Renderer

	session castsession.Session
	media   castsession.MediaSession

	deviceState DeviceState
	castState   PlayerState
	localState  PlayerState

	// generation fences asynchronous completions. It bumps on session
	// adoption, teardown and every load; a completion carrying an older
	// value gets dropped before it may touch state.
	generation uint64

	sourceIdx int
	title     string
	receiver  string
	message   string

	volume float64
	muted  bool

	font         string
	sliderHeight float64
	tickInterval time.Duration
	launchPoll   time.Duration

	timer      *progress.Timer
	reconciler *progress.Reconciler

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

func New(cfg Config) *Controller {
	local := cfg.Local
	if local == nil {
		local = localplayer.New()
	}

	sliderHeight := cfg.SliderHeight
	if sliderHeight <= 0 {
		sliderHeight = defaultSliderHeight
	}
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	launchPoll := cfg.LaunchPoll
	if launchPoll <= 0 {
		launchPoll = defaultLaunchPoll
	}

	return &Controller{
		connector:    cfg.Connector,
		local:        local,
		sources:      cfg.Sources,
		sink:         cfg.Sink,
		volume:       1,
		font:         cfg.Font,
		sliderHeight: sliderHeight,
		tickInterval: tickInterval,
		launchPoll:   launchPoll,
		timer:        progress.NewTimer(),
		reconciler:   progress.NewReconciler(cfg.BarWidth, cfg.Suppression),
		LogOutput:    cfg.LogOutput,
	}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (c *Controller) Log() *zerolog.Logger {
	if c.LogOutput != nil {
		c.initLogOnce.Do(func() {
			c.Logger = zerolog.New(c.LogOutput).With().Timestamp().Logger()
		})
	}
	return &c.Logger
}

// Mode derives the active leg in exactly one place. A held session
// means cast, anything else is local.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Controller) modeLocked() Mode {
	if c.session != nil {
		return ModeCast
	}
	return ModeLocal
}

func (c *Controller) activeStateLocked() PlayerState {
	if c.modeLocked() == ModeCast {
		return c.castState
	}
	return c.localState
}

// Sources returns the configured media list.
func (c *Controller) Sources() []MediaSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sources
}

// Launch requests a cast session and, once granted, loads the indexed
// source onto it. While the environment reports not ready the request
// keeps polling, so a receiver that is still waking up turns into a
// pending launch instead of an error.
func (c *Controller) Launch(ctx context.Context, index int, autoplay bool) error {
	c.mu.Lock()

	if c.connector == nil {
		c.mu.Unlock()
		return errors.New("launch: no connector configured")
	}
	if index < 0 || index >= len(c.sources) {
		c.mu.Unlock()
		return fmt.Errorf("launch source %d: %w", index, ErrBadSourceIdx)
	}
	if c.session != nil {
		c.mu.Unlock()
		return c.Load(ctx, index, autoplay)
	}

	gen := c.generation
	c.deviceState = DeviceWarning
	c.renderLocked("Requesting session...")
	c.mu.Unlock()

	go c.runLaunch(ctx, gen, index, autoplay)
	return nil
}

func (c *Controller) runLaunch(ctx context.Context, gen uint64, index int, autoplay bool) {
	for {
		sess, err := c.connector.RequestSession(ctx)
		if err == nil {
			c.adoptSession(ctx, gen, sess, index, autoplay)
			return
		}

		if errors.Is(err, castsession.ErrNotReady) {
			c.Log().Debug().Str("Method", "Launch").Err(err).Msg("environment not ready, polling")
			select {
			case <-ctx.Done():
				c.failLaunch(gen, ctx.Err())
				return
			case <-time.After(c.launchPoll):
			}
			continue
		}

		c.failLaunch(gen, err)
		return
	}
}

func (c *Controller) adoptSession(ctx context.Context, gen uint64, sess castsession.Session, index int, autoplay bool) {
	c.mu.Lock()
	if gen != c.generation || c.session != nil {
		c.mu.Unlock()
		c.Log().Debug().Str("Method", "Launch").Msg("stale session grant, closing it")
		closeCtx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		_ = sess.Close(closeCtx, false)
		return
	}

	c.generation++
	c.session = sess
	c.receiver = sess.Receiver()
	c.deviceState = DeviceActive
	c.renderLocked("Session active")
	c.mu.Unlock()

	if err := c.Load(ctx, index, autoplay); err != nil {
		c.Log().Error().Str("Method", "Launch").Err(err).Msg("load after session grant failed")
	}
}

func (c *Controller) failLaunch(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.session != nil {
		return
	}

	c.Log().Error().Str("Method", "Launch").Err(err).Msg("session request failed")
	c.deviceState = DeviceError
	c.renderLocked("Session request failed")
}

// SessionDiscovered adopts a session the environment found on its own,
// e.g. a receiver already running the app. A held session wins, the
// discovery is dropped in that case.
func (c *Controller) SessionDiscovered(sess castsession.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.Log().Debug().Str("Method", "SessionDiscovered").Msg("session already held, ignoring discovery")
		return
	}

	c.generation++
	c.session = sess
	c.receiver = sess.Receiver()
	c.deviceState = DeviceActive
	c.renderLocked("Joined session")
}

// Load puts the indexed source on the held session. The media leaves
// through a goroutine; its completion is fenced by the generation
// captured here.
func (c *Controller) Load(ctx context.Context, index int, autoplay bool) error {
	c.mu.Lock()

	if index < 0 || index >= len(c.sources) {
		c.mu.Unlock()
		return fmt.Errorf("load source %d: %w", index, ErrBadSourceIdx)
	}
	if c.session == nil {
		c.mu.Unlock()
		return fmt.Errorf("load: %w", ErrNoSession)
	}

	src := c.sources[index]
	c.generation++
	gen := c.generation
	c.sourceIdx = index
	c.title = sourceLabel(src)
	c.castState = PlayerLoading
	c.media = nil
	c.timer.Stop()
	c.reconciler.Reset()
	if src.Duration > 0 {
		c.reconciler.SetDuration(src.Duration)
	}
	sess := c.session
	c.renderLocked("Loading " + sourceLabel(src))
	c.mu.Unlock()

	req := castsession.LoadRequest{
		URL:         src.URL,
		ContentType: mediainfo.FromURL(src.URL),
		Title:       src.Title,
		Autoplay:    autoplay,
	}
	if src.Captions != "" {
		req.Captions = &castsession.CaptionTrack{URL: src.Captions}
	}

	go c.runLoad(ctx, gen, sess, req, autoplay)
	return nil
}

func (c *Controller) runLoad(ctx context.Context, gen uint64, sess castsession.Session, req castsession.LoadRequest, autoplay bool) {
	media, err := sess.LoadMedia(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.Log().Debug().Str("Method", "Load").Uint64("Gen", gen).Msg("stale load completion dropped")
		return
	}

	if err != nil {
		c.Log().Error().Str("Method", "Load").Str("URL", req.URL).Err(err).Msg("load failed")
		c.resetPlaybackLocked()
		c.renderLocked("Could not load " + c.title)
		return
	}

	c.media = media
	media.AddUpdateListener(c.statusListener(gen))

	if req.Captions != nil && c.font != "" {
		font := c.font
		go func() {
			if err := sendCaptionStyle(sess, captions.FontMessage(font)); err != nil {
				c.Log().Error().Str("Method", "Load").Err(err).Msg("caption font push failed")
			}
		}()
	}

	if autoplay {
		c.castState = PlayerPlaying
		c.startTimerLocked()
		c.renderLocked("Playing")
		return
	}

	c.castState = PlayerLoaded
	c.renderLocked("Loaded")
}

// LoadLocal primes the local element with the indexed source.
func (c *Controller) LoadLocal(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.sources) {
		return fmt.Errorf("loadLocal source %d: %w", index, ErrBadSourceIdx)
	}

	src := c.sources[index]
	c.generation++
	c.sourceIdx = index
	c.title = sourceLabel(src)
	c.localState = PlayerLoaded
	c.timer.Stop()
	c.reconciler.Reset()
	if src.Duration > 0 {
		c.reconciler.SetDuration(src.Duration)
	}

	c.local.Load(src.URL, src.Title, mediainfo.FromURL(src.URL), src.Duration)
	c.renderLocked("Loaded " + sourceLabel(src))
	return nil
}

// Play resumes whichever leg is active. The state flips optimistically
// and reverts when the transport says no.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return fmt.Errorf("play: %w", ErrNoMedia)
		}
		prev := c.castState
		if prev == PlayerPlaying || prev == PlayerLoading || prev == PlayerSeeking {
			return nil
		}
		media := c.media
		c.castState = PlayerPlaying
		c.startTimerLocked()
		c.renderLocked("Playing")
		c.dispatchLocked("Play", c.revertCast(prev), func(ctx context.Context) error {
			return media.Play(ctx)
		})
	default:
		if !c.local.HasMedia() {
			return fmt.Errorf("play: %w", ErrNoMedia)
		}
		prev := c.localState
		if prev == PlayerPlaying || prev == PlayerSeeking {
			return nil
		}
		c.localState = PlayerPlaying
		c.startTimerLocked()
		c.renderLocked("Playing")
		c.dispatchLocked("Play", c.revertLocal(prev), func(ctx context.Context) error {
			return c.local.Play(ctx)
		})
	}
	return nil
}

// Pause suspends the active leg.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return fmt.Errorf("pause: %w", ErrNoMedia)
		}
		if c.castState != PlayerPlaying {
			return nil
		}
		media := c.media
		c.castState = PlayerPaused
		c.timer.Stop()
		c.renderLocked("Paused")
		c.dispatchLocked("Pause", c.revertCast(PlayerPlaying), func(ctx context.Context) error {
			return media.Pause(ctx)
		})
	default:
		if !c.local.HasMedia() {
			return fmt.Errorf("pause: %w", ErrNoMedia)
		}
		if c.localState != PlayerPlaying {
			return nil
		}
		c.localState = PlayerPaused
		c.timer.Stop()
		c.renderLocked("Paused")
		c.dispatchLocked("Pause", c.revertLocal(PlayerPlaying), func(ctx context.Context) error {
			return c.local.Pause(ctx)
		})
	}
	return nil
}

// TogglePlay flips between play and pause on the active leg.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	active := c.activeStateLocked()
	c.mu.Unlock()

	if active == PlayerPlaying {
		return c.Pause()
	}
	return c.Play()
}

// Stop halts the active leg and clears the position. The media stays
// loaded on the session until the next load replaces it.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return fmt.Errorf("stop: %w", ErrNoMedia)
		}
		prev := c.castState
		if prev == PlayerStopped {
			return nil
		}
		media := c.media
		c.castState = PlayerStopped
		c.timer.Stop()
		c.reconciler.Reset()
		c.renderLocked("Stopped")
		c.dispatchLocked("Stop", c.revertCast(prev), func(ctx context.Context) error {
			return media.Stop(ctx)
		})
	default:
		if !c.local.HasMedia() {
			return fmt.Errorf("stop: %w", ErrNoMedia)
		}
		prev := c.localState
		if prev == PlayerStopped {
			return nil
		}
		c.localState = PlayerStopped
		c.timer.Stop()
		c.reconciler.Reset()
		c.renderLocked("Stopped")
		c.dispatchLocked("Stop", c.revertLocal(prev), func(ctx context.Context) error {
			return c.local.Stop(ctx)
		})
	}
	return nil
}

// Seek jumps to pos seconds. Only legal while playing or paused; any
// other state never reaches the transport.
func (c *Controller) Seek(pos float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos < 0 {
		pos = 0
	}

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return fmt.Errorf("seek: %w", ErrNoMedia)
		}
		prev := c.castState
		if prev != PlayerPlaying && prev != PlayerPaused {
			return fmt.Errorf("seek from %s: %w", prev, ErrSeekState)
		}
		media := c.media
		gen := c.generation
		c.castState = PlayerSeeking
		c.renderLocked("Seeking")
		go c.runSeek(gen, prev, pos, false, func(ctx context.Context) error {
			return media.Seek(ctx, pos)
		})
	default:
		if !c.local.HasMedia() {
			return fmt.Errorf("seek: %w", ErrNoMedia)
		}
		prev := c.localState
		if prev != PlayerPlaying && prev != PlayerPaused {
			return fmt.Errorf("seek from %s: %w", prev, ErrSeekState)
		}
		gen := c.generation
		c.localState = PlayerSeeking
		c.renderLocked("Seeking")
		go c.runSeek(gen, prev, pos, true, func(ctx context.Context) error {
			return c.local.Seek(ctx, pos)
		})
	}
	return nil
}

// SeekBy jumps relative to the current position.
func (c *Controller) SeekBy(delta float64) error {
	pos := c.reconciler.Snapshot().Position + delta
	if pos < 0 {
		pos = 0
	}
	return c.Seek(pos)
}

// runSeek completes a seek. On success the new position is pushed as
// authoritative so the next optimistic tick cannot stomp it; either way
// the pre-seek state comes back.
func (c *Controller) runSeek(gen uint64, prev PlayerState, pos float64, localLeg bool, call func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := call(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.Log().Debug().Str("Method", "Seek").Uint64("Gen", gen).Msg("stale seek completion dropped")
		return
	}

	if err != nil {
		c.Log().Error().Str("Method", "Seek").Err(err).Msg("transport command failed")
	} else {
		c.reconciler.Push(pos, 0)
	}

	if localLeg {
		c.localState = prev
	} else {
		c.castState = prev
	}
	if prev == PlayerPlaying {
		c.startTimerLocked()
	} else {
		c.timer.Stop()
	}

	if err != nil {
		c.renderLocked("Seek failed")
		return
	}
	c.renderLocked(prev.String())
}

// SetVolumeLevel applies a direct 0..1 level to the active leg.
func (c *Controller) SetVolumeLevel(level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setVolumeLocked(clampLevel(level))
}

// AdjustVolume nudges the level by delta, clamped to 0..1.
func (c *Controller) AdjustVolume(delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setVolumeLocked(clampLevel(c.volume + delta))
}

// SetVolumePosition maps a slider drag position onto a level through
// the easing curve before applying it.
func (c *Controller) SetVolumePosition(pos float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setVolumeLocked(EasedLevel(pos, c.sliderHeight, c.volume))
}

func (c *Controller) setVolumeLocked(level float64) error {
	prev := c.volume
	c.volume = level
	c.renderLocked(fmt.Sprintf("Volume %d%%", int(level*100)))

	revert := func() { c.volume = prev }

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return nil
		}
		media := c.media
		c.dispatchLocked("SetVolume", revert, func(ctx context.Context) error {
			return media.SetVolume(ctx, level)
		})
	default:
		c.dispatchLocked("SetVolume", revert, func(ctx context.Context) error {
			return c.local.SetVolume(ctx, level)
		})
	}
	return nil
}

// Mute silences the active leg.
func (c *Controller) Mute() error { return c.setMuted(true) }

// Unmute restores the active leg.
func (c *Controller) Unmute() error { return c.setMuted(false) }

// ToggleMute flips the mute state.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	return c.setMuted(!muted)
}

func (c *Controller) setMuted(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.muted
	c.muted = muted
	msg := "Muted"
	if !muted {
		msg = "Unmuted"
	}
	c.renderLocked(msg)

	revert := func() { c.muted = prev }

	switch c.modeLocked() {
	case ModeCast:
		if c.media == nil {
			return nil
		}
		media := c.media
		c.dispatchLocked("SetMuted", revert, func(ctx context.Context) error {
			return media.SetMuted(ctx, muted)
		})
	default:
		c.dispatchLocked("SetMuted", revert, func(ctx context.Context) error {
			return c.local.SetMuted(ctx, muted)
		})
	}
	return nil
}

// StopApp tears the receiver application down and drops back to local
// mode. Late callbacks from the old session die on the generation fence.
func (c *Controller) StopApp() error {
	c.mu.Lock()

	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return fmt.Errorf("stopApp: %w", ErrNoSession)
	}

	c.generation++
	c.session = nil
	c.media = nil
	c.receiver = ""
	c.castState = PlayerIdle
	c.localState = PlayerIdle
	c.deviceState = DeviceIdle
	c.timer.Stop()
	c.reconciler.Reset()
	c.renderLocked("Disconnected")
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := sess.Close(ctx, true); err != nil {
		c.Log().Error().Str("Method", "StopApp").Err(err).Msg("session close failed")
		return fmt.Errorf("stopApp close: %w", err)
	}
	return nil
}

// SetCaptions points the receiver at a caption track, fire and forget
// over the captions namespace.
func (c *Controller) SetCaptions(trackURL string) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return fmt.Errorf("setCaptions: %w", ErrNoSession)
	}
	return sendCaptionStyle(sess, captions.TrackMessage(trackURL))
}

// SetFont sets the caption font on the receiver.
func (c *Controller) SetFont(font string) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return fmt.Errorf("setFont: %w", ErrNoSession)
	}
	return sendCaptionStyle(sess, captions.FontMessage(font))
}

// sendCaptionStyle ships a style message over the captions namespace of
// an explicit session.
func sendCaptionStyle(sess castsession.Session, msg captions.StyleMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := sess.SendMessage(ctx, captions.Namespace, msg); err != nil {
		return fmt.Errorf("sendCaptionStyle %s: %w", msg.Type, err)
	}
	return nil
}

// dispatchLocked issues a transport command off the lock. When the
// command fails the revert closure runs under the lock, provided the
// generation still matches. Caller holds the lock.
func (c *Controller) dispatchLocked(op string, revert func(), call func(context.Context) error) {
	gen := c.generation

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := call(ctx)
		if err == nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		c.Log().Error().Str("Method", op).Err(err).Msg("transport command failed, reverting")
		if gen != c.generation {
			return
		}
		revert()
		c.renderLocked(op + " failed")
	}()
}

// revertCast builds the undo closure for an optimistic cast transition.
// It runs under the lock inside dispatchLocked.
func (c *Controller) revertCast(prev PlayerState) func() {
	return func() {
		c.castState = prev
		if prev == PlayerPlaying {
			c.startTimerLocked()
		} else {
			c.timer.Stop()
		}
	}
}

func (c *Controller) revertLocal(prev PlayerState) func() {
	return func() {
		c.localState = prev
		if prev == PlayerPlaying {
			c.startTimerLocked()
		} else {
			c.timer.Stop()
		}
	}
}

func (c *Controller) statusListener(gen uint64) func(castsession.Status) {
	return func(st castsession.Status) {
		c.handleStatus(gen, st)
	}
}

// handleStatus is the single entry point for receiver status pushes.
func (c *Controller) handleStatus(gen uint64, st castsession.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.Log().Debug().Str("Method", "handleStatus").Uint64("Gen", gen).Msg("stale status dropped")
		return
	}

	finished := st.IdleReason == castsession.IdleFinished
	left := st.PlayerState == castsession.StateIdle &&
		(c.castState == PlayerLoaded || c.castState == PlayerPlaying ||
			c.castState == PlayerPaused || c.castState == PlayerSeeking)
	if finished || left {
		c.Log().Debug().Str("Method", "handleStatus").Str("IdleReason", st.IdleReason).Msg("media left the receiver")
		c.endOfMediaLocked()
		return
	}

	switch st.PlayerState {
	case castsession.StatePlaying:
		c.castState = PlayerPlaying
		c.startTimerLocked()
	case castsession.StatePaused:
		c.castState = PlayerPaused
		c.timer.Stop()
	case castsession.StateBuffering:
		// Buffering inside a seek keeps the seeking state; the seek
		// completion restores the real one.
		if c.castState != PlayerSeeking {
			c.castState = PlayerLoading
		}
	}

	c.reconciler.Push(st.CurrentTime, st.Duration)
	c.renderLocked(c.message)
}

// tick is the optimistic progress path, driven by the shared timer.
func (c *Controller) tick() {
	c.advance(c.tickInterval.Seconds())
}

func (c *Controller) advance(step float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeStateLocked() != PlayerPlaying {
		return
	}

	snap, applied, end := c.reconciler.Tick(step)
	if !applied {
		return
	}
	if end {
		c.Log().Debug().Str("Method", "tick").Float64("Position", snap.Position).Msg("reached end of media")
		c.endOfMediaLocked()
		return
	}

	c.renderLocked(c.message)
}

func (c *Controller) startTimerLocked() {
	c.timer.Start(c.tickInterval, c.tick)
}

// resetPlaybackLocked unwinds playback state while keeping the session
// alive. The generation bump kills every outstanding callback.
func (c *Controller) resetPlaybackLocked() {
	c.generation++
	c.media = nil
	c.castState = PlayerIdle
	c.localState = PlayerIdle
	c.timer.Stop()
	c.reconciler.Reset()
}

func (c *Controller) endOfMediaLocked() {
	c.resetPlaybackLocked()
	c.renderLocked("Finished")
}
