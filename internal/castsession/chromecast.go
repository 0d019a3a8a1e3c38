package castsession

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vishen/go-chromecast/application"
	"github.com/vishen/go-chromecast/cast"
)

const (
	// connectionRetries covers slow TVs that need time to wake.
	connectionRetries = 5

	// statusPollInterval paces receiver status refreshes while a media
	// session is active.
	statusPollInterval = 1 * time.Second
)

// Resolver locates the receiver to dial. Implementations return
// ErrNotReady while nothing is resolvable yet.
type Resolver func(ctx context.Context) (host string, port int, err error)

// ChromecastConnector dials real receivers over the cast v2 protocol.
type ChromecastConnector struct {
	resolver Resolver

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

func NewChromecastConnector(resolver Resolver) *ChromecastConnector {
	return &ChromecastConnector{resolver: resolver}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (c *ChromecastConnector) Log() *zerolog.Logger {
	if c.LogOutput != nil {
		c.initLogOnce.Do(func() {
			c.Logger = zerolog.New(c.LogOutput).With().Timestamp().Logger()
		})
	}
	return &c.Logger
}

// RequestSession resolves a receiver and connects to it. A resolver miss
// surfaces as ErrNotReady so callers can poll.
func (c *ChromecastConnector) RequestSession(ctx context.Context) (Session, error) {
	host, port, err := c.resolver(ctx)
	if err != nil {
		return nil, fmt.Errorf("requestSession resolve: %w", err)
	}

	// Keep a reference to the raw connection for custom commands the
	// application API does not cover.
	conn := cast.NewConnection()
	app := application.NewApplication(
		application.WithConnection(conn),
		application.WithConnectionRetries(connectionRetries),
	)

	c.Log().Debug().Str("Method", "RequestSession").Str("Host", host).Int("Port", port).Msg("connecting")
	if err := app.Start(host, port); err != nil {
		c.Log().Error().Str("Method", "RequestSession").Err(err).Msg("connection failed")
		return nil, fmt.Errorf("requestSession connect: %w", err)
	}

	return &chromecastSession{
		app:      app,
		conn:     conn,
		receiver: net.JoinHostPort(host, strconv.Itoa(port)),
		log:      c.Log(),
	}, nil
}

// isTimeoutError checks if an error is a timeout/deadline exceeded error.
// This typically happens when the TV needs to wake from sleep.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

type chromecastSession struct {
	mu        sync.Mutex
	app       *application.Application
	conn      cast.Conn
	receiver  string
	transport string
	media     *chromecastMedia
	closed    bool
	log       *zerolog.Logger
}

func (s *chromecastSession) Receiver() string { return s.receiver }

// awaitTransportID polls the receiver until the default media app
// reports a transport id. Slow TVs can take several rounds.
func (s *chromecastSession) awaitTransportID(ctx context.Context) (string, error) {
	if s.transport != "" {
		return s.transport, nil
	}

	for i := range 8 {
		if err := s.app.Update(); err != nil {
			s.log.Debug().Str("Method", "awaitTransportID").Int("Attempt", i+1).Err(err).Msg("app.Update retry")
		} else if app := s.app.App(); app != nil && app.TransportId != "" {
			s.transport = app.TransportId
			return s.transport, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
		}
	}

	return "", errors.New("no transport id from receiver")
}

// LoadMedia sends a raw LOAD request so caption tracks and explicit
// start positions ride along, then starts the status poll loop for the
// new media session. Any previous media session stops reporting.
func (s *chromecastSession) LoadMedia(ctx context.Context, req LoadRequest) (MediaSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("loadMedia: session closed")
	}

	s.log.Debug().Str("Method", "LoadMedia").Str("URL", req.URL).Str("ContentType", req.ContentType).Bool("HasCaptions", req.Captions != nil).Msg("loading media")

	transportID, err := s.awaitTransportID(ctx)
	if err != nil {
		return nil, fmt.Errorf("loadMedia transport id: %w", err)
	}

	payload := buildLoadPayload(req)
	requestID := nextRequestID()
	payload.SetRequestId(requestID)

	// Timeouts here usually mean the TV is waking from sleep, so the
	// send gets a few more chances before giving up.
	var sendErr error
	for attempt := range 3 {
		sendErr = s.conn.Send(requestID, payload, senderID, transportID, mediaNamespace)
		if sendErr == nil || !isTimeoutError(sendErr) {
			break
		}

		s.log.Debug().Str("Method", "LoadMedia").Int("Attempt", attempt).Err(sendErr).Msg("timeout, TV may be waking up, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if sendErr != nil {
		s.log.Error().Str("Method", "LoadMedia").Err(sendErr).Msg("load send failed")
		return nil, fmt.Errorf("loadMedia send: %w", sendErr)
	}

	if s.media != nil {
		s.media.stop()
	}
	s.media = newChromecastMedia(s)

	return s.media, nil
}

// SendMessage ships an arbitrary JSON payload to the receiver app over
// the given namespace.
func (s *chromecastSession) SendMessage(ctx context.Context, namespace string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("sendMessage: session closed")
	}

	transportID, err := s.awaitTransportID(ctx)
	if err != nil {
		return fmt.Errorf("sendMessage transport id: %w", err)
	}

	raw, err := newRawPayload(payload)
	if err != nil {
		return fmt.Errorf("sendMessage encode: %w", err)
	}

	requestID := nextRequestID()
	raw.SetRequestId(requestID)

	s.log.Debug().Str("Method", "SendMessage").Str("Namespace", namespace).Msg("sending message")
	if err := s.conn.Send(requestID, raw, senderID, transportID, namespace); err != nil {
		return fmt.Errorf("sendMessage send: %w", err)
	}
	return nil
}

// Close tears the connection down. With stopApp set the receiver app
// stops as well instead of keeping whatever it plays.
func (s *chromecastSession) Close(ctx context.Context, stopApp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.media != nil {
		s.media.stop()
		s.media = nil
	}

	s.log.Debug().Str("Method", "Close").Bool("StopApp", stopApp).Msg("closing connection")
	if err := s.app.Close(stopApp); err != nil {
		s.log.Error().Str("Method", "Close").Err(err).Msg("failed")
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// status asks the receiver for a fresh media status and maps it to the
// session-neutral shape.
func (s *chromecastSession) status() (Status, error) {
	if err := s.app.Update(); err != nil {
		return Status{}, fmt.Errorf("status update: %w", err)
	}

	_, media, vol := s.app.Status()

	st := Status{PlayerState: StateIdle}
	if vol != nil {
		st.Volume = float64(vol.Level)
		st.Muted = vol.Muted
	}
	if media != nil {
		st.PlayerState = media.PlayerState
		st.IdleReason = media.IdleReason
		st.CurrentTime = float64(media.CurrentTime)
		st.MediaSessionID = media.MediaSessionId
		if media.Media.Duration > 0 {
			st.Duration = float64(media.Media.Duration)
		}
	}
	return st, nil
}

// chromecastMedia is one loaded media item. It polls the receiver for
// status and fans the pushes out to listeners until stopped.
type chromecastMedia struct {
	session *chromecastSession

	mu        sync.Mutex
	listeners []func(Status)
	cancel    context.CancelFunc
}

func newChromecastMedia(s *chromecastSession) *chromecastMedia {
	ctx, cancel := context.WithCancel(context.Background())
	m := &chromecastMedia{session: s, cancel: cancel}
	go m.pollStatus(ctx)
	return m
}

func (m *chromecastMedia) stop() { m.cancel() }

func (m *chromecastMedia) pollStatus(ctx context.Context) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := m.session.status()
		if err != nil {
			m.session.log.Debug().Str("Method", "pollStatus").Err(err).Msg("status refresh failed")
			continue
		}

		m.mu.Lock()
		listeners := make([]func(Status), len(m.listeners))
		copy(listeners, m.listeners)
		m.mu.Unlock()

		for _, fn := range listeners {
			fn(st)
		}
	}
}

func (m *chromecastMedia) AddUpdateListener(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Play resumes playback. Unpause reuses the media session id from the
// load response, which a standalone PLAY would lack.
func (m *chromecastMedia) Play(ctx context.Context) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("Method", "Play").Msg("resuming playback")
	if err := s.app.Unpause(); err != nil {
		s.log.Error().Str("Method", "Play").Err(err).Msg("failed")
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Pause pauses playback.
func (m *chromecastMedia) Pause(ctx context.Context) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("Method", "Pause").Msg("pausing playback")
	if err := s.app.Pause(); err != nil {
		s.log.Error().Str("Method", "Pause").Err(err).Msg("failed")
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Stop stops playback and closes the media session on the receiver.
func (m *chromecastMedia) Stop(ctx context.Context) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("Method", "Stop").Msg("stopping playback")
	if err := s.app.Stop(); err != nil {
		s.log.Error().Str("Method", "Stop").Err(err).Msg("failed")
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

// Seek jumps to pos seconds from the start.
func (m *chromecastMedia) Seek(ctx context.Context, pos float64) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	seconds := int(pos)
	s.log.Debug().Str("Method", "Seek").Int("Seconds", seconds).Msg("seeking")
	if err := s.app.SeekFromStart(seconds); err != nil {
		s.log.Error().Str("Method", "Seek").Err(err).Msg("failed")
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

// SetVolume sets the receiver volume (0.0 to 1.0).
func (m *chromecastMedia) SetVolume(ctx context.Context, level float64) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("Method", "SetVolume").Float64("Level", level).Msg("setting volume")
	if err := s.app.SetVolume(float32(level)); err != nil {
		s.log.Error().Str("Method", "SetVolume").Err(err).Msg("failed")
		return fmt.Errorf("setVolume: %w", err)
	}
	return nil
}

// SetMuted sets the receiver mute state.
func (m *chromecastMedia) SetMuted(ctx context.Context, muted bool) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("Method", "SetMuted").Bool("Muted", muted).Msg("setting mute")
	if err := s.app.SetMuted(muted); err != nil {
		s.log.Error().Str("Method", "SetMuted").Err(err).Msg("failed")
		return fmt.Errorf("setMuted: %w", err)
	}
	return nil
}
