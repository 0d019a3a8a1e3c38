// Package mediaserver exposes local media to the receiver over HTTP.
// Receivers pull the media themselves, so the server stays up for the
// whole playback and handlers come and go per loaded file.
package mediaserver

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server is an http.Server with a dynamic route table, so one instance
// can serve successive media files and their caption sidecars.
type Server struct {
	http *http.Server
	Mux  *http.ServeMux

	mu       sync.Mutex
	handlers map[string]entry

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

type entry struct {
	path        string
	contentType string
	body        []byte
	modTime     time.Time
}

// NewServer generates a new Server bound to addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	srv := &Server{
		http:     &http.Server{Addr: addr, Handler: mux},
		Mux:      mux,
		handlers: make(map[string]entry),
	}

	mux.HandleFunc("/", srv.serveHandler())
	return srv
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (s *Server) Log() *zerolog.Logger {
	if s.LogOutput != nil {
		s.initLogOnce.Do(func() {
			s.Logger = zerolog.New(s.LogOutput).With().Timestamp().Logger()
		})
	}
	return &s.Logger
}

// AddFile serves the file at path under route. An empty contentType
// leaves the type to the stdlib's extension lookup.
func (s *Server) AddFile(route, path, contentType string) {
	s.mu.Lock()
	s.handlers[route] = entry{path: path, contentType: contentType}
	s.mu.Unlock()
}

// AddBytes serves an in-memory body under route, e.g. converted
// subtitles that never touch the disk.
func (s *Server) AddBytes(route, contentType string, body []byte) {
	s.mu.Lock()
	s.handlers[route] = entry{body: body, contentType: contentType, modTime: time.Now()}
	s.mu.Unlock()
}

// RemoveHandler drops a route.
func (s *Server) RemoveHandler(route string) {
	s.mu.Lock()
	delete(s.handlers, route)
	s.mu.Unlock()
}

// StartServer starts serving and reports readiness or the listen error
// on serverStarted. It blocks until the server closes.
func (s *Server) StartServer(serverStarted chan<- error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		serverStarted <- fmt.Errorf("server listen error: %w", err)
		return
	}

	s.Log().Debug().Str("Method", "StartServer").Str("Addr", s.http.Addr).Msg("serving media")
	serverStarted <- nil
	_ = s.http.Serve(ln)
}

// StopServer forcefully closes the HTTP server.
func (s *Server) StopServer() {
	s.http.Close()
}

func (s *Server) serveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out, exists := s.handlers[r.URL.Path]
		s.mu.Unlock()

		if !exists {
			http.NotFound(w, r)
			return
		}

		// Receivers fetch caption tracks from a different origin than
		// the app, so every route answers with open CORS headers.
		respHeader := w.Header()
		respHeader.Set("Access-Control-Allow-Origin", "*")
		respHeader.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		respHeader.Set("Access-Control-Allow-Headers", "Content-Type, Range")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if out.contentType != "" {
			respHeader.Set("Content-Type", out.contentType)
		}

		if out.body != nil {
			http.ServeContent(w, r, filepath.Base(r.URL.Path), out.modTime, bytes.NewReader(out.body))
			return
		}

		f, err := os.Open(out.path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			http.NotFound(w, r)
			return
		}

		http.ServeContent(w, r, filepath.Base(out.path), info.ModTime(), f)
	}
}
