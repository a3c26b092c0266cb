// Package mock provides an in-memory fake of the story spoiler API for local
// runs and tests.
package mock

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

const (
	DefaultPort     = 3000
	DefaultUsername = "Yoo"
	DefaultPassword = "123456"
)

// Server is a mock story API
type Server struct {
	router   chi.Router
	stories  *storyStore
	port     int
	delay    time.Duration
	loggers  ldlog.Loggers
	requests atomic.Int64

	mu     sync.RWMutex
	users  map[string]string
	tokens map[string]string
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithUser registers credentials the authentication endpoint accepts.
func WithUser(username, password string) Option {
	return func(s *Server) {
		s.users[username] = password
	}
}

func WithLoggers(loggers ldlog.Loggers) Option {
	return func(s *Server) {
		s.loggers = loggers
	}
}

// NewServer creates a new mock server. Without WithUser it accepts the
// default demo credentials.
func NewServer(opts ...Option) *Server {
	s := &Server{
		stories: newStoryStore(),
		port:    DefaultPort,
		loggers: ldlog.NewDisabledLoggers(),
		users:   make(map[string]string),
		tokens:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.users) == 0 {
		s.users[DefaultUsername] = DefaultPassword
	}

	r := chi.NewRouter()
	if s.delay > 0 {
		r.Use(s.delayMiddleware)
	}
	s.routes(r)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler so Server can be used directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests the server has received.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Stories returns a snapshot of the stored stories.
func (s *Server) Stories() []Story {
	return s.stories.list()
}

// Story looks up one story by id.
func (s *Server) Story(id string) (Story, bool) {
	return s.stories.get(id)
}

// Start starts the mock server
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext starts the server with context for graceful shutdown
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.loggers.Infof("Mock story API listening on http://localhost:%d", s.port)
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) delayMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func userFrom(r *http.Request) string {
	user, _ := r.Context().Value(ctxKey{}).(string)
	return user
}
