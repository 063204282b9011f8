// Package httpserver exposes word rotation and subscriber capture over HTTP.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kittclouds/tenwords/internal/logging"
	"github.com/kittclouds/tenwords/internal/store"
	"github.com/kittclouds/tenwords/pkg/response"
	"github.com/kittclouds/tenwords/pkg/subscriptions"
)

// WordPicker serves batches of words.
type WordPicker interface {
	Words(ctx context.Context, n int) (*response.WordResponse, error)
}

// Subscriber stores newsletter subscribers.
type Subscriber interface {
	Subscribe(ctx context.Context, name, email string) (*store.Subscription, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server's collaborators.
type Options struct {
	Picker     WordPicker
	Subscriber Subscriber
	Health     Pinger
	BatchSize  int
	Logger     *slog.Logger
}

// Server serves the tenwords HTTP API.
type Server struct {
	opts   Options
	logger *slog.Logger
	srv    *http.Server
	lis    net.Listener
}

// New builds a server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	mux := http.NewServeMux()
	s := &Server{
		opts:   opts,
		logger: logger,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
	}
	mux.HandleFunc("/health_check", s.handleHealth)
	mux.HandleFunc("/words", s.handleWords)
	mux.HandleFunc("/subscriptions", s.handleSubscribe)
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("http server listening", slog.String("addr", l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close closes the listener passed to Serve, if any.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.opts.Health != nil {
		if err := s.opts.Health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", slog.Any("error", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	resp, err := s.opts.Picker.Words(r.Context(), s.opts.BatchSize)
	if err != nil {
		// never retried: the batch may already be committed
		s.logger.Error("serve words failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to fetch words")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	_, err := s.opts.Subscriber.Subscribe(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("email"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, subscriptions.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "already subscribed")
	default:
		s.logger.Error("save subscriber failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to save subscriber")
	}
}
