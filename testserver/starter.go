package testserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Listener is a started server as seen by the pipeline.
type Listener interface {
	Addr() net.Addr
	Shutdown(ctx context.Context) error
}

// Starter binds addr and serves handler until shut down. Start returns once
// the listener is bound; requests may be served from another goroutine.
type Starter interface {
	Start(ctx context.Context, addr string, handler http.Handler) (Listener, error)
}

// StarterFunc adapts a function to the Starter interface.
type StarterFunc func(ctx context.Context, addr string, handler http.Handler) (Listener, error)

// Start calls f.
func (f StarterFunc) Start(ctx context.Context, addr string, handler http.Handler) (Listener, error) {
	return f(ctx, addr, handler)
}

// HTTPStarter serves over TCP with net/http.
type HTTPStarter struct {
	Logger            *slog.Logger
	ReadHeaderTimeout time.Duration
}

// Start implements Starter.
func (s *HTTPStarter) Start(ctx context.Context, addr string, handler http.Handler) (Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := s.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeout,
	}

	go func() {
		logger.Debug("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	return &httpListener{srv: srv, addr: ln.Addr()}, nil
}

type httpListener struct {
	srv  *http.Server
	addr net.Addr
}

func (l *httpListener) Addr() net.Addr {
	return l.addr
}

func (l *httpListener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}
