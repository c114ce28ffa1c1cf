package testserver

import (
	"context"
	"sync"
	"testing"

	"github.com/drblury/contractserver/router"
)

// Harness creates at most one server for a test and closes it during the
// test's cleanup.
type Harness struct {
	t    testing.TB
	opts []Option

	mu      sync.Mutex
	created bool
	server  *Server
}

// NewHarness returns a Harness bound to t. opts apply to every call.
func NewHarness(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	return &Harness{t: t, opts: opts}
}

// CreateServer is CreateServer scoped to the harness test.
func (h *Harness) CreateServer(contractPath string, mutate Mutator, opts ...Option) (*Server, error) {
	return h.CreateServerWithFactory(contractPath, nil, mutate, opts...)
}

// CreateServerWithFactory is CreateServerWithFactory scoped to the harness
// test. A second call returns ErrAlreadyCreated, even after a failed first
// call.
func (h *Harness) CreateServerWithFactory(contractPath string, factory router.Factory, mutate Mutator, opts ...Option) (*Server, error) {
	h.t.Helper()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.created {
		return nil, ErrAlreadyCreated
	}
	h.created = true

	all := make([]Option, 0, len(h.opts)+len(opts))
	all = append(all, h.opts...)
	all = append(all, opts...)

	srv, err := CreateServerWithFactory(h.t.Context(), contractPath, factory, mutate, all...)
	if err != nil {
		return nil, err
	}
	h.server = srv
	h.t.Cleanup(func() {
		if err := srv.Close(context.Background()); err != nil {
			h.t.Errorf("close contract server: %v", err)
		}
	})
	return srv, nil
}

// Server returns the server created by the harness, or nil.
func (h *Harness) Server() *Server {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.server
}
