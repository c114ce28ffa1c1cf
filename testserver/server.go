package testserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/info"
	"github.com/drblury/contractserver/probe"
	"github.com/drblury/contractserver/responder"
	"github.com/drblury/contractserver/router"
)

// MountPrefix is where the contract router is mounted on the host router.
const MountPrefix = "/v1"

const userAgent = "contractserver-readiness"

// Mutator binds handlers and middleware on the builder produced by the
// factory. It may return the same builder or a replacement. A nil Mutator
// leaves the builder unchanged.
type Mutator func(ctx context.Context, b *router.Builder) (*router.Builder, error)

var (
	errNoDocument = errors.New("loader returned no document")
	errNoContract = errors.New("resolver returned no contract")
	errNoBuilder  = errors.New("no route builder returned")
	errClosed     = errors.New("server closed")
)

// Server is a running contract server.
type Server struct {
	contract        *contract.Contract
	router          *router.Router
	handler         http.Handler
	listener        Listener
	logger          *slog.Logger
	shutdownTimeout time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// CreateServer runs the pipeline with the default route builder factory.
func CreateServer(ctx context.Context, contractPath string, mutate Mutator, opts ...Option) (*Server, error) {
	return CreateServerWithFactory(ctx, contractPath, nil, mutate, opts...)
}

// CreateServerWithFactory runs the pipeline with a caller-supplied factory.
// A nil factory selects router.NewBuilder with the options given through
// WithRouterOptions.
func CreateServerWithFactory(ctx context.Context, contractPath string, factory router.Factory, mutate Mutator, opts ...Option) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s := newSettings(opts)
	if factory == nil {
		routerOpts := append([]router.Option{router.WithLogger(s.logger)}, s.routerOpts...)
		factory = router.DefaultFactory(routerOpts...)
	}

	p := &pipeline{settings: s, path: contractPath, state: StateUnloaded}
	return p.run(ctx, factory, mutate)
}

type pipeline struct {
	*settings
	path  string
	state State
}

func (p *pipeline) run(ctx context.Context, factory router.Factory, mutate Mutator) (*Server, error) {
	doc, err := p.loader(ctx, p.path)
	if err != nil {
		return nil, p.fail(StageLoad, err)
	}
	if doc == nil {
		return nil, p.fail(StageLoad, errNoDocument)
	}

	c, err := p.resolver(ctx, doc)
	if err != nil {
		return nil, p.fail(StageResolve, err)
	}
	if c == nil {
		return nil, p.fail(StageResolve, errNoContract)
	}
	p.advance(StateResolved)

	b, err := factory(c)
	if err != nil {
		return nil, p.fail(StageBuild, err)
	}
	if b == nil {
		return nil, p.fail(StageBuild, errNoBuilder)
	}
	p.advance(StateBuilt)

	if mutate != nil {
		mutated, err := mutate(ctx, b)
		if err != nil {
			return nil, p.fail(StageMutate, err)
		}
		if mutated == nil {
			return nil, p.fail(StageMutate, errNoBuilder)
		}
		b = mutated
	}
	p.advance(StateMutated)

	r, err := b.CreateRouter()
	if err != nil {
		return nil, p.fail(StageFinalize, err)
	}

	srv := &Server{
		contract:        c,
		router:          r,
		logger:          p.logger,
		shutdownTimeout: p.shutdownTimeout,
	}
	srv.handler = p.mount(srv)

	if p.starter == nil {
		return nil, p.fail(StageServe, errors.New("starter is nil"))
	}
	listener, err := p.starter.Start(ctx, p.addr, srv.handler)
	if err != nil {
		return nil, p.fail(StageServe, err)
	}
	srv.listener = listener

	if err := p.awaitReady(ctx, srv); err != nil {
		if closeErr := srv.Close(context.WithoutCancel(ctx)); closeErr != nil {
			p.logger.Warn("failed to shut down unready server", "error", closeErr)
		}
		return nil, p.fail(StageServe, err)
	}
	p.advance(StateServing)

	p.logger.Info("contract server listening",
		"url", srv.URL(),
		"contract", c.Title(),
		"operations", len(r.Operations()),
	)
	return srv, nil
}

// mount builds the host router: the contract router below MountPrefix and,
// when enabled, the info endpoints.
func (p *pipeline) mount(srv *Server) http.Handler {
	resp := responder.NewResponder(responder.WithLogger(p.logger))

	host := mux.NewRouter()
	host.NotFoundHandler = http.HandlerFunc(resp.HandleNotFound)
	host.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp.HandleMethodNotAllowed(w, r, nil)
	})
	host.PathPrefix(MountPrefix + "/").Handler(http.StripPrefix(MountPrefix, srv.router))

	if p.info {
		alive := probe.NewPingProbe("server", srv.ping)
		opts := []info.Option{
			info.WithResponder(resp),
			info.WithContract(srv.contract),
			info.WithOperations(func() any { return srv.router.Operations() }),
			info.WithLivenessChecks(alive),
			info.WithReadinessChecks(alive),
		}
		info.NewHandler(append(opts, p.infoOpts...)...).Register(host)
	}
	return host
}

func (p *pipeline) awaitReady(ctx context.Context, srv *Server) error {
	addr := srv.listener.Addr()
	if addr == nil {
		return errors.New("listener has no address")
	}

	var check probe.Func
	if p.info {
		client := &http.Client{Timeout: 2 * time.Second}
		check = probe.NewHTTPProbe("readiness", http.MethodGet, srv.URL()+info.Prefix+info.PathReadyz, client,
			probe.WithHTTPAllowedStatuses(http.StatusOK),
			probe.WithHTTPHeader("User-Agent", userAgent),
		)
	} else {
		check = probe.NewDialProbe("listener", addr.Network(), addr.String(), nil)
	}
	return probe.Retry(check, p.readyAttempts, p.readyInterval)(ctx)
}

func (p *pipeline) advance(next State) {
	p.logger.Debug("server pipeline advanced", "path", p.path, "from", p.state, "to", next)
	p.state = next
}

func (p *pipeline) fail(stage Stage, err error) error {
	p.logger.Warn("server pipeline failed", "path", p.path, "stage", stage, "state", p.state, "error", err)
	stageErr := &StageError{Stage: stage, State: p.state, Kind: stageKind(stage, err), Err: err}
	p.state = StateFailed
	return stageErr
}

// URL returns the server root, for example http://127.0.0.1:40123.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// BaseURL returns the URL the contract paths are relative to.
func (s *Server) BaseURL() string {
	return s.URL() + MountPrefix
}

// Addr returns the bound host:port.
func (s *Server) Addr() string {
	if s.listener == nil || s.listener.Addr() == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Router returns the finalized contract router.
func (s *Server) Router() *router.Router {
	return s.router
}

// Contract returns the resolved contract being served.
func (s *Server) Contract() *contract.Contract {
	return s.contract
}

// Handler returns the host handler, useful with httptest without a socket.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close shuts the server down gracefully. It is safe to call more than once;
// later calls return the first result. Without a deadline on ctx the
// shutdown timeout applies.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.listener == nil {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok && s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
			defer cancel()
		}
		s.closeErr = s.listener.Shutdown(ctx)
		s.logger.Debug("contract server closed", "addr", s.Addr(), "error", s.closeErr)
	})
	return s.closeErr
}

func (s *Server) ping(context.Context) error {
	if s.closed.Load() {
		return errClosed
	}
	return nil
}
