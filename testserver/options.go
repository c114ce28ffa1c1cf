package testserver

import (
	"log/slog"
	"time"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/info"
	"github.com/drblury/contractserver/router"
)

// Option configures a pipeline run.
type Option func(*settings)

type settings struct {
	logger          *slog.Logger
	addr            string
	starter         Starter
	loader          contract.LoadFunc
	resolver        contract.ResolveFunc
	routerOpts      []router.Option
	info            bool
	infoOpts        []info.Option
	readyAttempts   int
	readyInterval   time.Duration
	shutdownTimeout time.Duration
}

func defaultSettings() *settings {
	return &settings{
		logger:          slog.Default(),
		addr:            DefaultAddr,
		loader:          contract.Load,
		resolver:        contract.Resolve,
		readyAttempts:   20,
		readyInterval:   25 * time.Millisecond,
		shutdownTimeout: 5 * time.Second,
	}
}

func newSettings(opts []Option) *settings {
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.starter == nil {
		s.starter = &HTTPStarter{Logger: s.logger}
	}
	return s
}

// WithLogger sets the logger for pipeline events. The default router gets it
// too unless router options override it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAddr sets the listen address handed to the Starter.
func WithAddr(addr string) Option {
	return func(s *settings) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithStarter replaces the component that binds the listener.
func WithStarter(starter Starter) Option {
	return func(s *settings) {
		s.starter = starter
	}
}

// WithLoader replaces the document loader.
func WithLoader(loader contract.LoadFunc) Option {
	return func(s *settings) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithResolver replaces the contract resolver.
func WithResolver(resolver contract.ResolveFunc) Option {
	return func(s *settings) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithRouterOptions passes options to the default factory. They are ignored
// when a custom factory is used.
func WithRouterOptions(opts ...router.Option) Option {
	return func(s *settings) {
		s.routerOpts = append(s.routerOpts, opts...)
	}
}

// WithInfoEndpoints registers the info endpoints under info.Prefix and waits
// for the readiness endpoint before returning the server.
func WithInfoEndpoints(opts ...info.Option) Option {
	return func(s *settings) {
		s.info = true
		s.infoOpts = append(s.infoOpts, opts...)
	}
}

// WithReadiness sets how often the started listener is probed before the
// pipeline gives up with ErrBind.
func WithReadiness(attempts int, interval time.Duration) Option {
	return func(s *settings) {
		if attempts > 0 {
			s.readyAttempts = attempts
		}
		if interval > 0 {
			s.readyInterval = interval
		}
	}
}

// WithShutdownTimeout bounds Server.Close when its context has no deadline.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// WithConfig applies a finalized Config.
func WithConfig(cfg *Config) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		if cfg.Addr != "" {
			s.addr = cfg.Addr
		}
		if d := cfg.ShutdownTimeoutDuration(); d > 0 {
			s.shutdownTimeout = d
		}
		s.logger = cfg.Logging.NewLogger(nil)
		s.info = s.info || cfg.Info

		timeout := cfg.RequestTimeoutDuration()
		s.routerOpts = append(s.routerOpts,
			router.WithLogger(s.logger),
			router.WithConfigMutator(func(rc *router.Config) {
				rc.Timeout = timeout
			}),
		)
		if !cfg.ValidateRequests() {
			s.routerOpts = append(s.routerOpts, router.WithoutRequestValidation())
		}
	}
}
