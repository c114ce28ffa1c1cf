package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/drblury/contractserver/responder"
)

// Middleware wraps an http.Handler to produce a new http.Handler.
type Middleware func(http.Handler) http.Handler

// Config tunes the default middlewares of a finalized Router.
type Config struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout time.Duration
	// CORS enables cross-origin headers when Origins is non-empty.
	CORS CORSConfig
	// QuietdownRoutes are request paths the logging middleware skips.
	QuietdownRoutes []string
	// HideHeaders are request headers redacted in log records.
	HideHeaders []string
}

// CORSConfig lists the origins, methods and headers answered on preflight.
type CORSConfig struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}

// Option configures a Builder and the Router it creates.
type Option func(*options)

type options struct {
	config         Config
	logger         *slog.Logger
	responder      *responder.Responder
	prepend        []Middleware
	append         []Middleware
	override       []Middleware
	enableValidate bool
	enableCORS     bool
	enableTimeout  bool
	enableLogging  bool
}

func defaultOptions() *options {
	return &options{
		config: Config{
			Timeout: 30 * time.Second,
		},
		logger:         slog.Default(),
		enableValidate: true,
		enableCORS:     true,
		enableTimeout:  true,
		enableLogging:  true,
	}
}

func (o *options) clone() *options {
	cloned := *o
	cloned.config = sanitizeConfig(o.config)
	cloned.prepend = cloneMiddlewares(o.prepend)
	cloned.append = cloneMiddlewares(o.append)
	cloned.override = cloneMiddlewares(o.override)
	return &cloned
}

func (o *options) resolveResponder() *responder.Responder {
	if o.responder != nil {
		return o.responder
	}
	return responder.NewResponder(responder.WithLogger(o.logger))
}

// middlewareChain returns the chain that wraps route matching. Request
// validation is not part of it; it runs per operation once a route matched.
func (o *options) middlewareChain() []Middleware {
	if len(o.override) > 0 {
		return cloneMiddlewares(o.override)
	}

	chain := make([]Middleware, 0, len(o.prepend)+len(o.append)+4)
	chain = append(chain, o.prepend...)
	chain = append(chain, o.defaultMiddlewares()...)
	chain = append(chain, o.append...)
	return chain
}

func (o *options) defaultMiddlewares() []Middleware {
	chain := make([]Middleware, 0, 3)

	if o.enableLogging && o.logger != nil {
		chain = append(chain, loggingMiddleware(o.logger, o.config.QuietdownRoutes, o.config.HideHeaders))
	}

	if o.enableCORS && shouldApplyCORS(o.config.CORS) {
		chain = append(chain, corsMiddleware(o.config.CORS))
	}

	if o.enableTimeout && o.config.Timeout > 0 {
		chain = append(chain, timeoutMiddleware(o.config.Timeout))
	}

	return chain
}

// WithConfig replaces the router configuration with the provided value.
func WithConfig(cfg Config) Option {
	configCopy := sanitizeConfig(cfg)
	return func(o *options) {
		o.config = configCopy
	}
}

// WithConfigMutator applies a mutation to the router configuration after defaults are set.
func WithConfigMutator(mutator func(*Config)) Option {
	return func(o *options) {
		if mutator != nil {
			mutator(&o.config)
		}
	}
}

// WithLogger provides the structured logger used by the logging middleware
// and the default responder.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResponder sets the responder that renders routing and handler errors.
func WithResponder(r *responder.Responder) Option {
	return func(o *options) {
		o.responder = r
	}
}

// WithMiddlewares prepends custom middlewares ahead of the default chain.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.prepend = append(o.prepend, middlewares...)
	}
}

// WithTrailingMiddlewares appends middlewares after the default chain.
func WithTrailingMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.append = append(o.append, middlewares...)
	}
}

// WithMiddlewareChain fully overrides the router-level chain. Operation
// middlewares still run.
func WithMiddlewareChain(middlewares ...Middleware) Option {
	cloned := cloneMiddlewares(middlewares)
	return func(o *options) {
		o.override = cloned
	}
}

// WithoutRequestValidation disables validating requests against the contract.
func WithoutRequestValidation() Option {
	return func(o *options) {
		o.enableValidate = false
	}
}

// WithoutCORSMiddleware disables the CORS middleware regardless of configuration.
func WithoutCORSMiddleware() Option {
	return func(o *options) {
		o.enableCORS = false
	}
}

// WithoutTimeoutMiddleware disables the timeout middleware.
func WithoutTimeoutMiddleware() Option {
	return func(o *options) {
		o.enableTimeout = false
	}
}

// WithoutLoggingMiddleware disables the logging middleware.
func WithoutLoggingMiddleware() Option {
	return func(o *options) {
		o.enableLogging = false
	}
}

func sanitizeConfig(cfg Config) Config {
	cfg.QuietdownRoutes = cloneStrings(cfg.QuietdownRoutes)
	cfg.HideHeaders = cloneStrings(cfg.HideHeaders)
	cfg.CORS = sanitizeCORSConfig(cfg.CORS)
	return cfg
}

func sanitizeCORSConfig(cfg CORSConfig) CORSConfig {
	cfg.Headers = cloneStrings(cfg.Headers)
	cfg.Methods = cloneStrings(cfg.Methods)
	cfg.Origins = cloneStrings(cfg.Origins)
	return cfg
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	cloned := make([]string, len(values))
	copy(cloned, values)
	return cloned
}

func cloneMiddlewares(values []Middleware) []Middleware {
	if len(values) == 0 {
		return nil
	}

	cloned := make([]Middleware, len(values))
	copy(cloned, values)
	return cloned
}

func shouldApplyCORS(cfg CORSConfig) bool {
	return len(cfg.Origins) > 0
}
