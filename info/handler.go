package info

import (
	"errors"
	"time"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/probe"
	"github.com/drblury/contractserver/responder"
)

// ContractProvider returns the JSON rendering of the served contract.
type ContractProvider func() ([]byte, error)

// OperationsProvider returns the payload of the operations endpoint, usually
// the router's binding table.
type OperationsProvider func() any

// Option configures a Handler.
type Option func(*Handler)

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc is executed to determine the outcome of liveness or readiness
// probes. Returning a non-nil error marks the probe as failed.
type ProbeFunc = probe.Func

// Handler serves the info endpoints.
type Handler struct {
	*responder.Responder
	contractProvider   ContractProvider
	operationsProvider OperationsProvider
	probeTimeout       time.Duration
	livenessChecks     []ProbeFunc
	readinessChecks    []ProbeFunc
}

// NewHandler returns a Handler with no checks, no contract and an empty
// operation list.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		Responder: responder.NewResponder(),
		contractProvider: func() ([]byte, error) {
			return nil, errors.New("contract provider not configured")
		},
		operationsProvider: func() any {
			return []any{}
		},
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithResponder replaces the responder used for payloads and problems.
func WithResponder(r *responder.Responder) Option {
	return func(h *Handler) {
		if r != nil {
			h.Responder = r
		}
	}
}

// WithContract serves c from the contract endpoint.
func WithContract(c *contract.Contract) Option {
	return func(h *Handler) {
		if c != nil {
			h.contractProvider = c.MarshalJSON
		}
	}
}

// WithContractProvider sets a custom source for the contract endpoint.
func WithContractProvider(provider ContractProvider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.contractProvider = provider
		}
	}
}

// WithOperations sets the source for the operations endpoint.
func WithOperations(provider OperationsProvider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.operationsProvider = provider
		}
	}
}

// WithProbeTimeout bounds a full run of liveness or readiness checks.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks replaces the liveness checks.
func WithLivenessChecks(checks ...ProbeFunc) Option {
	return func(h *Handler) {
		h.livenessChecks = filterProbes(checks)
	}
}

// WithReadinessChecks replaces the readiness checks.
func WithReadinessChecks(checks ...ProbeFunc) Option {
	return func(h *Handler) {
		h.readinessChecks = filterProbes(checks)
	}
}
