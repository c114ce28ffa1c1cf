package probe

import (
	"fmt"
	"net/http"
	"slices"
)

// HTTPRequestMutator adjusts the probe request before it is sent.
type HTTPRequestMutator func(req *http.Request) error

// HTTPResponseValidator inspects the response and can fail the probe.
type HTTPResponseValidator func(resp *http.Response) error

// HTTPProbeOption configures NewHTTPProbe.
type HTTPProbeOption func(*httpProbeConfig)

type httpProbeConfig struct {
	client             HTTPDoer
	allowed            []int
	requestMutators    []HTTPRequestMutator
	responseValidators []HTTPResponseValidator
}

func buildHTTPProbeConfig(client HTTPDoer, opts ...HTTPProbeOption) *httpProbeConfig {
	cfg := &httpProbeConfig{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}
	return cfg
}

func (c *httpProbeConfig) applyMutators(req *http.Request) error {
	for _, mutate := range c.requestMutators {
		if err := mutate(req); err != nil {
			return err
		}
	}
	return nil
}

func (c *httpProbeConfig) validateResponse(resp *http.Response) error {
	ok := defaultHTTPStatusExpectation(resp.StatusCode)
	if len(c.allowed) > 0 {
		ok = slices.Contains(c.allowed, resp.StatusCode)
	}
	if !ok {
		return fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	for _, validate := range c.responseValidators {
		if err := validate(resp); err != nil {
			return err
		}
	}
	return nil
}

// WithHTTPAllowedStatuses makes the probe succeed only for the given status
// codes instead of any 2xx.
func WithHTTPAllowedStatuses(statuses ...int) HTTPProbeOption {
	allowed := slices.Clone(statuses)
	return func(cfg *httpProbeConfig) {
		cfg.allowed = allowed
	}
}

// WithHTTPHeader sets a request header on every probe request.
func WithHTTPHeader(key, value string) HTTPProbeOption {
	return WithHTTPRequestMutator(func(req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	})
}

// WithHTTPRequestMutator registers a mutator that runs before the request is dispatched.
func WithHTTPRequestMutator(mutator HTTPRequestMutator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		if mutator != nil {
			cfg.requestMutators = append(cfg.requestMutators, mutator)
		}
	}
}

// WithHTTPResponseValidator registers a validator that runs after a response is received.
func WithHTTPResponseValidator(validator HTTPResponseValidator) HTTPProbeOption {
	return func(cfg *httpProbeConfig) {
		if validator != nil {
			cfg.responseValidators = append(cfg.responseValidators, validator)
		}
	}
}
