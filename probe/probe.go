package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Func is a health check that returns an error when the resource is unavailable.
type Func func(ctx context.Context) error

// PingFunc is a caller-supplied check wrapped by NewPingProbe.
type PingFunc func(ctx context.Context) error

// HTTPDoer represents the subset of *http.Client required by the HTTP probe helper.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ContextDialer is the subset of *net.Dialer used by NewDialProbe.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewPingProbe wraps fn so that failures name the probe.
func NewPingProbe(name string, fn PingFunc) Func {
	return func(ctx context.Context) error {
		if fn == nil {
			return nilComponentError(name, "ping function")
		}
		ctx = contextOrBackground(ctx)

		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// NewDialProbe succeeds when a connection to address can be opened. A nil
// dialer uses a zero net.Dialer.
func NewDialProbe(name, network, address string, dialer ContextDialer) Func {
	return func(ctx context.Context) error {
		if strings.TrimSpace(address) == "" {
			return fmt.Errorf("%s probe: address is required", name)
		}
		nw := network
		if nw == "" {
			nw = "tcp"
		}
		d := dialer
		if d == nil {
			d = &net.Dialer{}
		}
		ctx = contextOrBackground(ctx)

		conn, err := d.DialContext(ctx, nw, address)
		if err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return conn.Close()
	}
}

// NewHTTPProbe creates a Func that performs an HTTP request against the supplied endpoint.
// The probe succeeds when the response status code is within the 2xx range,
// or in the set given with WithHTTPAllowedStatuses.
func NewHTTPProbe(name, method, target string, client HTTPDoer, opts ...HTTPProbeOption) Func {
	return func(ctx context.Context) error {
		trimmedTarget := strings.TrimSpace(target)
		if trimmedTarget == "" {
			return fmt.Errorf("%s probe: target URL is required", name)
		}

		verb := strings.ToUpper(strings.TrimSpace(method))
		if verb == "" {
			verb = http.MethodGet
		}

		ctx = contextOrBackground(ctx)

		req, err := http.NewRequestWithContext(ctx, verb, trimmedTarget, nil)
		if err != nil {
			return fmt.Errorf("%s probe: failed to build request: %w", name, err)
		}

		cfg := buildHTTPProbeConfig(client, opts...)

		if err := cfg.applyMutators(req); err != nil {
			return fmt.Errorf("%s probe: request mutation failed: %w", name, err)
		}

		resp, err := cfg.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s probe request failed: %w", name, err)
		}
		defer resp.Body.Close()

		if err := cfg.validateResponse(resp); err != nil {
			return fmt.Errorf("%s probe: %w", name, err)
		}

		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return fmt.Errorf("%s probe: failed to drain response body: %w", name, err)
		}
		return nil
	}
}
