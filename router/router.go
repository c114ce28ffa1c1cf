package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/responder"
)

// Binding reports whether a contract operation has a handler in a Router.
type Binding struct {
	OperationID string `json:"operationId"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Bound       bool   `json:"bound"`
}

// Router is the finalized, read-only form of a Builder. It matches request
// paths relative to its mount point against the contract and dispatches to
// the bound handler.
type Router struct {
	contract *contract.Contract
	matcher  routers.Router
	resp     *responder.Responder
	handler  http.Handler
	bindings []Binding
	routes   map[string]http.Handler
	methods  []string
}

// CreateRouter finalizes the builder into a Router. Unbound operations answer
// 501 Not Implemented.
func (b *Builder) CreateRouter() (*Router, error) {
	if b == nil || b.contract == nil {
		return nil, errors.New("router: builder has no contract")
	}

	settings := b.opts.clone()

	// The router only sees paths below its mount point, so server URLs from
	// the contract must not take part in matching.
	spec := *b.contract.Spec()
	spec.Servers = nil

	matcher, err := gorillamux.NewRouter(&spec)
	if err != nil {
		return nil, fmt.Errorf("router: build matcher: %w", err)
	}

	resp := settings.resolveResponder()

	shared := make([]Middleware, 0, len(b.root)+1)
	if settings.enableValidate {
		shared = append(shared, validationMiddleware(&spec, resp))
	}
	shared = append(shared, b.root...)

	r := &Router{
		contract: b.contract,
		matcher:  matcher,
		resp:     resp,
		bindings: make([]Binding, 0, len(b.operations)),
		routes:   make(map[string]http.Handler, len(b.operations)),
	}

	for _, op := range b.operations {
		chain := make([]Middleware, 0, len(shared)+len(op.middlewares))
		chain = append(chain, shared...)
		chain = append(chain, op.middlewares...)

		r.routes[op.def.Key()] = applyMiddlewares(op.endpoint(resp), chain)
		r.bindings = append(r.bindings, Binding{
			OperationID: op.ID(),
			Method:      op.Method(),
			Path:        op.Path(),
			Bound:       op.Bound(),
		})
		if !slices.Contains(r.methods, op.Method()) {
			r.methods = append(r.methods, op.Method())
		}
	}
	slices.Sort(r.methods)

	r.handler = applyMiddlewares(http.HandlerFunc(r.dispatch), settings.middlewareChain())
	return r, nil
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Contract returns the contract the router was built from.
func (r *Router) Contract() *contract.Contract {
	return r.contract
}

// Operations returns the binding table in path, then method order.
func (r *Router) Operations() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	route, params, err := r.matcher.FindRoute(req)
	switch {
	case errors.Is(err, routers.ErrMethodNotAllowed):
		r.resp.HandleMethodNotAllowed(w, req, r.allowedMethods(req))
		return
	case err != nil:
		r.resp.HandleNotFound(w, req)
		return
	}

	handler, ok := r.routes[route.Method+" "+route.Path]
	if !ok {
		r.resp.HandleNotFound(w, req)
		return
	}

	ctx := context.WithValue(req.Context(), routeContextKey{}, &routeInfo{route: route, params: params})
	handler.ServeHTTP(w, req.WithContext(ctx))
}

func (r *Router) allowedMethods(req *http.Request) []string {
	var allowed []string
	for _, method := range r.methods {
		probe := req.Clone(req.Context())
		probe.Method = method
		if _, _, err := r.matcher.FindRoute(probe); err == nil {
			allowed = append(allowed, method)
		}
	}
	return allowed
}
