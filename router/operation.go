package router

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/responder"
)

// ErrHandlerFunc is a handler that reports failures by returning an error
// instead of writing the error response itself.
type ErrHandlerFunc func(w http.ResponseWriter, r *http.Request) error

// FailureFunc renders an error returned by an ErrHandlerFunc.
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// Operation is the mutable binding of one contract operation inside a
// Builder.
type Operation struct {
	def         contract.Operation
	handler     http.Handler
	failure     FailureFunc
	middlewares []Middleware
}

func newOperation(def contract.Operation) *Operation {
	return &Operation{def: def}
}

// ID returns the operationId, which may be empty.
func (o *Operation) ID() string { return o.def.ID }

// Method returns the upper-case HTTP method.
func (o *Operation) Method() string { return o.def.Method }

// Path returns the path template as declared in the contract.
func (o *Operation) Path() string { return o.def.Path }

// Spec returns the contract's definition of the operation.
func (o *Operation) Spec() *openapi3.Operation { return o.def.Spec }

// Bound reports whether a handler has been set.
func (o *Operation) Bound() bool { return o.handler != nil }

// Handle binds h, replacing any previous handler.
func (o *Operation) Handle(h http.Handler) *Operation {
	o.handler = h
	return o
}

// HandleFunc binds fn, replacing any previous handler.
func (o *Operation) HandleFunc(fn http.HandlerFunc) *Operation {
	if fn == nil {
		o.handler = nil
		return o
	}
	return o.Handle(fn)
}

// HandleErr binds fn. A returned error goes to the failure handler set with
// OnFailure, or to the router's responder when none is set.
func (o *Operation) HandleErr(fn ErrHandlerFunc) *Operation {
	if fn == nil {
		o.handler = nil
		return o
	}
	o.handler = errHandler{op: o, fn: fn}
	return o
}

// OnFailure sets the renderer for errors returned by HandleErr handlers.
func (o *Operation) OnFailure(fn FailureFunc) *Operation {
	o.failure = fn
	return o
}

// Use appends middlewares that run only for this operation, after request
// validation and root handlers.
func (o *Operation) Use(middlewares ...Middleware) *Operation {
	o.middlewares = append(o.middlewares, middlewares...)
	return o
}

func (o *Operation) name() string {
	if o.def.ID != "" {
		return o.def.ID
	}
	return o.def.Key()
}

// endpoint returns the terminal handler for the operation as it is right now.
func (o *Operation) endpoint(resp *responder.Responder) http.Handler {
	handler := o.handler
	if eh, ok := handler.(errHandler); ok {
		eh.failure = o.failure
		eh.resp = resp
		handler = eh
	}
	if handler == nil {
		name := o.name()
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp.HandleNotImplemented(w, r, name)
		})
	}
	return handler
}

type errHandler struct {
	op      *Operation
	fn      ErrHandlerFunc
	failure FailureFunc
	resp    *responder.Responder
}

func (h errHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.fn(w, r)
	if err == nil {
		return
	}
	if h.failure != nil {
		h.failure(w, r, err)
		return
	}
	h.resp.HandleErrors(w, r, err, "operation "+h.op.name()+" failed")
}
