package router

import (
	"errors"

	"github.com/drblury/contractserver/contract"
)

// Factory creates the Builder for a resolved contract.
type Factory func(c *contract.Contract) (*Builder, error)

// Builder accumulates handler bindings for the operations of one contract.
// It is not safe for concurrent use. CreateRouter snapshots the bindings, so
// changes made afterwards do not affect routers already created.
type Builder struct {
	contract   *contract.Contract
	operations []*Operation
	root       []Middleware
	opts       *options
}

// NewBuilder returns a Builder with one unbound Operation per contract
// operation. It is the standard Factory.
func NewBuilder(c *contract.Contract, opts ...Option) (*Builder, error) {
	if c == nil {
		return nil, errors.New("router: contract is nil")
	}

	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	defs := c.Operations()
	operations := make([]*Operation, 0, len(defs))
	for _, def := range defs {
		operations = append(operations, newOperation(def))
	}

	return &Builder{
		contract:   c,
		operations: operations,
		opts:       settings,
	}, nil
}

// DefaultFactory returns a Factory that calls NewBuilder with opts.
func DefaultFactory(opts ...Option) Factory {
	return func(c *contract.Contract) (*Builder, error) {
		return NewBuilder(c, opts...)
	}
}

// Contract returns the contract the builder is bound to.
func (b *Builder) Contract() *contract.Contract {
	return b.contract
}

// Operations returns all operations in path, then method order.
func (b *Builder) Operations() []*Operation {
	out := make([]*Operation, len(b.operations))
	copy(out, b.operations)
	return out
}

// Operation returns the operation with the given operationId, or nil.
func (b *Builder) Operation(id string) *Operation {
	if id == "" {
		return nil
	}
	for _, op := range b.operations {
		if op.ID() == id {
			return op
		}
	}
	return nil
}

// OperationFor returns the operation declared for method and path template,
// or nil.
func (b *Builder) OperationFor(method, path string) *Operation {
	for _, op := range b.operations {
		if op.Method() == method && op.Path() == path {
			return op
		}
	}
	return nil
}

// RootHandler appends middlewares that run for every matched operation,
// after request validation and before operation middlewares.
func (b *Builder) RootHandler(middlewares ...Middleware) *Builder {
	b.root = append(b.root, middlewares...)
	return b
}

// Options applies router options on top of those given to NewBuilder.
func (b *Builder) Options(opts ...Option) *Builder {
	for _, opt := range opts {
		if opt != nil {
			opt(b.opts)
		}
	}
	return b
}
