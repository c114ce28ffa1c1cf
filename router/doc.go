// Package router turns a resolved contract into an http.Handler.
//
// NewBuilder creates a Builder with one Operation per path/method pair in the
// contract. Callers bind handlers with Operation.Handle, HandleFunc or
// HandleErr, add per-operation middleware with Use, and router-wide
// middleware with Builder.RootHandler. CreateRouter snapshots the builder into
// an immutable Router that
//
//   - answers 404 for paths the contract does not declare,
//   - answers 405 with an Allow header for undeclared methods on known paths,
//   - validates requests against the contract (oapi-codegen middleware),
//   - answers 501 for declared operations without a handler.
//
// The Router expects paths relative to its mount point; servers declared in
// the contract are ignored. The logging, CORS and timeout middlewares wrap
// route matching and are tuned through Option values.
package router
