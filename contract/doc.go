// Package contract loads OpenAPI contract documents from disk and resolves them
// into validated, reference-resolved contracts. Load auto-detects JSON or YAML
// and reports syntax problems before any resolution happens; Resolve runs the
// kin-openapi loader and validator. Both return *Error values that unwrap to
// ErrRead, ErrParse or ErrResolve alongside the underlying cause.
package contract
