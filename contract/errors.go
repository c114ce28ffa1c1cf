package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrRead marks contract files that are missing or unreadable.
	ErrRead = errors.New("contract: read failed")
	// ErrParse marks documents that are not valid JSON or YAML.
	ErrParse = errors.New("contract: parse failed")
	// ErrResolve marks documents that are not a valid OpenAPI contract or
	// contain references that cannot be resolved.
	ErrResolve = errors.New("contract: resolve failed")
)

// Error describes a failure while loading or resolving a contract. It unwraps
// to both its Kind and the underlying cause.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
