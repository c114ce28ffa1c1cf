package contract

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is a single path/method pair declared by a contract.
type Operation struct {
	ID     string
	Method string
	Path   string
	Spec   *openapi3.Operation
}

// Key identifies the operation by method and path, which is unique even when
// the contract omits operationId.
func (o Operation) Key() string {
	return o.Method + " " + o.Path
}

// Contract is a validated OpenAPI document with all references resolved. The
// value is read-only once returned by Resolve.
type Contract struct {
	path       string
	spec       *openapi3.T
	operations []Operation
}

// ResolveFunc turns a loaded document into a Contract.
type ResolveFunc func(ctx context.Context, doc *Document) (*Contract, error)

// Resolve loads doc through the kin-openapi loader, resolving references
// relative to the document's location, and validates the result.
func Resolve(ctx context.Context, doc *Document) (*Contract, error) {
	if doc == nil {
		return nil, newError(ErrResolve, "", errors.New("document is nil"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx

	var (
		spec *openapi3.T
		err  error
	)
	if location := documentLocation(doc.Path); location != nil {
		spec, err = loader.LoadFromDataWithPath(doc.Raw, location)
	} else {
		spec, err = loader.LoadFromData(doc.Raw)
	}
	if err != nil {
		return nil, newError(ErrResolve, doc.Path, err)
	}

	if err := spec.Validate(ctx); err != nil {
		return nil, newError(ErrResolve, doc.Path, err)
	}

	return &Contract{
		path:       doc.Path,
		spec:       spec,
		operations: collectOperations(spec),
	}, nil
}

// LoadAndResolve is Load followed by Resolve.
func LoadAndResolve(ctx context.Context, path string) (*Contract, error) {
	doc, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, doc)
}

// Path returns the file the contract was loaded from.
func (c *Contract) Path() string {
	return c.path
}

// Spec returns the resolved OpenAPI document. Callers must not modify it.
func (c *Contract) Spec() *openapi3.T {
	return c.spec
}

// Title returns info.title.
func (c *Contract) Title() string {
	if c.spec.Info == nil {
		return ""
	}
	return c.spec.Info.Title
}

// Version returns info.version.
func (c *Contract) Version() string {
	if c.spec.Info == nil {
		return ""
	}
	return c.spec.Info.Version
}

// Operations returns the declared operations sorted by path, then method.
func (c *Contract) Operations() []Operation {
	out := make([]Operation, len(c.operations))
	copy(out, c.operations)
	return out
}

// Operation looks up an operation by operationId.
func (c *Contract) Operation(id string) (Operation, bool) {
	for _, op := range c.operations {
		if op.ID != "" && op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

// MarshalJSON renders the resolved document.
func (c *Contract) MarshalJSON() ([]byte, error) {
	return c.spec.MarshalJSON()
}

func collectOperations(spec *openapi3.T) []Operation {
	if spec.Paths == nil {
		return nil
	}

	var ops []Operation
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			ops = append(ops, Operation{
				ID:     op.OperationID,
				Method: strings.ToUpper(method),
				Path:   path,
				Spec:   op,
			})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}

func documentLocation(path string) *url.URL {
	if path == "" {
		return nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &url.URL{Path: filepath.ToSlash(path)}
}
