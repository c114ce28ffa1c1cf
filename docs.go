// Package contractserver serves an OpenAPI contract over HTTP so tests can
// exercise clients against real routing, validation and error responses.
//
// The contract package loads a JSON or YAML document and resolves it into a
// validated contract. The router package turns the contract into a Builder
// whose operations receive handlers, then finalizes it into an immutable
// http.Handler that answers 404, 405 and 501 problem documents for requests
// the contract or the bindings do not cover. The testserver package chains
// these stages, mounts the router under /v1/ and starts listening.
//
// # Packages
//
//   - contract: document loading, format detection and reference resolution.
//   - router: route builder, operation binding, middleware chain and request
//     validation.
//   - testserver: the load, resolve, build, mutate, finalize and serve
//     pipeline plus a per-test Harness.
//   - responder: RFC 9457 problem documents and JSON rendering.
//   - info: optional health, readiness, contract and operation endpoints.
//   - probe: readiness checks used to wait for a started server.
//   - jsonutil: sonic wrappers for encoding and decoding.
//
// # Quick Start
//
//	srv, err := testserver.CreateServer(ctx, "testdata/petstore.yaml",
//	    func(ctx context.Context, b *router.Builder) (*router.Builder, error) {
//	        b.Operation("listPets").HandleFunc(listPets)
//	        return b, nil
//	    },
//	    testserver.WithInfoEndpoints(),
//	)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer srv.Close(ctx)
//
//	resp, err := http.Get(srv.BaseURL() + "/pets")
//
// Operations left without a handler answer 501 Not Implemented, so a test
// only binds what it exercises.
package contractserver
