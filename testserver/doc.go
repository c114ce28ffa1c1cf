// Package testserver turns an OpenAPI contract into a running HTTP server for
// tests.
//
// CreateServer loads and resolves the contract, builds a router.Builder,
// hands it to a caller-supplied Mutator for handler binding, finalizes the
// router, mounts it under /v1/ on a fresh host router and starts listening.
// Stages run strictly in order and the first failure stops the pipeline:
//
//	srv, err := testserver.CreateServer(ctx, "testdata/petstore.yaml",
//		func(ctx context.Context, b *router.Builder) (*router.Builder, error) {
//			b.Operation("listPets").HandleFunc(listPets)
//			return b, nil
//		})
//	if err != nil {
//		return err
//	}
//	defer srv.Close(ctx)
//
//	resp, err := http.Get(srv.BaseURL() + "/pets")
//
// Every failure is a *StageError. errors.Is matches both the stage kind
// (contract.ErrRead, ErrMutation, ErrBind, ...) and the original cause.
package testserver
