package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/drblury/contractserver/contract"
	"github.com/drblury/contractserver/responder"
)

func loadPetstore(t *testing.T) *contract.Contract {
	t.Helper()

	c, err := contract.LoadAndResolve(context.Background(), filepath.Join("testdata", "petstore.yaml"))
	if err != nil {
		t.Fatalf("failed to load petstore contract: %v", err)
	}
	return c
}

func newPetstoreBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()

	opts = append([]Option{WithoutLoggingMiddleware()}, opts...)
	b, err := NewBuilder(loadPetstore(t), opts...)
	if err != nil {
		t.Fatalf("failed to create builder: %v", err)
	}
	return b
}

func mustCreateRouter(t *testing.T, b *Builder) *Router {
	t.Helper()

	r, err := b.CreateRouter()
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, body []byte) responder.ProblemDetails {
	t.Helper()

	var problem responder.ProblemDetails
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v (body: %s)", err, string(body))
	}
	return problem
}

func TestRouterDispatchesToBoundOperation(t *testing.T) {
	b := newPetstoreBuilder(t)

	var gotID, gotOperation string
	b.Operation("showPetById").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = PathParam(r, "petId")
		gotOperation = OperationID(r)
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if gotID != "42" {
		t.Fatalf("unexpected path param: got %q want %q", gotID, "42")
	}
	if gotOperation != "showPetById" {
		t.Fatalf("unexpected operation id: got %q", gotOperation)
	}
}

func TestRouterAnswersNotImplementedForUnboundOperation(t *testing.T) {
	r := mustCreateRouter(t, newPetstoreBuilder(t))

	rec := serve(r, httptest.NewRequest(http.MethodDelete, "/pets/7", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotImplemented)
	}

	problem := decodeProblem(t, rec.Body.Bytes())
	if !strings.Contains(problem.Detail, "deletePet") {
		t.Fatalf("expected detail to name the operation, got %q", problem.Detail)
	}
}

func TestRouterAnswersNotFoundOutsideContract(t *testing.T) {
	r := mustCreateRouter(t, newPetstoreBuilder(t))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/owners", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("unexpected content type: %q", ct)
	}
}

func TestRouterAnswersMethodNotAllowedWithAllowHeader(t *testing.T) {
	r := mustCreateRouter(t, newPetstoreBuilder(t))

	rec := serve(r, httptest.NewRequest(http.MethodPut, "/pets", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("unexpected Allow header: got %q want %q", got, "GET, POST")
	}
}

func TestRouterValidatesRequestsAgainstContract(t *testing.T) {
	created := false
	b := newPetstoreBuilder(t)
	b.Operation("createPet").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		created = true
		w.WriteHeader(http.StatusCreated)
	})
	b.Operation("showPetById").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r := mustCreateRouter(t, b)

	t.Run("missing required property", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"tag":"dog"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := serve(r, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: got %d want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		if created {
			t.Fatal("handler must not run for invalid requests")
		}
	})

	t.Run("problem names request", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodPost, "/pets?source=import", strings.NewReader(`{"name":"rex"}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: got %d want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		problem := decodeProblem(t, rec.Body.Bytes())
		if problem.Instance != "/pets?source=import" {
			t.Fatalf("unexpected instance: %q", problem.Instance)
		}
		if problem.Method != http.MethodPost {
			t.Fatalf("unexpected method: %q", problem.Method)
		}
		if problem.Detail == "" {
			t.Fatal("expected validation detail")
		}
	})

	t.Run("path parameter type", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/pets/rex", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("valid request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"name":"rex"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := serve(r, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("unexpected status: got %d want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if !created {
			t.Fatal("expected handler to run")
		}
	})
}

func TestWithoutRequestValidationReachesHandler(t *testing.T) {
	b := newPetstoreBuilder(t, WithoutRequestValidation())
	b.Operation("createPet").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusAccepted)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string

	b := newPetstoreBuilder(t,
		WithoutTimeoutMiddleware(),
		WithMiddlewares(recordingMiddleware("outer", &order)),
		WithTrailingMiddlewares(recordingMiddleware("trailing", &order)),
	)
	b.RootHandler(recordingMiddleware("root", &order))
	b.Operation("listPets").
		Use(recordingMiddleware("operation", &order)).
		HandleFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
			w.WriteHeader(http.StatusNoContent)
		})

	rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets", nil))

	expected := []string{
		"outer-before", "trailing-before", "root-before", "operation-before",
		"handler",
		"operation-after", "root-after", "trailing-after", "outer-after",
	}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v want %v", order, expected)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected response code: got %d want %d", rec.Code, http.StatusNoContent)
	}
}

func TestWithMiddlewareChainOverridesDefaults(t *testing.T) {
	var order []string

	b := newPetstoreBuilder(t, WithMiddlewareChain(
		recordingMiddleware("one", &order),
		recordingMiddleware("two", &order),
	))
	b.Operation("listPets").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets", nil))

	expected := []string{"one-before", "two-before", "handler", "two-after", "one-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v, want %v", order, expected)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected response code: got %d want %d", rec.Code, http.StatusTeapot)
	}
}

func TestCORSPreflightAnsweredBeforeMatching(t *testing.T) {
	b := newPetstoreBuilder(t, WithConfigMutator(func(cfg *Config) {
		cfg.CORS = CORSConfig{
			Origins:          []string{"https://example.com"},
			Methods:          []string{http.MethodGet, http.MethodPost},
			Headers:          []string{"Content-Type"},
			AllowCredentials: true,
		}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/pets", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(mustCreateRouter(t, b), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("unexpected access-control-allow-origin: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST" {
		t.Fatalf("unexpected access-control-allow-methods: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("unexpected access-control-allow-credentials: got %q", got)
	}
}

func TestWithoutCORSMiddlewareSkipsHeaders(t *testing.T) {
	b := newPetstoreBuilder(t,
		WithConfigMutator(func(cfg *Config) {
			cfg.CORS = CORSConfig{Origins: []string{"*"}}
		}),
		WithoutCORSMiddleware(),
	)
	b.Operation("listPets").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := serve(mustCreateRouter(t, b), req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected CORS headers to be skipped when middleware disabled")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status code: got %d want %d", rec.Code, http.StatusNoContent)
	}
}

func TestTimeoutMiddlewareCanBeDisabled(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}

	withTimeout := newPetstoreBuilder(t, WithConfig(Config{Timeout: time.Millisecond}))
	withTimeout.Operation("listPets").HandleFunc(slow)

	withoutTimeout := newPetstoreBuilder(t, WithConfig(Config{Timeout: time.Millisecond}), WithoutTimeoutMiddleware())
	withoutTimeout.Operation("listPets").HandleFunc(slow)

	rec := serve(mustCreateRouter(t, withTimeout), httptest.NewRequest(http.MethodGet, "/pets", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout handler to fire, got %d", rec.Code)
	}

	rec = serve(mustCreateRouter(t, withoutTimeout), httptest.NewRequest(http.MethodGet, "/pets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected handler to complete when timeout disabled, got %d", rec.Code)
	}
}

func TestHandleErrRoutesFailures(t *testing.T) {
	errGone := errors.New("pet is gone")

	t.Run("default responder", func(t *testing.T) {
		resp := responder.NewResponder(responder.WithErrorClassifier(func(err error) (int, bool) {
			if errors.Is(err, errGone) {
				return http.StatusGone, true
			}
			return 0, false
		}))
		b := newPetstoreBuilder(t, WithResponder(resp))
		b.Operation("showPetById").HandleErr(func(w http.ResponseWriter, r *http.Request) error {
			return errGone
		})

		rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets/1", nil))
		if rec.Code != http.StatusGone {
			t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusGone)
		}
	})

	t.Run("failure handler", func(t *testing.T) {
		var seen error
		b := newPetstoreBuilder(t)
		b.Operation("showPetById").
			HandleErr(func(w http.ResponseWriter, r *http.Request) error {
				return errGone
			}).
			OnFailure(func(w http.ResponseWriter, r *http.Request, err error) {
				seen = err
				w.WriteHeader(http.StatusConflict)
			})

		rec := serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets/1", nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusConflict)
		}
		if !errors.Is(seen, errGone) {
			t.Fatalf("expected failure handler to receive the error, got %v", seen)
		}
	})
}

func TestCreateRouterSnapshotsBindings(t *testing.T) {
	b := newPetstoreBuilder(t)
	r := mustCreateRouter(t, b)

	b.Operation("listPets").HandleFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/pets", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("router must not observe later bindings, got %d", rec.Code)
	}

	rec = serve(mustCreateRouter(t, b), httptest.NewRequest(http.MethodGet, "/pets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("new router should observe the binding, got %d", rec.Code)
	}
}

func TestRouterOperationsReportsBindings(t *testing.T) {
	b := newPetstoreBuilder(t)
	b.OperationFor(http.MethodGet, "/pets").HandleFunc(func(w http.ResponseWriter, r *http.Request) {})

	got := mustCreateRouter(t, b).Operations()
	expected := []Binding{
		{OperationID: "listPets", Method: http.MethodGet, Path: "/pets", Bound: true},
		{OperationID: "createPet", Method: http.MethodPost, Path: "/pets"},
		{OperationID: "deletePet", Method: http.MethodDelete, Path: "/pets/{petId}"},
		{OperationID: "showPetById", Method: http.MethodGet, Path: "/pets/{petId}"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected bindings: got %+v want %+v", got, expected)
	}
}

func TestBuilderLookups(t *testing.T) {
	b := newPetstoreBuilder(t)

	if b.Operation("") != nil {
		t.Fatal("empty operation id must not match")
	}
	if b.Operation("updatePet") != nil {
		t.Fatal("unknown operation id must not match")
	}
	if op := b.OperationFor(http.MethodDelete, "/pets/{petId}"); op == nil || op.ID() != "deletePet" {
		t.Fatalf("unexpected operation: %+v", op)
	}
	if len(b.Operations()) != 4 {
		t.Fatalf("unexpected operation count: %d", len(b.Operations()))
	}
}

func TestNewBuilderRejectsNilContract(t *testing.T) {
	if _, err := NewBuilder(nil); err == nil {
		t.Fatal("expected error for nil contract")
	}
}

func TestLoggingMiddlewareRedactsAndQuiets(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b, err := NewBuilder(loadPetstore(t),
		WithLogger(logger),
		WithConfig(Config{
			HideHeaders:     []string{"authorization"},
			QuietdownRoutes: []string{"/pets/1"},
		}),
	)
	if err != nil {
		t.Fatalf("failed to create builder: %v", err)
	}
	b.Operation("listPets").HandleFunc(func(w http.ResponseWriter, r *http.Request) {})
	r := mustCreateRouter(t, b)

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("Authorization", "Bearer secret")
	serve(r, req)

	if strings.Contains(logs.String(), "secret") {
		t.Fatalf("expected authorization header to be redacted: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "[REDACTED - 13 bytes]") {
		t.Fatalf("expected redaction marker: %s", logs.String())
	}

	logs.Reset()
	req = httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := serve(r, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if !strings.Contains(logs.String(), `"RequestID":"req-42"`) {
		t.Fatalf("expected request id in logs: %s", logs.String())
	}

	logs.Reset()
	serve(r, httptest.NewRequest(http.MethodGet, "/pets/1", nil))
	if strings.Contains(logs.String(), `"msg":"Request"`) {
		t.Fatalf("expected quiet route to skip request logging: %s", logs.String())
	}
}

func recordingMiddleware(label string, sink *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*sink = append(*sink, label+"-before")
			next.ServeHTTP(w, r)
			*sink = append(*sink, label+"-after")
		})
	}
}
