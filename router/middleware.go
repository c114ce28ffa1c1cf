package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	oapiMW "github.com/oapi-codegen/nethttp-middleware"

	"github.com/drblury/contractserver/responder"
)

func applyMiddlewares(handler http.Handler, middlewares []Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		middleware := middlewares[i]
		if middleware == nil {
			continue
		}
		handler = middleware(handler)
	}

	return handler
}

// validationMiddleware checks requests against spec, which must not declare
// servers: the router only ever sees paths relative to its mount point.
func validationMiddleware(spec *openapi3.T, resp *responder.Responder) Middleware {
	validatorOptions := &oapiMW.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandlerWithOpts: func(_ context.Context, err error, w http.ResponseWriter, r *http.Request, opts oapiMW.ErrorHandlerOpts) {
			status := opts.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			resp.HandleAPIError(w, r, status, err, "request failed contract validation")
		},
	}

	return oapiMW.OapiRequestValidatorWithOptions(spec, validatorOptions)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestIDHeader carries the request ID assigned by the logging middleware.
const RequestIDHeader = "X-Request-Id"

func loggingMiddleware(logger *slog.Logger, quietdownRoutes []string, hideHeaders []string) Middleware {
	quietRoutesCopy := cloneStrings(quietdownRoutes)
	redactedCopy := cloneStrings(hideHeaders)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set(RequestIDHeader, requestID)
			}
			w.Header().Set(RequestIDHeader, requestID)

			if slices.Contains(quietRoutesCopy, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			headers := r.Header.Clone()
			redactHeaders(headers, redactedCopy)

			attrs := []any{
				"RequestID", requestID,
				"Path", r.URL.Path,
				"Method", r.Method,
				"Header", headers,
			}
			if r.ContentLength > 0 {
				attrs = append(attrs, "ContentLength", r.ContentLength)
			}
			logger.With(attrs...).Debug("Request")

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debug("Response",
				"RequestID", requestID,
				"Path", r.URL.Path,
				"Method", r.Method,
				"Status", status,
				"Duration", time.Since(start),
			)
		})
	}
}

func corsMiddleware(cfg CORSConfig) Middleware {
	headersCopy := cloneStrings(cfg.Headers)
	methodsCopy := cloneStrings(cfg.Methods)
	originsCopy := cloneStrings(cfg.Origins)

	return func(next http.Handler) http.Handler {
		if len(originsCopy) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if allowedOrigin(origin, originsCopy) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			// Preflight requests never reach contract matching.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(methodsCopy, ","))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(headersCopy, ","))
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Timeout")
	}
}

func allowedOrigin(origin string, allowed []string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func redactHeaders(headers http.Header, hideHeaders []string) {
	for _, header := range hideHeaders {
		canonical := http.CanonicalHeaderKey(header)
		values, exists := headers[canonical]
		if !exists {
			continue
		}

		redactedLen := 0
		for _, value := range values {
			redactedLen += len(value)
		}

		headers[canonical] = []string{fmt.Sprintf("[REDACTED - %d bytes]", redactedLen)}
	}
}
