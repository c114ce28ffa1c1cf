package router

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/routers"
)

type routeContextKey struct{}

type routeInfo struct {
	route  *routers.Route
	params map[string]string
}

func infoFrom(ctx context.Context) *routeInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(routeContextKey{}).(*routeInfo)
	return info
}

// RouteFromContext returns the contract route matched for the request.
func RouteFromContext(ctx context.Context) (*routers.Route, bool) {
	info := infoFrom(ctx)
	if info == nil || info.route == nil {
		return nil, false
	}
	return info.route, true
}

// OperationID returns the operationId matched for r, or "".
func OperationID(r *http.Request) string {
	route, ok := RouteFromContext(r.Context())
	if !ok || route.Operation == nil {
		return ""
	}
	return route.Operation.OperationID
}

// PathParams returns the path parameters matched for r.
func PathParams(r *http.Request) map[string]string {
	info := infoFrom(r.Context())
	if info == nil {
		return nil
	}
	return info.params
}

// PathParam returns a single path parameter, or "".
func PathParam(r *http.Request, name string) string {
	return PathParams(r)[name]
}
