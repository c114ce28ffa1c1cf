// Package probe builds readiness and liveness checks for contract test
// servers: plain ping functions, TCP dials against a freshly bound listener,
// and HTTP requests against the server's info endpoints.
package probe
