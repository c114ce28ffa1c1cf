// Package info serves diagnostic endpoints next to a mounted contract router:
// liveness and readiness probes, the resolved contract as JSON, and the
// operation binding table. Register mounts them under Prefix on a gorilla/mux
// router so they never collide with contract paths.
package info
