// Package responder renders JSON payloads and RFC 9457 problem documents for
// contract routers and the info endpoints. Every problem carries a ULID trace
// identifier that is also attached to the log record.
package responder
