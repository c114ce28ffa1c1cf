package responder

import "github.com/oklog/ulid/v2"

// newTraceID returns a ULID so trace IDs in logs sort by creation time.
func newTraceID() string {
	return ulid.Make().String()
}
