package responder

import (
	"log/slog"
	"net/http"
)

const (
	jsonContentType    = "application/json"
	problemContentType = "application/problem+json"
	statusDocBaseURL   = "https://httpstatuses.io"
)

// ErrorClassifierFunc maps an error returned by an operation handler to an
// HTTP status. handled reports whether the error was recognised; unhandled
// errors become 500 problems.
type ErrorClassifierFunc func(err error) (status int, handled bool)

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

type statusMeta struct {
	typeURI string
	title   string
	level   slog.Leveler
	logMsg  string
}

// StatusMetadata overrides how problems with one status are titled and
// logged. A nil LogLevel logs at error level.
type StatusMetadata struct {
	TypeURI  string
	Title    string
	LogLevel slog.Leveler
	LogMsg   string
}

// Responder renders the error responses a contract router produces for
// unmatched routes, unbound operations and failing handlers, along with plain
// JSON payloads.
type Responder struct {
	log             *slog.Logger
	statusMetadata  map[int]statusMeta
	errorClassifier ErrorClassifierFunc
}

// NewResponder returns a Responder using slog.Default and the routing
// vocabulary for 400, 404, 405, 500, 501 and 503.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		log:            slog.Default(),
		statusMetadata: routingStatusMetadata(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger sets the logger used for problem records.
func WithLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithErrorClassifier installs the classifier HandleErrors consults for
// errors returned by operation handlers.
func WithErrorClassifier(classifier ErrorClassifierFunc) ResponderOption {
	return func(r *Responder) {
		r.errorClassifier = classifier
	}
}

// WithStatusMetadata replaces the metadata for status. Empty fields fall back
// to the status text and the default type URI.
func WithStatusMetadata(status int, meta StatusMetadata) ResponderOption {
	return func(r *Responder) {
		if r.statusMetadata == nil {
			r.statusMetadata = make(map[int]statusMeta)
		}
		r.statusMetadata[status] = normalizeStatusMeta(status, statusMeta{
			typeURI: meta.TypeURI,
			title:   meta.Title,
			level:   meta.LogLevel,
			logMsg:  meta.LogMsg,
		})
	}
}

// Logger returns the logger problems are recorded with.
func (r *Responder) Logger() *slog.Logger {
	return r.logger()
}

func (r *Responder) logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}

func (r *Responder) classifyError(err error) (int, bool) {
	if r.errorClassifier == nil {
		return 0, false
	}
	return r.errorClassifier(err)
}

// routingStatusMetadata describes each status in terms of what happened to
// the request on its way through the contract router. Outcomes a test
// provokes on purpose log below error level.
func routingStatusMetadata() map[int]statusMeta {
	entries := []struct {
		status int
		level  slog.Level
		msg    string
	}{
		{http.StatusBadRequest, slog.LevelWarn, "request rejected by contract validation"},
		{http.StatusNotFound, slog.LevelDebug, "no contract operation matched"},
		{http.StatusMethodNotAllowed, slog.LevelDebug, "method not declared for contract path"},
		{http.StatusInternalServerError, slog.LevelError, "operation handler failed"},
		{http.StatusNotImplemented, slog.LevelInfo, "contract operation has no handler"},
		{http.StatusServiceUnavailable, slog.LevelWarn, "server probe failed"},
	}

	meta := make(map[int]statusMeta, len(entries))
	for _, e := range entries {
		meta[e.status] = normalizeStatusMeta(e.status, statusMeta{level: e.level, logMsg: e.msg})
	}
	return meta
}
