package responder

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ProblemDetails is an RFC 9457 problem document. Method, Operation and
// Allowed are extension members describing how the request related to the
// contract.
type ProblemDetails struct {
	Type      string   `json:"type,omitempty"`
	Title     string   `json:"title"`
	Status    int      `json:"status"`
	Detail    string   `json:"detail,omitempty"`
	Instance  string   `json:"instance,omitempty"`
	TraceID   string   `json:"traceId,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Method    string   `json:"method,omitempty"`
	Operation string   `json:"operation,omitempty"`
	Allowed   []string `json:"allowed,omitempty"`
}

// problemExt carries the extension members a handler knows about.
type problemExt struct {
	operation string
	allowed   []string
}

func (r *Responder) statusMetaFor(status int) statusMeta {
	meta, ok := r.statusMetadata[status]
	if !ok {
		meta = statusMeta{}
	}
	return normalizeStatusMeta(status, meta)
}

func (r *Responder) writeProblem(w http.ResponseWriter, req *http.Request, status int, err error, ext problemExt, logMsg []string) {
	if err == nil {
		return
	}

	meta := r.statusMetaFor(status)
	problem := buildProblemDetails(req, status, err, meta, ext)
	r.logProblem(req, meta, problem, logMsg)
	r.respondWithJSON(w, req, status, problem, problemContentType)
}

func buildProblemDetails(req *http.Request, status int, err error, meta statusMeta, ext problemExt) ProblemDetails {
	return ProblemDetails{
		Type:      meta.typeURI,
		Title:     meta.title,
		Status:    status,
		Detail:    err.Error(),
		Instance:  requestInstance(req),
		TraceID:   newTraceID(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Method:    requestMethod(req),
		Operation: ext.operation,
		Allowed:   ext.allowed,
	}
}

func (r *Responder) logProblem(req *http.Request, meta statusMeta, problem ProblemDetails, msgs []string) {
	logger := r.logger().With("error", problem.Detail, "traceId", problem.TraceID, "status", problem.Status)
	if problem.Instance != "" {
		logger = logger.With("instance", problem.Instance)
	}
	if problem.Operation != "" {
		logger = logger.With("operation", problem.Operation)
	}
	if len(msgs) > 0 {
		logger = logger.With("logMessages", msgs)
	}
	logger.Log(requestContext(req), meta.level.Level(), meta.logMsg)
}

func normalizeStatusMeta(status int, meta statusMeta) statusMeta {
	if meta.level == nil {
		meta.level = slog.LevelError
	}
	if meta.title == "" {
		meta.title = http.StatusText(status)
	}
	if meta.logMsg == "" {
		meta.logMsg = meta.title
	}
	if meta.typeURI == "" {
		meta.typeURI = fmt.Sprintf("%s/%d", statusDocBaseURL, status)
	}
	return meta
}
