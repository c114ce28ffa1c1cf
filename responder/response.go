package responder

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/drblury/contractserver/jsonutil"
)

// HandleAPIError writes a problem document for status and logs it with the
// status metadata's level and message.
func (r *Responder) HandleAPIError(w http.ResponseWriter, req *http.Request, status int, err error, logMsg ...string) {
	r.writeProblem(w, req, status, err, problemExt{}, logMsg)
}

// HandleInternalServerError reports err with HTTP 500.
func (r *Responder) HandleInternalServerError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusInternalServerError, err, logMsg...)
}

// HandleBadRequestError reports request validation failures with HTTP 400.
func (r *Responder) HandleBadRequestError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusBadRequest, err, logMsg...)
}

// HandleNotFound reports that no contract operation matches the request path.
func (r *Responder) HandleNotFound(w http.ResponseWriter, req *http.Request) {
	r.HandleAPIError(w, req, http.StatusNotFound, fmt.Errorf("no operation matches %s", requestPath(req)))
}

// HandleMethodNotAllowed reports a path that exists in the contract without
// the requested method. allowed populates the Allow header.
func (r *Responder) HandleMethodNotAllowed(w http.ResponseWriter, req *http.Request, allowed []string) {
	if w != nil && len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	err := fmt.Errorf("method %s is not declared for %s", requestMethod(req), requestPath(req))
	r.writeProblem(w, req, http.StatusMethodNotAllowed, err, problemExt{allowed: allowed}, nil)
}

// HandleNotImplemented reports a declared operation that has no handler bound.
func (r *Responder) HandleNotImplemented(w http.ResponseWriter, req *http.Request, operation string) {
	err := fmt.Errorf("operation %s has no handler", operation)
	r.writeProblem(w, req, http.StatusNotImplemented, err, problemExt{operation: operation}, nil)
}

// HandleServiceUnavailable reports failed health or readiness probes.
func (r *Responder) HandleServiceUnavailable(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusServiceUnavailable, err, logMsg...)
}

// RespondWithJSON writes v as JSON with the given status.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.respondWithJSON(w, req, status, v, jsonContentType)
}

// HandleErrors maps err to a status via the configured classifier, falling
// back to 500.
func (r *Responder) HandleErrors(w http.ResponseWriter, req *http.Request, err error, msgs ...string) {
	if err == nil {
		return
	}

	if status, handled := r.classifyError(err); handled {
		r.HandleAPIError(w, req, status, err, msgs...)
		return
	}

	r.HandleInternalServerError(w, req, err, msgs...)
}

func (r *Responder) respondWithJSON(w http.ResponseWriter, _ *http.Request, status int, payload any, contentType string) {
	if w == nil {
		return
	}

	body, err := marshalPayload(payload)
	if err != nil {
		r.logger().Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	r.writeResponse(w, status, contentType, body)
}

func marshalPayload(payload any) ([]byte, error) {
	data, err := jsonutil.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

func (r *Responder) writeResponse(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.logger().Error("failed to write response", "error", err)
	}
}
