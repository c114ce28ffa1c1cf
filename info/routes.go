package info

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Prefix is where Register mounts the info endpoints.
const Prefix = "/_info"

// Paths of the info endpoints, relative to Prefix.
const (
	PathHealthz    = "/healthz"
	PathReadyz     = "/readyz"
	PathContract   = "/openapi.json"
	PathOperations = "/operations"
)

// Register mounts the info endpoints under Prefix on r. Routes are added with
// full paths so a wrong method on any of them answers 405.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(Prefix+PathHealthz, h.GetHealthz).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(Prefix+PathReadyz, h.GetReadyz).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(Prefix+PathContract, h.GetContract).Methods(http.MethodGet)
	r.HandleFunc(Prefix+PathOperations, h.GetOperations).Methods(http.MethodGet)
}

// GetHealthz runs the liveness checks.
func (h *Handler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.livenessChecks); err != nil {
		h.HandleServiceUnavailable(w, r, err, "liveness probe failed")
		return
	}
	h.respondProbe(w, r, http.StatusOK, "ok")
}

// GetReadyz runs the readiness checks.
func (h *Handler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context(), h.readinessChecks); err != nil {
		h.HandleServiceUnavailable(w, r, err, "readiness probe failed")
		return
	}
	h.respondProbe(w, r, http.StatusOK, "ready")
}

// GetContract writes the resolved contract as JSON.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	body, err := h.contractProvider()
	if err != nil {
		h.HandleInternalServerError(w, r, err, "failed to render contract")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.Logger().Error("failed to write contract response", "error", err)
	}
}

// GetOperations writes the operation binding table.
func (h *Handler) GetOperations(w http.ResponseWriter, r *http.Request) {
	payload := h.operationsProvider()
	if payload == nil {
		payload = []any{}
	}
	h.RespondWithJSON(w, r, http.StatusOK, payload)
}
