package info

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type probePayload struct {
	Status string `json:"status"`
}

func (h *Handler) respondProbe(w http.ResponseWriter, r *http.Request, statusCode int, state string) {
	h.RespondWithJSON(w, r, statusCode, probePayload{Status: state})
}

// runChecks runs every check under one deadline and joins all failures.
func (h *Handler) runChecks(ctx context.Context, checks []ProbeFunc) error {
	if len(checks) == 0 {
		return nil
	}

	timeout := h.probeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for idx, check := range checks {
		err := check(probeCtx)
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			errs = append(errs, fmt.Errorf("probe %d timed out after %s", idx+1, timeout))
		case errors.Is(err, context.Canceled):
			errs = append(errs, fmt.Errorf("probe %d was cancelled", idx+1))
		default:
			errs = append(errs, fmt.Errorf("probe %d failed: %w", idx+1, err))
		}
	}

	return errors.Join(errs...)
}

func filterProbes(checks []ProbeFunc) []ProbeFunc {
	filtered := make([]ProbeFunc, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	return filtered
}
