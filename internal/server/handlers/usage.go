package handlers

import (
	"net/http"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/entitlement"
)

// UsageResponse reports the client's entitlement state. Remaining is null
// for premium clients.
type UsageResponse struct {
	Premium   bool `json:"premium"`
	Remaining *int `json:"remaining"`
}

// Usage handles GET /api/v1/usage.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	if !h.ledger.Configured() {
		h.writeError(w, r, domain.ConfigurationMissingError("the server is not configured", nil))
		return
	}

	status := entitlement.StatusFromRequest(r, h.ledger, h.freeDocLimit)
	resp := UsageResponse{Premium: status.Premium}
	if !status.Premium {
		remaining := status.Remaining()
		resp.Remaining = &remaining
	}
	respondJSON(w, http.StatusOK, resp)
}
