package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/entitlement"
)

// PremiumVerifyRequest carries the checkout session to confirm.
type PremiumVerifyRequest struct {
	SessionID string `json:"session_id"`
}

// PremiumVerifyResponse acknowledges a granted premium entitlement.
type PremiumVerifyResponse struct {
	OK bool `json:"ok"`
}

// PremiumVerify handles POST /api/v1/premium/verify. The premium cookie is
// only set after the payment provider confirms a paid session with an active
// subscription.
func (h *Handler) PremiumVerify(w http.ResponseWriter, r *http.Request) {
	if !h.ledger.Configured() {
		h.writeError(w, r, domain.ConfigurationMissingError("the server is not configured", nil))
		return
	}

	var req PremiumVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "the request body could not be parsed")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		writeMessage(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ok, err := h.payments.VerifySession(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		writeMessage(w, http.StatusForbidden, "premium could not be confirmed")
		return
	}

	entitlement.SetPremium(w, h.ledger, time.Now(), h.secureCookies)
	respondJSON(w, http.StatusOK, PremiumVerifyResponse{OK: true})
}
