package handlers

import "net/http"

// CheckoutResponse carries the hosted checkout URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// Checkout handles POST /api/v1/checkout: it opens a subscription checkout
// session and returns the URL the client should navigate to.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	url, err := h.payments.CreateCheckout(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponse{URL: url})
}
