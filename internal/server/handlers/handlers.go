// Package handlers provides HTTP handlers for the klarpost API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/entitlement"
	"github.com/klarpost/klarpost/internal/extract"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/ratelimit"
)

// Extractor turns an uploaded document into normalized text.
type Extractor interface {
	Extract(ctx context.Context, doc domain.UploadedDocument, onProgress extract.ProgressFunc) (string, error)
}

// Simplifier rewrites redacted text in plain language.
type Simplifier interface {
	Simplify(ctx context.Context, redactedText, targetLanguage string) (string, error)
}

// Payments covers the checkout and verification operations of the payment
// provider.
type Payments interface {
	CreateCheckout(ctx context.Context) (string, error)
	VerifySession(ctx context.Context, sessionID string) (bool, error)
}

// Handler bundles the API handlers and their dependencies.
type Handler struct {
	logger         *observability.Logger
	extractor      Extractor
	simplifier     Simplifier
	ledger         *entitlement.Ledger
	limiter        *ratelimit.Limiter
	payments       Payments
	secureCookies  bool
	maxUploadBytes int64
	freeDocLimit   int
}

// Config wires a Handler.
type Config struct {
	Logger         *observability.Logger
	Extractor      Extractor
	Simplifier     Simplifier
	Ledger         *entitlement.Ledger
	Limiter        *ratelimit.Limiter
	Payments       Payments
	SecureCookies  bool
	MaxUploadBytes int64
	FreeDocLimit   int
}

// New creates the handler set.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.FreeDocLimit <= 0 {
		cfg.FreeDocLimit = entitlement.DefaultFreeDocLimit
	}
	return &Handler{
		logger:         logger.WithComponent("api"),
		extractor:      cfg.Extractor,
		simplifier:     cfg.Simplifier,
		ledger:         cfg.Ledger,
		limiter:        cfg.Limiter,
		payments:       cfg.Payments,
		secureCookies:  cfg.SecureCookies,
		maxUploadBytes: cfg.MaxUploadBytes,
		freeDocLimit:   cfg.FreeDocLimit,
	}
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case domain.KindNoTextRecognized:
		return http.StatusUnprocessableEntity
	case domain.KindInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindInvalidTargetLanguage:
		return http.StatusBadRequest
	case domain.KindQuotaExceeded:
		return http.StatusPaymentRequired
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes v with the given status. Every response carries
// Cache-Control: no-store; entitlement state must never be cached by
// intermediaries.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps a pipeline error onto the wire. Only the taxonomy message
// is exposed; the underlying cause goes to the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)

	evt := h.logger.WithContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		evt = h.logger.WithContext(r.Context()).Error()
	}
	evt.Str("kind", string(kind)).Int("status", status).Err(err).Msg("request failed")

	respondJSON(w, status, errorResponse{Error: domain.MessageOf(err), Kind: string(kind)})
}

// writeMessage writes a plain error without taxonomy mapping.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
