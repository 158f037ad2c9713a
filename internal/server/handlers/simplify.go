package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/entitlement"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/ratelimit"
	"github.com/klarpost/klarpost/internal/redact"
	"github.com/klarpost/klarpost/internal/simplify"
)

// SimplifyRequest is the JSON request body for pre-extracted text.
type SimplifyRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

// SimplifyResponse is the successful simplification result.
type SimplifyResponse struct {
	SimplifiedText string `json:"simplifiedText"`
	Premium        bool   `json:"premium"`
	Remaining      *int   `json:"remaining"`
}

// Simplify handles POST /api/v1/simplify. It accepts either a multipart
// upload (field "file") or a JSON body with pre-extracted text, enforces the
// rate limit and free quota, redacts personal data, and returns the
// plain-language rendition. The usage counter advances only on success.
func (h *Handler) Simplify(w http.ResponseWriter, r *http.Request) {
	// Correlation ID for every log line of this document's pipeline run.
	ctx := observability.ContextWithRequestID(r.Context(), uuid.NewString())
	r = r.WithContext(ctx)

	if !h.limiter.Allow(ctx, ratelimit.ClientKey(r)) {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.limiter.RetryAfter().Seconds())))
		h.writeError(w, r, domain.RateLimitedError("too many requests, please wait a moment and try again", nil))
		return
	}

	if !h.ledger.Configured() {
		h.writeError(w, r, domain.ConfigurationMissingError("the server is not configured", nil))
		return
	}

	text, targetLanguage, err := h.readSimplifyInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !simplify.LanguageAllowed(targetLanguage) {
		h.writeError(w, r, domain.InvalidTargetLanguageError("the requested target language is not supported", nil))
		return
	}

	status := entitlement.StatusFromRequest(r, h.ledger, h.freeDocLimit)
	if !status.Allowed() {
		h.writeError(w, r, domain.QuotaExceededError(
			fmt.Sprintf("free limit reached (%d documents), premium required", h.freeDocLimit), nil))
		return
	}

	redacted := redact.Redact(text)

	simplified, err := h.simplifier.Simplify(ctx, redacted, targetLanguage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := SimplifyResponse{SimplifiedText: simplified, Premium: status.Premium}
	if !status.Premium {
		used := status.Used + 1
		entitlement.SetUsage(w, h.ledger, used, h.secureCookies)
		remaining := entitlement.Status{Used: used, Limit: h.freeDocLimit}.Remaining()
		resp.Remaining = &remaining
	}

	respondJSON(w, http.StatusOK, resp)
}

// readSimplifyInput resolves the document text and target language from
// either a multipart upload or a JSON body.
func (h *Handler) readSimplifyInput(r *http.Request) (string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		return h.readUpload(r)
	}

	var req SimplifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.maxUploadBytes)).Decode(&req); err != nil {
		return "", "", domain.UnsupportedFormatError("the request body could not be parsed", err)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", "", domain.NoTextRecognizedError("no text was provided", nil)
	}
	if utf8.RuneCountInString(text) > domain.MaxTextChars {
		return "", "", domain.InputTooLargeError(
			fmt.Sprintf("document text exceeds %d characters", domain.MaxTextChars), nil)
	}
	return text, targetLanguageOrDefault(req.TargetLanguage), nil
}

// readUpload extracts text from a multipart file upload.
func (h *Handler) readUpload(r *http.Request) (string, string, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return "", "", domain.InputTooLargeError("the upload is too large", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", domain.UnsupportedFormatError(
			fmt.Sprintf("a file is required; please send %s", domain.AcceptedKinds), err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return "", "", domain.UnsupportedFormatError("the upload could not be read", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return "", "", domain.InputTooLargeError("the upload is too large", nil)
	}

	doc := domain.UploadedDocument{
		Data:         data,
		DeclaredType: header.Header.Get("Content-Type"),
		Filename:     header.Filename,
	}

	start := time.Now()
	text, err := h.extractor.Extract(r.Context(), doc, nil)
	if err != nil {
		return "", "", err
	}
	h.logger.WithContext(r.Context()).Info().
		Str("kind", doc.Kind().String()).
		Int("chars", utf8.RuneCountInString(text)).
		Dur("took", time.Since(start)).
		Msg("document extracted")

	return text, targetLanguageOrDefault(r.FormValue("targetLanguage")), nil
}

func targetLanguageOrDefault(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return simplify.DefaultLanguage
	}
	return lang
}
