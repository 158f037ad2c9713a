package simplify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarpost/klarpost/internal/domain"
)

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestSimplifySendsRedactedTextAndLanguage(t *testing.T) {
	var captured request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(completionResponse("1) Zusammenfassung ...")))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil, WithBaseURL(srv.URL))
	out, err := c.Simplify(context.Background(), "Ihr Antrag wurde bewilligt.", "Deutsch")

	require.NoError(t, err)
	assert.Equal(t, "1) Zusammenfassung ...", out)
	assert.Equal(t, defaultModel, captured.Model)
	assert.Equal(t, 0.2, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[1].Content, "Zielsprache: Deutsch.")
	assert.Contains(t, captured.Messages[1].Content, "Ihr Antrag wurde bewilligt.")
}

func TestSimplifyConfiguredTemperature(t *testing.T) {
	var captured request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(completionResponse("ok")))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil, WithBaseURL(srv.URL), WithTemperature(0.7))
	_, err := c.Simplify(context.Background(), "text", "Deutsch")

	require.NoError(t, err)
	assert.Equal(t, 0.7, captured.Temperature)

	// Non-positive values keep the defaults.
	c = NewClient("test-key", "", nil, WithBaseURL(""), WithTemperature(0))
	assert.Equal(t, 0.2, c.temperature)
	assert.Equal(t, groqURL, c.baseURL)
}

func TestSimplifyRetriesTransientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completionResponse("ok")))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil, WithBaseURL(srv.URL))
	out, err := c.Simplify(context.Background(), "text", "Deutsch")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestSimplifyDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil, WithBaseURL(srv.URL))
	_, err := c.Simplify(context.Background(), "text", "Deutsch")

	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestSimplifyEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionResponse("   ")))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil, WithBaseURL(srv.URL))
	_, err := c.Simplify(context.Background(), "text", "Deutsch")

	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
}

func TestSimplifyUnconfigured(t *testing.T) {
	c := NewClient("", "", nil)
	_, err := c.Simplify(context.Background(), "text", "Deutsch")
	assert.Equal(t, domain.KindConfigurationMissing, domain.KindOf(err))
}

func TestLanguageAllowed(t *testing.T) {
	assert.True(t, LanguageAllowed("Deutsch"))
	assert.True(t, LanguageAllowed("Serbokroatisch"))
	assert.False(t, LanguageAllowed("Klingonisch"))
	assert.False(t, LanguageAllowed("deutsch"), "matching is exact")
	assert.Len(t, Languages(), 12)
}
