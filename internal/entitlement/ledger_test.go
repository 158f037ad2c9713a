package entitlement

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	l := NewLedger("test-secret")

	token := l.Token("42")
	payload, ok := l.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "42", payload)
}

func TestVerifyRejectsTampering(t *testing.T) {
	l := NewLedger("test-secret")
	token := l.Token("2")

	tests := []struct {
		name  string
		token string
	}{
		{"flipped payload", "3" + token[1:]},
		{"truncated signature", token[:len(token)-1]},
		{"missing separator", "2deadbeef"},
		{"empty", ""},
		{"separator only", "."},
		{"signed by other secret", NewLedger("other").Token("2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := l.Verify(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestUsageCountClamps(t *testing.T) {
	l := NewLedger("test-secret")

	assert.Equal(t, 0, l.UsageCount(l.Token("-5")))
	assert.Equal(t, 999, l.UsageCount(l.Token("100000")))
	assert.Equal(t, 7, l.UsageCount(l.Token("7")))
	assert.Equal(t, 0, l.UsageCount(l.Token("not-a-number")))
	assert.Equal(t, 0, l.UsageCount("garbage"))
}

func TestUsageTokenClampsOnWrite(t *testing.T) {
	l := NewLedger("test-secret")
	assert.Equal(t, 999, l.UsageCount(l.UsageToken(5000)))
	assert.Equal(t, 0, l.UsageCount(l.UsageToken(-1)))
}

func TestPremiumToken(t *testing.T) {
	l := NewLedger("test-secret")
	token := l.PremiumToken(time.Now())

	assert.True(t, l.IsPremium(token))
	assert.False(t, l.IsPremium("v1:123.deadbeef"))
	assert.False(t, NewLedger("other").IsPremium(token))
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewLedger("").Configured())
	assert.True(t, NewLedger("x").Configured())
}

func TestStatusFromRequest(t *testing.T) {
	l := NewLedger("test-secret")

	t.Run("no cookies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		st := StatusFromRequest(r, l, DefaultFreeDocLimit)
		assert.False(t, st.Premium)
		assert.Equal(t, 0, st.Used)
		assert.Equal(t, DefaultFreeDocLimit, st.Remaining())
		assert.True(t, st.Allowed())
	})

	t.Run("at the limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: UsageCookie, Value: l.UsageToken(DefaultFreeDocLimit)})
		st := StatusFromRequest(r, l, DefaultFreeDocLimit)
		assert.False(t, st.Allowed())
		assert.Equal(t, 0, st.Remaining())
	})

	t.Run("configured limit applies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: UsageCookie, Value: l.UsageToken(4)})
		st := StatusFromRequest(r, l, 5)
		assert.True(t, st.Allowed())
		assert.Equal(t, 1, st.Remaining())

		st = StatusFromRequest(r, l, 4)
		assert.False(t, st.Allowed())
	})

	t.Run("non-positive limit falls back to the default", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		st := StatusFromRequest(r, l, 0)
		assert.Equal(t, DefaultFreeDocLimit, st.Limit)
	})

	t.Run("premium ignores usage", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: PremiumCookie, Value: l.PremiumToken(time.Now())})
		r.AddCookie(&http.Cookie{Name: UsageCookie, Value: l.UsageToken(500)})
		st := StatusFromRequest(r, l, DefaultFreeDocLimit)
		assert.True(t, st.Premium)
		assert.True(t, st.Allowed())
		assert.Equal(t, -1, st.Remaining())
	})

	t.Run("tampered usage counts as zero", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: UsageCookie, Value: "999.forged"})
		st := StatusFromRequest(r, l, DefaultFreeDocLimit)
		assert.Equal(t, 0, st.Used)
	})
}

func TestSetCookies(t *testing.T) {
	l := NewLedger("test-secret")
	w := httptest.NewRecorder()

	SetUsage(w, l, 2, true)
	SetPremium(w, l, time.Now(), true)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int((365 * 24 * time.Hour).Seconds()), c.MaxAge)
	}
}
