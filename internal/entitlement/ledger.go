// Package entitlement implements the stateless signed-cookie quota and
// premium model. No user record is stored server-side; the cookie itself is
// the ledger, authenticated with HMAC so clients cannot mint their own.
package entitlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFreeDocLimit is the number of documents a non-premium client may
// process when no limit is configured.
const DefaultFreeDocLimit = 3

// maxUsage caps the stored counter so a forged-looking or overflowed value
// can never wrap.
const maxUsage = 999

// Ledger signs and verifies entitlement payloads.
type Ledger struct {
	secret []byte
}

// NewLedger creates a ledger from the shared signing secret. An empty secret
// yields an unconfigured ledger; callers must check Configured before use.
func NewLedger(secret string) *Ledger {
	return &Ledger{secret: []byte(secret)}
}

// Configured reports whether a signing secret is present. Entitlement
// endpoints must fail closed when it is not.
func (l *Ledger) Configured() bool {
	return len(l.secret) > 0
}

// Sign returns the hex HMAC-SHA256 of payload.
func (l *Ledger) Sign(payload string) string {
	mac := hmac.New(sha256.New, l.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Token returns the wire form of a signed payload: "<payload>.<signature>".
func (l *Ledger) Token(payload string) string {
	return payload + "." + l.Sign(payload)
}

// Verify splits a token and checks its signature in constant time. It returns
// the payload and whether the token is authentic. Any malformed or tampered
// token is treated as absent.
func (l *Ledger) Verify(token string) (string, bool) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return "", false
	}
	expected := l.Sign(payload)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", false
	}
	return payload, true
}

// UsageCount verifies a usage token and returns the counter clamped to
// [0, 999]. Invalid tokens count as zero, which favors the user.
func (l *Ledger) UsageCount(token string) int {
	payload, ok := l.Verify(token)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(payload)
	if err != nil {
		return 0
	}
	return clampUsage(n)
}

// UsageToken returns a signed token carrying the given counter, clamped.
func (l *Ledger) UsageToken(count int) string {
	return l.Token(strconv.Itoa(clampUsage(count)))
}

// PremiumToken returns a signed premium grant. The payload records the grant
// version and issue time in Unix milliseconds.
func (l *Ledger) PremiumToken(now time.Time) string {
	return l.Token(fmt.Sprintf("v1:%d", now.UnixMilli()))
}

// IsPremium verifies a premium token. Any authentic payload grants premium;
// the payload content is reserved for future revocation schemes.
func (l *Ledger) IsPremium(token string) bool {
	_, ok := l.Verify(token)
	return ok
}

func clampUsage(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxUsage {
		return maxUsage
	}
	return n
}
