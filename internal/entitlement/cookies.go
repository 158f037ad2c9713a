package entitlement

import (
	"net/http"
	"time"
)

// Cookie names. The prefix is historical and kept stable so existing clients
// keep their quota across deployments.
const (
	PremiumCookie = "kk_premium"
	UsageCookie   = "kk_used"
)

// cookieMaxAge is one year, matching the premium grant lifetime.
const cookieMaxAge = 365 * 24 * time.Hour

// Status is the entitlement view of one request.
type Status struct {
	Premium bool
	// Used is the verified usage counter. Meaningless when Premium.
	Used int
	// Limit is the free-tier document allowance in force for this request.
	Limit int
}

// Remaining returns how many free documents are left. Premium clients have
// no limit and report -1.
func (s Status) Remaining() int {
	if s.Premium {
		return -1
	}
	r := s.Limit - s.Used
	if r < 0 {
		return 0
	}
	return r
}

// Allowed reports whether the client may process another document.
func (s Status) Allowed() bool {
	return s.Premium || s.Used < s.Limit
}

// StatusFromRequest reads and verifies both entitlement cookies. Missing or
// tampered cookies degrade to the free-tier zero state. A non-positive limit
// falls back to DefaultFreeDocLimit.
func StatusFromRequest(r *http.Request, l *Ledger, limit int) Status {
	if limit <= 0 {
		limit = DefaultFreeDocLimit
	}
	st := Status{Limit: limit}
	if c, err := r.Cookie(PremiumCookie); err == nil && l.IsPremium(c.Value) {
		st.Premium = true
		return st
	}
	if c, err := r.Cookie(UsageCookie); err == nil {
		st.Used = l.UsageCount(c.Value)
	}
	return st
}

// SetUsage writes the signed usage counter cookie.
func SetUsage(w http.ResponseWriter, l *Ledger, count int, secure bool) {
	setSigned(w, UsageCookie, l.UsageToken(count), secure)
}

// SetPremium writes the signed premium grant cookie.
func SetPremium(w http.ResponseWriter, l *Ledger, now time.Time, secure bool) {
	setSigned(w, PremiumCookie, l.PremiumToken(now), secure)
}

func setSigned(w http.ResponseWriter, name, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
