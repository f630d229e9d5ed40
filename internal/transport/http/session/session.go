package session

import (
	"net/http"
	"strings"
	"time"

	"go-gin-tasks/internal/core/auth"
)

const DefaultCookieName = "token"

// Transport moves session tokens between HTTP messages: an HttpOnly cookie
// for browsers, the Authorization header for other clients.
type Transport struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration // 默认 auth.SessionTTL
}

func (t Transport) name() string {
	if t.CookieName == "" {
		return DefaultCookieName
	}
	return t.CookieName
}

// Extract returns the token carried by r, or "". A non-empty cookie wins over
// a bearer header.
func (t Transport) Extract(r *http.Request) string {
	if ck, err := r.Cookie(t.name()); err == nil && ck.Value != "" {
		return ck.Value
	}
	scheme, tok, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func (t Transport) Attach(w http.ResponseWriter, token string) {
	maxAge := t.MaxAge
	if maxAge <= 0 {
		maxAge = auth.SessionTTL
	}
	http.SetCookie(w, t.cookie(token, int(maxAge/time.Second)))
}

func (t Transport) Clear(w http.ResponseWriter) {
	ck := t.cookie("", -1) // Max-Age=0
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(w, ck)
}

func (t Transport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     t.name(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
