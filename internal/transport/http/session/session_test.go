package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tr := Transport{}
	cases := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"none", "", "", ""},
		{"cookie", "abc", "", "abc"},
		{"bearer", "", "Bearer xyz", "xyz"},
		{"bearer lower case", "", "bearer xyz", "xyz"},
		{"cookie wins", "abc", "Bearer xyz", "abc"},
		{"empty cookie falls back", "", "Bearer xyz", "xyz"},
		{"basic scheme ignored", "", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "", "Bearer", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "token", Value: tc.cookie})
			}
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, tr.Extract(r))
		})
	}
}

func TestExtract_CustomCookieName(t *testing.T) {
	tr := Transport{CookieName: "sid"}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "ignored"})
	assert.Equal(t, "", tr.Extract(r))
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	assert.Equal(t, "abc", tr.Extract(r))
}

func TestAttach(t *testing.T) {
	w := httptest.NewRecorder()
	Transport{Secure: true}.Attach(w, "tok")

	h := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(h, "token=tok"))
	assert.Contains(t, h, "Path=/")
	assert.Contains(t, h, "Max-Age=604800")
	assert.Contains(t, h, "HttpOnly")
	assert.Contains(t, h, "Secure")
	assert.Contains(t, h, "SameSite=Lax")

	cks := w.Result().Cookies()
	require.Len(t, cks, 1)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cks[0].MaxAge)
}

func TestAttach_NotSecureInDev(t *testing.T) {
	w := httptest.NewRecorder()
	Transport{}.Attach(w, "tok")
	assert.NotContains(t, w.Header().Get("Set-Cookie"), "Secure")
}

func TestClear(t *testing.T) {
	w := httptest.NewRecorder()
	Transport{}.Clear(w)

	h := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(h, "token=;"))
	assert.Contains(t, h, "Max-Age=0")
	assert.Contains(t, h, "HttpOnly")
	assert.Contains(t, h, "Path=/")
}
