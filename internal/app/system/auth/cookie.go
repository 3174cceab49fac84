package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieCodec writes the access token into a signed cookie and reads it
// back from a request.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	name   string
	domain string
	secure bool
}

// NewCookieCodec signs cookies with hashKey (HMAC only, no encryption;
// the token is already signed and carries nothing secret).
func NewCookieCodec(hashKey []byte, name, domain string, secure bool) *CookieCodec {
	return &CookieCodec{
		sc:     securecookie.New(hashKey, nil),
		name:   name,
		domain: domain,
		secure: secure,
	}
}

// Set stores token in the auth cookie until expires.
func (c *CookieCodec) Set(w http.ResponseWriter, token string, expires time.Time) error {
	encoded, err := c.sc.Encode(c.name, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the auth cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token extracts the access token: a raw JWT in the auth cookie first, then
// a signed cookie value, then an Authorization: Bearer header.
func (c *CookieCodec) Token(r *http.Request) (string, bool) {
	if ck, err := r.Cookie(c.name); err == nil && ck.Value != "" {
		if looksLikeJWT(ck.Value) {
			return ck.Value, true
		}
		var tok string
		if err := c.sc.Decode(c.name, ck.Value, &tok); err == nil && tok != "" {
			return tok, true
		}
	}
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), true
		}
	}
	return "", false
}

func looksLikeJWT(s string) bool {
	return strings.Count(s, ".") == 2 && !strings.ContainsAny(s, " |")
}
