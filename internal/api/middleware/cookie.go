package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// CookieName is the name of the session cookie.
const CookieName = "console_session"

// SessionCookie signs (and, with a block key, encrypts) the session id
// carried by the browser.
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	secure bool
	ttl    time.Duration
}

// NewSessionCookie builds the codec. The hash key must be at least 32 bytes;
// the block key, when set, must be 16, 24 or 32 bytes.
func NewSessionCookie(hashKey, blockKey []byte, secure bool, ttl time.Duration) (*SessionCookie, error) {
	if len(hashKey) < 32 {
		return nil, errors.New("session hash key must be at least 32 bytes")
	}
	if n := len(blockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, errors.New("session block key must be 16, 24 or 32 bytes")
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(ttl.Seconds()))
	return &SessionCookie{codec: codec, secure: secure, ttl: ttl}, nil
}

// Read returns the session id, or "" when the cookie is missing or forged.
func (s *SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	var id string
	if err := s.codec.Decode(CookieName, ck.Value, &id); err != nil {
		return ""
	}
	return id
}

// Write sets the cookie for id.
func (s *SessionCookie) Write(c echo.Context, id string) error {
	value, err := s.codec.Encode(CookieName, id)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Expire removes the cookie from the browser.
func (s *SessionCookie) Expire(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
