package middleware

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

const sessionKey = "session"

// SessionFrom returns the session resolved by the Session middleware. It is
// never nil once the middleware ran; an anonymous visitor gets an empty
// session.
func SessionFrom(c echo.Context) *domain.Session {
	if s, ok := c.Get(sessionKey).(*domain.Session); ok {
		return s
	}
	return &domain.Session{}
}

// Session resolves the session cookie and injects the stored session into
// the context. A session whose token has expired is cleared and treated as
// anonymous. It never denies on its own; Guard does.
func Session(store ports.SessionStore, cookies *SessionCookie, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := &domain.Session{}

			if id := cookies.Read(c.Request()); id != "" {
				ctx := c.Request().Context()
				loaded, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				sess = loaded

				if sess.Authenticated() && tokenExpired(sess.Token, time.Now()) {
					log.Info().Str("session_id", id).Msg("session token expired")
					sess.Clear()
					if err := store.Clear(context.WithoutCancel(ctx), id); err != nil {
						log.Warn().Err(err).Str("session_id", id).Msg("failed to clear expired session")
					}
				}
			}

			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// tokenExpired inspects the exp claim without verifying the signature; the
// backend owns the key. Opaque tokens and tokens without exp never expire
// here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
