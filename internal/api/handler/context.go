package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reportcentral/console/internal/api/middleware"
	"github.com/reportcentral/console/internal/core/domain"
)

// ctxSession returns the authenticated session injected by the Session
// middleware. Guards normally reject anonymous requests first; this is the
// fast-fail for routes mounted without one.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() || sess.Profile == nil {
		return nil, domain.ErrUnauthorized
	}
	return sess, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}
