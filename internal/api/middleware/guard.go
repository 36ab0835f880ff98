package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/reportcentral/console/internal/api/metrics"
	"github.com/reportcentral/console/internal/core/policy"
)

type denial struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

// Guard evaluates the session's role against the route tag. Screens are
// redirected to the evaluator's target; API routes get 401 without a
// session and 403 otherwise, both carrying the target.
func Guard(tag policy.RouteTag) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := SessionFrom(c).Role()
			d := policy.Evaluate(role, tag)
			if d.Allowed {
				return next(c)
			}

			reason := "role"
			if role == nil {
				reason = "no_session"
			}
			metrics.GuardDenialsTotal.WithLabelValues(string(tag), reason).Inc()

			if !isAPI(c) {
				return c.Redirect(http.StatusFound, d.RedirectTo)
			}
			if role == nil {
				return c.JSON(http.StatusUnauthorized, denial{Error: "unauthorized", Redirect: d.RedirectTo})
			}
			return c.JSON(http.StatusForbidden, denial{Error: "forbidden", Redirect: d.RedirectTo})
		}
	}
}

func isAPI(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}
