package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reportcentral/console/internal/api/middleware"
	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/policy"
)

// ScreenHandler answers a guarded navigation with the screen's descriptor.
// The browser shell renders the screen; the console only decides whether it
// may be shown.
type ScreenHandler struct{}

func NewScreenHandler() *ScreenHandler {
	return &ScreenHandler{}
}

type screenResponse struct {
	Screen string          `json:"screen"`
	Title  string          `json:"title"`
	Tag    policy.RouteTag `json:"tag"`
	User   *domain.User    `json:"user,omitempty"`
}

// Serve returns the handler for one route-table entry.
func (h *ScreenHandler) Serve(s policy.Screen) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := screenResponse{Screen: s.Path, Title: s.Title, Tag: s.Tag}
		if sess := middleware.SessionFrom(c); sess.Authenticated() {
			resp.User = sess.Profile
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// Index lists the screens the current session may open.
//
// @Summary      Navigable screens
// @Tags         screens
// @Produce      json
// @Success      200  {array}  policy.Screen
// @Router       /api/screens [get]
func (h *ScreenHandler) Index(c echo.Context) error {
	role := middleware.SessionFrom(c).Role()
	out := make([]policy.Screen, 0, len(policy.Screens))
	for _, s := range policy.Screens {
		if policy.Evaluate(role, s.Tag).Allowed {
			out = append(out, s)
		}
	}
	return c.JSON(http.StatusOK, out)
}
