package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reportcentral/console/internal/api/middleware"
	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

// SessionCookies writes and expires the browser's session cookie.
type SessionCookies interface {
	Write(c echo.Context, id string) error
	Expire(c echo.Context)
}

type AuthHandler struct {
	authService ports.AuthService
	cookies     SessionCookies
}

func NewAuthHandler(authService ports.AuthService, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type authResponse struct {
	User                  *domain.User `json:"user"`
	RequirePasswordChange bool         `json:"require_password_change,omitempty"`
}

// Login authenticates against the backend and opens a console session. The
// backend token stays server-side; the browser only receives the signed
// session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, res, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if err := h.cookies.Write(c, sess.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{User: res.User, RequirePasswordChange: res.RequirePasswordChange})
}

// Logout clears the session. It succeeds without a session too.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if err := h.authService.Logout(c.Request().Context(), sess.ID); err != nil {
		return err
	}
	h.cookies.Expire(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the refreshed profile of the signed-in user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Me(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

// ChangePassword changes the signed-in user's password.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Passwords"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.ChangePassword(c.Request().Context(), sess, ports.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}
