package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/policy"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error       string `json:"error"`
	ForceLogout bool   `json:"force_logout,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain and backend errors to their HTTP status codes.
//   - Turns a forced logout into a 401 carrying the login redirect.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var fl *domain.ForceLogoutError
	if errors.As(err, &fl) {
		return http.StatusUnauthorized, errorResponse{
			Error:       fl.Error(),
			ForceLogout: true,
			Redirect:    policy.LoginPath + "?reason=" + url.QueryEscape(fl.Reason),
		}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Message}
	}

	var ae *domain.APIError
	if errors.As(err, &ae) {
		if ae.Status >= 500 {
			log.Warn().Int("backend_status", ae.Status).Str("path", c.Path()).Msg(ae.Error())
			return http.StatusBadGateway, errorResponse{Error: ae.Error()}
		}
		return ae.Status, errorResponse{Error: ae.Error()}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required", Redirect: policy.LoginPath}
	case errors.Is(err, domain.ErrSelfDelete):
		return http.StatusForbidden, errorResponse{Error: domain.ErrSelfDelete.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, errorResponse{Error: domain.ErrConfirmationRequired.Error()}
	case errors.Is(err, domain.ErrNetwork):
		log.Warn().Err(err).Str("path", c.Path()).Msg("directory unreachable")
		return http.StatusServiceUnavailable, errorResponse{Error: domain.ErrNetwork.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
