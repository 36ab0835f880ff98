package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/reportcentral/console/docs"
	"github.com/reportcentral/console/internal/api/handler"
	"github.com/reportcentral/console/internal/api/middleware"
	"github.com/reportcentral/console/internal/core/policy"
	"github.com/reportcentral/console/internal/core/ports"
)

// RouterConfig carries the fully built dependencies of the HTTP surface.
type RouterConfig struct {
	Log         zerolog.Logger
	AuthService ports.AuthService
	UserService ports.UserService
	Sessions    ports.SessionStore
	Cookies     *middleware.SessionCookie
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check
	// Metrics receives the HTTP collectors; nil means the default registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Metrics != nil {
		registerer, gatherer = cfg.Metrics, cfg.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: registerer,
	}))

	// --- Health probes, metrics and docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	session := middleware.Session(cfg.Sessions, cfg.Cookies, cfg.Log)

	// --- Screens ---
	screenHandler := handler.NewScreenHandler()
	screens := e.Group("", session)
	for _, s := range policy.Screens {
		screens.GET(s.Path, screenHandler.Serve(s), middleware.Guard(s.Tag))
	}

	api := e.Group("/api", session)
	api.GET("/screens", screenHandler.Index)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Cookies)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	signedIn := middleware.Guard(policy.TagUnrestricted)
	api.GET("/auth/me", authHandler.Me, signedIn)
	api.POST("/auth/change-password", authHandler.ChangePassword, signedIn)

	// --- User administration ---
	userHandler := handler.NewUserHandler(cfg.UserService)
	adminOrModerator := middleware.Guard(policy.TagAdminOrModerator)
	adminOnly := middleware.Guard(policy.TagAdminOnly)

	users := api.Group("/users")
	users.GET("", userHandler.List, adminOrModerator)
	users.GET("/form", userHandler.Form, adminOrModerator)
	users.GET("/:id", userHandler.Get, adminOrModerator)
	users.GET("/:id/history", userHandler.History, adminOrModerator)
	users.POST("", userHandler.Create, adminOnly)
	users.PUT("/:id", userHandler.Update, adminOrModerator)
	users.POST("/:id/delete-confirmation", userHandler.RequestDelete, adminOnly)
	users.DELETE("/:id", userHandler.Delete, adminOnly)

	api.GET("/organizations", userHandler.Organizations, adminOrModerator)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
