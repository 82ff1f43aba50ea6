// Package api exposes the HTTP JSON surface: signup/login/logout under
// /users and the authenticated resources under /api/v1.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/barsea/schedpoint/internal/metrics"
	"github.com/barsea/schedpoint/internal/middleware"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/service"
)

// Pinger is satisfied by the store; /healthz uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface composes.
type Deps struct {
	Auth       *service.AuthService
	Blocks     *service.TimeBlockService
	Categories *service.CategoryService
	Health     Pinger
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
}

// Options tune the HTTP surface.
type Options struct {
	// AllowOrigin is the single allowed CORS origin ("*" for any).
	AllowOrigin string
	// Location renders block times.
	Location *time.Location
	// LoginRate and LoginBurst throttle sign-in attempts per client IP.
	LoginRate  rate.Limit
	LoginBurst int
	// TrustedProxies are the ranges whose X-Forwarded-For is believed. With
	// none, the client IP is the connection's remote address.
	TrustedProxies []*net.IPNet
}

// Server is the echo application.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	loc    *time.Location
	logger *slog.Logger
}

// New builds the echo application and registers every route.
func New(deps Deps, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.IPExtractor = ipExtractor(opts.TrustedProxies)

	s := &Server{echo: e, deps: deps, loc: opts.Location, logger: deps.Logger}
	e.HTTPErrorHandler = s.handleHTTPError

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	if deps.Metrics != nil {
		e.Use(middleware.Metrics(deps.Metrics))
	}
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  []string{opts.AllowOrigin},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{echo.HeaderAuthorization},
	}))

	s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) {
	e := s.echo
	gate := middleware.RequireAuth(s.deps.Auth)

	e.GET("/healthz", s.healthz)
	if s.deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	users := e.Group("/users")
	users.POST("", s.signup)
	users.POST("/sign_in", s.login, loginLimiter(opts), middleware.OptionalAuth(s.deps.Auth))
	users.DELETE("/sign_out", s.logout, middleware.OptionalAuth(s.deps.Auth))

	v1 := e.Group("/api/v1", gate)
	v1.GET("/categories", s.listCategories)

	plans := v1.Group("/plans")
	plans.GET("", s.listBlocks(models.KindPlan))
	plans.POST("", s.createBlock(models.KindPlan))
	plans.GET("/:id", s.showBlock(models.KindPlan))
	plans.PUT("/:id", s.updateBlock(models.KindPlan))
	plans.PATCH("/:id", s.updateBlock(models.KindPlan))
	plans.DELETE("/:id", s.destroyBlock(models.KindPlan))

	actuals := v1.Group("/actuals")
	actuals.GET("", s.listBlocks(models.KindActual))
	actuals.POST("", s.createBlock(models.KindActual))
	actuals.PUT("/:id", s.updateBlock(models.KindActual))
	actuals.PATCH("/:id", s.updateBlock(models.KindActual))
	actuals.DELETE("/:id", s.destroyBlock(models.KindActual))
}

func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func loginLimiter(opts Options) echo.MiddlewareFunc {
	if opts.LoginRate <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := opts.LoginBurst
	if burst <= 0 {
		burst = 1
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      opts.LoginRate,
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"status":  http.StatusTooManyRequests,
				"message": "Too many sign-in attempts. Try again later.",
			})
		},
	})
}

func (s *Server) healthz(c echo.Context) error {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(c.Request().Context()); err != nil {
			s.logger.Error("Health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ServeHTTP lets the server be mounted in httptest and other handlers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves HTTP/1.1 and cleartext HTTP/2 on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server starting", "address", addr)
	err := s.echo.StartH2CServer(addr, &http2.Server{})
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
