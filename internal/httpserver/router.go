package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/recommend_shop/internal/jwtmiddleware"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	loggingmw "github.com/Skotchmaster/recommend_shop/internal/middleware/logging"
)

type Deps struct {
	AuthHandler      *AuthHTTP
	RecommendHandler *RecommendHTTP
	Checks           map[string]Pinger

	JWTSecret []byte
	RateLimit float64
	RateBurst int
	Logger    *slog.Logger
}

// New builds an echo instance with the middleware chain and every route.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	l := d.Logger
	if l == nil {
		l = logging.Discard()
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(l),
		middleware.CORS(),
	)

	Register(e, d)
	return e
}

func authRateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	if limit <= 0 {
		limit = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", http.StatusTooManyRequests, "remote_ip", identifier)
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
		},
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", health)
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.Checks))

	if d.AuthHandler != nil {
		limited := authRateLimiter(d.RateLimit, d.RateBurst)

		auth := e.Group("/api/auth")
		auth.POST("/register", d.AuthHandler.Register)
		auth.POST("/login", d.AuthHandler.Login, limited)
		auth.POST("/refresh", d.AuthHandler.Refresh)
		auth.POST("/logout", d.AuthHandler.LogOut)
		auth.POST("/forgot-password", d.AuthHandler.ForgotPassword, limited)
		auth.POST("/reset-password", d.AuthHandler.ResetPassword, limited)
		auth.GET("/me", d.AuthHandler.Me, jwtmiddleware.JWTMiddleware(d.JWTSecret))
	}

	if d.RecommendHandler != nil {
		rec := e.Group("/api/recommendations")
		rec.GET("/similar/:productCode", d.RecommendHandler.Similar)
		rec.GET("/customer/:customerId", d.RecommendHandler.ForCustomer)
		rec.GET("/frequently-bought/:productCode", d.RecommendHandler.FrequentlyBought)
		rec.GET("/you-may-like/:customerId", d.RecommendHandler.YouMayLike)
		rec.GET("/search", d.RecommendHandler.Search)

		e.GET("/api/related/:productCode", d.RecommendHandler.Related)
		e.GET("/api/customers", d.RecommendHandler.Customers)
		e.GET("/api/customers/:customerId", d.RecommendHandler.Customer)
	}
}
