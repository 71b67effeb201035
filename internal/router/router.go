package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"      // status codes for the auth middlewares
	"path/filepath" // media folders live under the upload root
	"strings"       // prefix checks for the SPA skipper

	"github.com/google/uuid"               // request id generator
	"github.com/labstack/echo/v4"          // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/game-storefront/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/game-storefront/internal/metrics"    // Prometheus collectors and the /metrics handler
	"github.com/iliyamo/game-storefront/internal/middleware" // import middleware for token authentication and role enforcement
	"github.com/iliyamo/game-storefront/internal/model"
)

// Deps is everything New needs to assemble the HTTP server.
type Deps struct {
	Auth      *handler.AuthHandler
	Games     *handler.GameHandler
	Purchases *handler.PurchaseHandler
	Upload    *handler.UploadHandler

	Authenticator      middleware.Authenticator
	Cache              *middleware.ResponseCache // nil disables caching
	Log                logrus.FieldLogger
	TrustLegacyHeaders bool
	UploadRoot         string
	PublicDir          string
}

// New builds the Echo instance with the shared middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORS())

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth)
	RegisterCatalog(e, d.Games, d.Upload, d.Cache)
	RegisterPurchases(e, d.Purchases, d.Authenticator, d.TrustLegacyHeaders)
	RegisterAdmin(e, d.Purchases, d.Authenticator, d.TrustLegacyHeaders)
	RegisterStatic(e, d.UploadRoot, d.PublicDir)
	return e
}

// RegisterRoutes registers the liveness and metrics endpoints.  Neither
// requires authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/api/status", handler.Status)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the identity endpoints.  None of them sits behind
// an auth middleware: /api/user and /api/token/refresh verify the token
// themselves so they can answer with their own statuses.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/admin-login", a.AdminLogin)
	g.POST("/token/refresh", a.Refresh)
	g.GET("/user", a.WhoAmI)
	g.GET("/users", a.ListUsers)
}

// RegisterCatalog registers the game catalog and the standalone image upload.
// Game reads go through the response cache; writes purge it in the service.
func RegisterCatalog(e *echo.Echo, g *handler.GameHandler, u *handler.UploadHandler, cache *middleware.ResponseCache) {
	api := e.Group("/api")
	api.POST("/games", g.Create)
	api.GET("/games", g.List, cache.Middleware())
	api.GET("/games/:id", g.Get, cache.Middleware())
	api.DELETE("/games/:id", g.Delete)
	api.POST("/upload", u.Image)
}

// identity picks how the caller is identified: a verified bearer token, or
// the unauthenticated legacy headers when legacy is set.
func identity(auth middleware.Authenticator, legacy bool) echo.MiddlewareFunc {
	if legacy {
		return middleware.LegacyIdentity()
	}
	return middleware.BearerAuth(auth, http.StatusUnauthorized)
}

// RegisterPurchases registers the buyer endpoints.  Buying always requires a
// bearer token; the library listing follows the identity mode.
func RegisterPurchases(e *echo.Echo, p *handler.PurchaseHandler, auth middleware.Authenticator, legacy bool) {
	e.POST("/api/buy-game", p.Buy, middleware.BearerAuth(auth, http.StatusUnauthorized))
	e.GET("/api/my-games", p.MyGames, identity(auth, legacy))
}

// RegisterAdmin registers the admin purchase views under /api/admin.  The
// caller must carry the admin role.
func RegisterAdmin(e *echo.Echo, p *handler.PurchaseHandler, auth middleware.Authenticator, legacy bool) {
	g := e.Group(
		"/api/admin",
		identity(auth, legacy),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/games", p.AdminGames)
	g.GET("/purchased-games", p.AdminPurchases)
}

// RegisterStatic serves uploaded media and the single page app.  Unknown
// paths fall back to the app's index.html; API and media paths never do.
func RegisterStatic(e *echo.Echo, uploadRoot, publicDir string) {
	e.Static("/games", filepath.Join(uploadRoot, "games"))
	e.Static("/images", filepath.Join(uploadRoot, "images"))
	e.Static("/video", filepath.Join(uploadRoot, "video"))

	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  publicDir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			if p == "/api" || p == "/metrics" {
				return true
			}
			for _, prefix := range []string{"/api/", "/games/", "/images/", "/video/"} {
				if strings.HasPrefix(p, prefix) {
					return true
				}
			}
			return false
		},
	}))
}
