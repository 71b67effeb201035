package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/game-storefront/internal/service"
)

// Authenticator verifies a raw session token.  *service.IdentityService
// satisfies it.
type Authenticator interface {
    Authenticate(raw string) (service.Principal, error)
}

// Context keys set by the identity middlewares.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
    CtxToken  = "token"
)

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func BearerToken(c echo.Context) string {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(auth, "Bearer ") {
        return ""
    }
    return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// BearerAuth returns an Echo middleware that validates a Bearer token and
// injects the caller's id and role into the request context under
// CtxUserID (uint64) and CtxRole (string).  A missing token is answered with
// 401; a token that fails verification with invalidStatus, which lets
// endpoints keep their historical 401 or 403.
func BearerAuth(auth Authenticator, invalidStatus int) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := BearerToken(c)
            p, err := auth.Authenticate(raw)
            if err != nil {
                status := invalidStatus
                if service.KindOf(err) == service.KindUnauthenticated {
                    status = http.StatusUnauthorized
                }
                return abort(c, status, err)
            }
            c.Set(CtxUserID, p.UserID)
            c.Set(CtxRole, p.Role)
            c.Set(CtxToken, raw)
            return next(c)
        }
    }
}

// abort writes the standard error body for a service error.
func abort(c echo.Context, status int, err error) error {
    return c.JSON(status, echo.Map{
        "message": service.MessageOf(err),
        "kind":    service.KindOf(err),
    })
}
