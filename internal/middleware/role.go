package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/game-storefront/internal/service"
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller has one of the specified roles.  It assumes BearerAuth
// or LegacyIdentity already stored the role in the context under CtxRole.
// A caller without a user id, or with another role, is rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    denied := &service.Error{Kind: service.KindForbidden, Message: "Access denied"}
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, _ := c.Get(CtxUserID).(uint64)
            role, ok := c.Get(CtxRole).(string)
            if uid == 0 || !ok || !allowed[role] {
                return abort(c, http.StatusForbidden, denied)
            }
            return next(c)
        }
    }
}
