package middleware

// identity.go holds the compatibility path for clients that identify
// themselves through request headers instead of a token.  It is only wired
// when TRUST_LEGACY_HEADERS is set; the headers are not authenticated.

import (
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-storefront/internal/model"
)

// Legacy request headers.
const (
    HeaderUserID       = "user_id"
    HeaderIsAdmin      = "is_admin"
    HeaderGameID       = "game_id"
    HeaderTargetUserID = "target_user_id"
)

// LegacyIdentity copies the caller's identity from the user_id and is_admin
// headers into the context keys BearerAuth would set.  A missing or
// non-numeric user_id leaves CtxUserID unset; is_admin must be "true".
func LegacyIdentity() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            h := c.Request().Header
            if id, err := strconv.ParseUint(strings.TrimSpace(h.Get(HeaderUserID)), 10, 64); err == nil && id > 0 {
                c.Set(CtxUserID, id)
            }
            role := ""
            if strings.EqualFold(strings.TrimSpace(h.Get(HeaderIsAdmin)), "true") {
                role = model.RoleAdmin
            }
            c.Set(CtxRole, role)
            return next(c)
        }
    }
}
