package handler // handler defines http handlers

import (
    "errors"   // errors provides sentinel values used in getUserID
    "net/http" // status codes for the error mapping
    "strconv"  // strconv converts strings to numeric types
    "strings"  // strings provides trimming helpers

    "github.com/labstack/echo/v4" // echo defines request context types
    "github.com/sirupsen/logrus"  // structured logging of internal failures

    "github.com/iliyamo/game-storefront/internal/middleware"
    "github.com/iliyamo/game-storefront/internal/service"
)

// kindStatus is the default HTTP status of each service error kind.
// Endpoints with a historical status pass overrides to respondError.
var kindStatus = map[service.Kind]int{
    service.KindValidation:      http.StatusBadRequest,
    service.KindConflict:        http.StatusBadRequest,
    service.KindNotFound:        http.StatusNotFound,
    service.KindAuth:            http.StatusBadRequest,
    service.KindInvalidToken:    http.StatusForbidden,
    service.KindUnauthenticated: http.StatusUnauthorized,
    service.KindForbidden:       http.StatusForbidden,
    service.KindInternal:        http.StatusInternalServerError,
}

// statusFor resolves the status for kind, consulting overrides first.
func statusFor(kind service.Kind, overrides map[service.Kind]int) int {
    if s, ok := overrides[kind]; ok {
        return s
    }
    if s, ok := kindStatus[kind]; ok {
        return s
    }
    return http.StatusInternalServerError
}

// base carries what every handler needs to report failures.
type base struct {
    log logrus.FieldLogger
}

// fail writes {"message", "kind"} for err.  Internal failures are logged
// with their cause; the client only sees the generic message.
func (b base) fail(c echo.Context, err error, overrides map[service.Kind]int) error {
    kind := service.KindOf(err)
    if kind == service.KindInternal {
        b.log.WithError(err).WithFields(logrus.Fields{
            "method":     c.Request().Method,
            "route":      c.Path(),
            "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
        }).Error("request failed")
    }
    return c.JSON(statusFor(kind, overrides), echo.Map{
        "message": service.MessageOf(err),
        "kind":    kind,
    })
}

// validationError builds a KindValidation error for request parsing failures.
func validationError(msg string) error {
    return &service.Error{Kind: service.KindValidation, Message: msg}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get(middleware.CtxUserID)
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// parseID parses a positive decimal id.
func parseID(raw string) (uint64, bool) {
    n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// optionalID reads an id from the query parameter name, falling back to the
// request header of the same name when legacy is set.  An absent value
// yields nil; a malformed one is an error.
func optionalID(c echo.Context, name string, legacy bool) (*uint64, error) {
    raw := c.QueryParam(name)
    if raw == "" && legacy {
        raw = c.Request().Header.Get(name)
    }
    if raw == "" {
        return nil, nil
    }
    id, ok := parseID(raw)
    if !ok {
        return nil, validationError("Invalid " + name)
    }
    return &id, nil
}
