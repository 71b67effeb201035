package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/middleware"
    "github.com/iliyamo/game-storefront/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for identity endpoints.
type AuthHandler struct {
    base
    Identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService, log logrus.FieldLogger) *AuthHandler {
    return &AuthHandler{base: base{log: log}, Identity: identity}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type adminLoginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}
type refreshReq struct {
    Token string `json:"token"`
}
type authResp struct {
    Message string `json:"message"`
    Token   string `json:"token"`
    UserID  uint64 `json:"userId"`
}
type adminLoginResp struct {
    Message  string `json:"message"`
    Token    string `json:"token"`
    UserID   uint64 `json:"userId"`
    Username string `json:"username"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
    Country  string `json:"country"`
    Gender   string `json:"gender"`
    IsAdmin  bool   `json:"isAdmin"`
}

// Per-endpoint statuses that differ from the defaults.
var (
    loginStatus      = map[service.Kind]int{service.KindNotFound: http.StatusBadRequest}
    adminLoginStatus = map[service.Kind]int{service.KindNotFound: http.StatusBadRequest}
)

// Register: create user and return a long-lived token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.RegisterInput
    if err := c.Bind(&req); err != nil {
        return h.fail(c, validationError("Invalid request body"), nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    res, err := h.Identity.Register(ctx, req)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusCreated, authResp{Message: "User registered", Token: res.Token, UserID: res.UserID})
}

// Login: verify the password and return the persisted or a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return h.fail(c, validationError("Invalid request body"), loginStatus)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    res, err := h.Identity.Login(ctx, req.Email, req.Password)
    if err != nil {
        return h.fail(c, err, loginStatus)
    }
    return c.JSON(http.StatusOK, authResp{Message: "Login successful", Token: res.Token, UserID: res.UserID})
}

// AdminLogin: authenticate an administrator by username.  A non-admin gets
// 403 with isAdmin=false.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
    var req adminLoginReq
    if err := c.Bind(&req); err != nil {
        return h.fail(c, validationError("Invalid request body"), adminLoginStatus)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    sess, err := h.Identity.AdminLogin(ctx, req.Username, req.Password)
    if err != nil {
        if service.KindOf(err) == service.KindForbidden {
            return c.JSON(http.StatusForbidden, echo.Map{
                "message": service.MessageOf(err),
                "kind":    service.KindForbidden,
                "isAdmin": false,
            })
        }
        return h.fail(c, err, adminLoginStatus)
    }
    p := sess.Profile
    return c.JSON(http.StatusOK, adminLoginResp{
        Message:  "Admin login successful",
        Token:    sess.Token,
        UserID:   p.ID,
        Username: p.Username,
        Email:    p.Email,
        Phone:    p.Phone,
        Country:  p.Country,
        Gender:   p.Gender,
        IsAdmin:  true,
    })
}

// Refresh: exchange the token in the body for a fresh short-lived one.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req) // a malformed body is treated as a missing token
    tok, err := h.Identity.RefreshToken(req.Token)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"token": tok})
}

// WhoAmI: profile and purchase history of the bearer token's owner.
func (h *AuthHandler) WhoAmI(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    me, err := h.Identity.WhoAmI(ctx, middleware.BearerToken(c))
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, me)
}

// ListUsers: public profile of every user.
func (h *AuthHandler) ListUsers(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    users, err := h.Identity.ListUsers(ctx)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, users)
}
