package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/middleware"
    "github.com/iliyamo/game-storefront/internal/service"
)

// PurchaseHandler exposes the purchase ledger.  With LegacyHeaders set, the
// game_id and target_user_id filters may also come from request headers.
type PurchaseHandler struct {
    base
    Ledger        *service.PurchaseLedger
    LegacyHeaders bool
}

func NewPurchaseHandler(ledger *service.PurchaseLedger, legacyHeaders bool, log logrus.FieldLogger) *PurchaseHandler {
    return &PurchaseHandler{base: base{log: log}, Ledger: ledger, LegacyHeaders: legacyHeaders}
}

// flexID accepts a JSON number or a numeric string.  Anything else decodes
// to zero, which the ledger rejects as a missing id.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
    s := string(bytes.Trim(b, `"`))
    if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
        *f = flexID(n)
        return nil
    }
    var fl float64
    if err := json.Unmarshal(b, &fl); err == nil && fl > 0 && fl == float64(uint64(fl)) {
        *f = flexID(uint64(fl))
    }
    return nil
}

type buyReq struct {
    GameID flexID `json:"gameId"`
}

// Buy records a purchase for the bearer token's owner.
func (h *PurchaseHandler) Buy(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return h.fail(c, &service.Error{Kind: service.KindUnauthenticated, Message: "Token not provided"}, nil)
    }
    var req buyReq
    if err := c.Bind(&req); err != nil {
        return h.fail(c, validationError("Invalid request body"), nil)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    if err := h.Ledger.Purchase(ctx, uid, uint64(req.GameID)); err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Game purchased successfully"})
}

// MyGames lists the caller's purchases, optionally narrowed by game_id.
func (h *PurchaseHandler) MyGames(c echo.Context) error {
    uid, _ := getUserID(c) // zero is rejected by the ledger
    gameID, err := optionalID(c, middleware.HeaderGameID, h.LegacyHeaders)
    if err != nil {
        return h.fail(c, err, nil)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    lib, err := h.Ledger.ListForUser(ctx, uid, gameID)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, lib)
}

// AdminGames lists purchases across users, optionally for one target user.
func (h *PurchaseHandler) AdminGames(c echo.Context) error {
    target, err := optionalID(c, middleware.HeaderTargetUserID, h.LegacyHeaders)
    if err != nil {
        return h.fail(c, err, nil)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    rows, err := h.Ledger.ListForAdmin(ctx, target)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"games": rows})
}

// AdminPurchases lists every purchase with the buyer's username.
func (h *PurchaseHandler) AdminPurchases(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    rows, err := h.Ledger.ListAllPurchasesWithUsers(ctx)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"games": rows})
}
