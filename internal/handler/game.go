package handler

import (
    "context"
    "mime/multipart"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/media"
    "github.com/iliyamo/game-storefront/internal/service"
)

// GameHandler exposes the catalog.
type GameHandler struct {
    base
    Catalog *service.CatalogService
}

func NewGameHandler(catalog *service.CatalogService, log logrus.FieldLogger) *GameHandler {
    return &GameHandler{base: base{log: log}, Catalog: catalog}
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
    if form == nil || len(form.File[field]) == 0 {
        return nil
    }
    return form.File[field][0]
}

func formValue(form *multipart.Form, field string) string {
    if form == nil || len(form.Value[field]) == 0 {
        return ""
    }
    return form.Value[field][0]
}

// Create accepts a multipart form with title, description and price fields
// and the files gameFile (required), image, trailer and screenshots.
func (h *GameHandler) Create(c echo.Context) error {
    form, err := c.MultipartForm()
    if err != nil {
        form = nil // a non-multipart body fails validation below
    }
    in := service.NewGame{
        Title:       formValue(form, "title"),
        Description: formValue(form, "description"),
        Price:       formValue(form, "price"),
        GameFile:    firstFile(form, media.FieldGameFile),
        Image:       firstFile(form, media.FieldImage),
        Trailer:     firstFile(form, media.FieldTrailer),
    }
    if form != nil {
        in.Screenshots = form.File[media.FieldScreenshots]
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    g, err := h.Catalog.CreateGame(ctx, in)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusCreated, g)
}

// List returns every active game.
func (h *GameHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    games, err := h.Catalog.ListActive(ctx)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, games)
}

// Get returns one active game.
func (h *GameHandler) Get(c echo.Context) error {
    id, ok := parseID(c.Param("id"))
    if !ok {
        return h.fail(c, validationError("Invalid game id"), nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    g, err := h.Catalog.GetByID(ctx, id)
    if err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, g)
}

// Delete soft-deletes a game and removes its purchases.
func (h *GameHandler) Delete(c echo.Context) error {
    id, ok := parseID(c.Param("id"))
    if !ok {
        return h.fail(c, validationError("Invalid game id"), nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()
    if err := h.Catalog.SoftDelete(ctx, id); err != nil {
        return h.fail(c, err, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Game deleted"})
}
