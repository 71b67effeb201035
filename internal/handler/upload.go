package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/media"
    "github.com/iliyamo/game-storefront/internal/service"
)

// UploadHandler stores standalone images outside the create-game flow.
type UploadHandler struct {
    base
    Files *media.Store
}

func NewUploadHandler(files *media.Store, log logrus.FieldLogger) *UploadHandler {
    return &UploadHandler{base: base{log: log}, Files: files}
}

// Image stores the multipart part "image" under images/ and returns its URL.
func (h *UploadHandler) Image(c echo.Context) error {
    fh, err := c.FormFile(media.FieldImage)
    if err != nil {
        return h.fail(c, validationError("Please choose an image"), nil)
    }
    f, err := h.Files.Save(media.FieldImage, fh)
    if err != nil {
        return h.fail(c, &service.Error{Kind: service.KindInternal, Message: "Upload failed", Err: err}, nil)
    }
    return c.JSON(http.StatusOK, echo.Map{"imageUrl": f.URL})
}
