package service

import (
    "context"

    "github.com/pkg/errors"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/model"
    "github.com/iliyamo/game-storefront/internal/utils"
)

// Seed values for the administrator created on first boot.
const (
    bootstrapAdminUsername = "admin"
    bootstrapAdminEmail    = "admin@example.com"
    bootstrapAdminPhone    = "1234567890"
    bootstrapAdminCountry  = "DefaultCountry"
    bootstrapAdminGender   = "male"
)

// EnsureAdmin creates an administrator when none exists.  The generated
// password is logged once and never stored in clear.
func EnsureAdmin(ctx context.Context, users UserStore, cost int, log logrus.FieldLogger) error {
    exists, err := users.HasRole(ctx, model.RoleAdmin)
    if err != nil {
        return errors.Wrap(err, "check admin")
    }
    if exists {
        log.Info("administrator already exists")
        return nil
    }

    password, err := utils.RandomHex(8)
    if err != nil {
        return errors.Wrap(err, "generate admin password")
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return errors.Wrap(err, "hash admin password")
    }
    id, err := users.Insert(ctx, &model.User{
        Username: bootstrapAdminUsername,
        Email:    bootstrapAdminEmail,
        Password: hash,
        Role:     model.RoleAdmin,
        Phone:    bootstrapAdminPhone,
        Country:  bootstrapAdminCountry,
        Gender:   bootstrapAdminGender,
    })
    if err != nil {
        return errors.Wrap(err, "insert admin")
    }
    log.WithFields(logrus.Fields{
        "user_id":  id,
        "username": bootstrapAdminUsername,
        "password": password,
    }).Warn("administrator created")
    return nil
}
