package model

import "time"

// UnavailableImageURL is returned in place of a purchased game's cover when
// the game was created without one.
const UnavailableImageURL = "/images/unavailable_image.png"

// Purchase records that a user bought a game.  GameName is a copy of the
// title at purchase time.  At most one row exists per (UserID, GameID); the
// ledger checks this before inserting, the schema does not.
type Purchase struct {
    ID          uint64    // purchased_games.id
    UserID      uint64    // purchased_games.user_id
    GameID      uint64    // purchased_games.game_id
    GameName    string    // purchased_games.game_name
    PurchasedAt time.Time // purchased_games.purchase_date
}

// OwnedGame is one row of a user's library (GET /api/my-games).
type OwnedGame struct {
    GameID      uint64    `json:"game_id"`
    Title       string    `json:"title"`
    ImageURL    string    `json:"imageUrl"`
    PurchasedAt time.Time `json:"purchase_date"`
}

// AdminPurchase is one row of the admin purchase view (GET /api/admin/games).
type AdminPurchase struct {
    GameID      uint64    `json:"game_id"`
    GameName    string    `json:"game_name"`
    PurchasedAt time.Time `json:"purchase_date"`
    UserID      uint64    `json:"user_id"`
}

// PurchaseWithUser joins a purchase with its game and buyer
// (GET /api/admin/purchased-games).
type PurchaseWithUser struct {
    GameID      uint64    `json:"game_id"`
    Name        string    `json:"name"`
    Price       float64   `json:"price"`
    Username    string    `json:"username"`
    PurchasedAt time.Time `json:"purchase_date"`
}

// PurchaseHistoryEntry is one purchase in the "who am I" view.
type PurchaseHistoryEntry struct {
    GameID      uint64    `json:"game_id"`
    Title       string    `json:"title"`
    PurchasedAt time.Time `json:"purchase_date"`
}
