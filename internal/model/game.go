package model

// Game represents a catalog entry in the `games` table.  Media fields hold
// public URLs produced by the media store (e.g. /images/1700000000000-cover.png);
// optional media are empty strings.  Screenshots are persisted as a JSON array
// in games.screenshotsUrl and decoded into a slice by the repository.
//
// A game with IsDeleted set is invisible to every read path; the row itself
// is never removed.
type Game struct {
    ID          uint64   `json:"id"`             // games.id
    Title       string   `json:"title"`          // games.title
    Description string   `json:"description"`    // games.description
    Price       float64  `json:"price"`          // games.price DECIMAL(10,2)
    ImageURL    string   `json:"imageUrl"`       // games.imageUrl
    GameFileURL string   `json:"gameFileUrl"`    // games.gameFileUrl
    TrailerURL  string   `json:"trailerUrl"`     // games.trailerUrl
    Screenshots []string `json:"screenshotsUrl"` // games.screenshotsUrl (JSON text)
    IsDeleted   bool     `json:"isDeleted"`      // games.isDeleted
}
