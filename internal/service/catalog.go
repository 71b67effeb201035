package service

import (
    "context"
    "errors"
    "math"
    "mime/multipart"
    "strconv"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/media"
    "github.com/iliyamo/game-storefront/internal/metrics"
    "github.com/iliyamo/game-storefront/internal/model"
    "github.com/iliyamo/game-storefront/internal/repository"
)

// GameStore persists catalog entries.  *repository.GameRepo satisfies it.
type GameStore interface {
    Insert(ctx context.Context, g *model.Game) error
    ListActive(ctx context.Context) ([]*model.Game, error)
    FindActive(ctx context.Context, id uint64) (*model.Game, error)
    MarkDeleted(ctx context.Context, id uint64) error
}

// MediaStore writes uploaded files.  *media.Store satisfies it.
type MediaStore interface {
    Save(field string, fh *multipart.FileHeader) (media.StoredFile, error)
    SaveAll(field string, files []*multipart.FileHeader) ([]string, error)
}

// CachePurger drops cached catalog responses.
type CachePurger interface {
    Purge(ctx context.Context) error
}

// MaxScreenshots bounds the screenshots accepted per game.
const MaxScreenshots = 5

// NewGame is the create-game form.  Price arrives as text and must parse as
// a non-negative number.  GameFile is required; the other files are not.
type NewGame struct {
    Title       string
    Description string
    Price       string
    GameFile    *multipart.FileHeader
    Image       *multipart.FileHeader
    Trailer     *multipart.FileHeader
    Screenshots []*multipart.FileHeader
}

// CatalogService manages the game catalog.
type CatalogService struct {
    games     GameStore
    purchases PurchaseStore
    files     MediaStore
    cache     CachePurger // may be nil
    log       logrus.FieldLogger
}

func NewCatalogService(games GameStore, purchases PurchaseStore, files MediaStore, cache CachePurger, log logrus.FieldLogger) *CatalogService {
    return &CatalogService{games: games, purchases: purchases, files: files, cache: cache, log: log}
}

func parsePrice(raw string) (float64, bool) {
    p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
    if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
        return 0, false
    }
    return p, true
}

// CreateGame validates the form, stores its files and inserts the game.
// Files are written only after validation passed.
func (s *CatalogService) CreateGame(ctx context.Context, in NewGame) (*model.Game, error) {
    if blank(in.Title, in.Description, in.Price) || in.GameFile == nil {
        return nil, newError(KindValidation, "Title, description, price and game file are required")
    }
    price, ok := parsePrice(in.Price)
    if !ok {
        return nil, newError(KindValidation, "Price must be a non-negative number")
    }
    if len(in.Screenshots) > MaxScreenshots {
        return nil, newError(KindValidation, "At most 5 screenshots are allowed")
    }

    g := &model.Game{Title: in.Title, Description: in.Description, Price: price}

    f, err := s.files.Save(media.FieldGameFile, in.GameFile)
    if err != nil {
        return nil, internalError(err, "Failed to store game file")
    }
    g.GameFileURL = f.URL
    if in.Image != nil {
        if f, err = s.files.Save(media.FieldImage, in.Image); err != nil {
            return nil, internalError(err, "Failed to store image")
        }
        g.ImageURL = f.URL
    }
    if in.Trailer != nil {
        if f, err = s.files.Save(media.FieldTrailer, in.Trailer); err != nil {
            return nil, internalError(err, "Failed to store trailer")
        }
        g.TrailerURL = f.URL
    }
    if g.Screenshots, err = s.files.SaveAll(media.FieldScreenshots, in.Screenshots); err != nil {
        return nil, internalError(err, "Failed to store screenshots")
    }

    if err := s.games.Insert(ctx, g); err != nil {
        return nil, internalError(err, "Failed to add game")
    }
    s.purge(ctx)
    s.log.WithFields(logrus.Fields{"game_id": g.ID, "title": g.Title}).Info("game created")
    return g, nil
}

// ListActive returns every game that is not soft-deleted.
func (s *CatalogService) ListActive(ctx context.Context) ([]*model.Game, error) {
    games, err := s.games.ListActive(ctx)
    if err != nil {
        return nil, internalError(err, "Failed to load games")
    }
    return games, nil
}

// GetByID returns an active game or KindNotFound.
func (s *CatalogService) GetByID(ctx context.Context, id uint64) (*model.Game, error) {
    g, err := s.games.FindActive(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrGameNotFound) {
            return nil, newError(KindNotFound, "Game not found")
        }
        return nil, internalError(err, "Failed to load game")
    }
    return g, nil
}

// SoftDelete removes every purchase of the game, then flags the game as
// deleted.  The two steps are not wrapped in a transaction.
func (s *CatalogService) SoftDelete(ctx context.Context, id uint64) error {
    removed, err := s.purchases.DeleteByGame(ctx, id)
    if err != nil {
        return internalError(err, "Failed to delete purchases")
    }
    if err := s.games.MarkDeleted(ctx, id); err != nil {
        if errors.Is(err, repository.ErrGameNotFound) {
            return newError(KindNotFound, "Game not found")
        }
        return internalError(err, "Failed to delete game")
    }
    s.purge(ctx)
    metrics.GamesDeleted.Inc()
    s.log.WithFields(logrus.Fields{"game_id": id, "purchases_removed": removed}).Info("game deleted")
    return nil
}

func (s *CatalogService) purge(ctx context.Context) {
    if s.cache == nil {
        return
    }
    if err := s.cache.Purge(ctx); err != nil {
        s.log.WithError(err).Warn("catalog cache purge failed")
    }
}
