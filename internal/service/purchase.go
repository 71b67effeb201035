package service

import (
    "context"
    "errors"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/metrics"
    "github.com/iliyamo/game-storefront/internal/model"
    "github.com/iliyamo/game-storefront/internal/queue"
    "github.com/iliyamo/game-storefront/internal/repository"
)

// PurchaseStore persists purchase rows.  *repository.PurchaseRepo satisfies it.
type PurchaseStore interface {
    Exists(ctx context.Context, userID, gameID uint64) (bool, error)
    Insert(ctx context.Context, p *model.Purchase) error
    DeleteByGame(ctx context.Context, gameID uint64) (int64, error)
    ListForUser(ctx context.Context, userID uint64, gameID *uint64) ([]model.OwnedGame, error)
    ListForAdmin(ctx context.Context, userID *uint64) ([]model.AdminPurchase, error)
    ListWithUsers(ctx context.Context) ([]model.PurchaseWithUser, error)
}

// EventPublisher hands purchase events to the broker.  Publish must not
// block; it reports false when the event was dropped.
type EventPublisher interface {
    Publish(ev queue.PurchaseRecordedEvent) bool
}

// Library is a user's purchase list.
type Library struct {
    Games       []model.OwnedGame `json:"games"`
    IsPurchased bool              `json:"isPurchased"`
}

// PurchaseLedger records and lists purchases.
type PurchaseLedger struct {
    games     GameStore
    purchases PurchaseStore
    events    EventPublisher // may be nil
    log       logrus.FieldLogger
    now       func() time.Time
}

func NewPurchaseLedger(games GameStore, purchases PurchaseStore, events EventPublisher, log logrus.FieldLogger) *PurchaseLedger {
    return &PurchaseLedger{games: games, purchases: purchases, events: events, log: log, now: time.Now}
}

// Purchase records that userID bought gameID.  The ownership check and the
// insert are separate statements; concurrent identical requests may both
// insert.
func (l *PurchaseLedger) Purchase(ctx context.Context, userID, gameID uint64) error {
    if userID == 0 {
        return newError(KindUnauthenticated, "Authentication required")
    }
    if gameID == 0 {
        return newError(KindValidation, "Game ID is required")
    }

    g, err := l.games.FindActive(ctx, gameID)
    if err != nil {
        if errors.Is(err, repository.ErrGameNotFound) {
            return newError(KindNotFound, "Game not found")
        }
        return internalError(err, "Purchase failed")
    }
    owned, err := l.purchases.Exists(ctx, userID, gameID)
    if err != nil {
        return internalError(err, "Purchase failed")
    }
    if owned {
        return newError(KindConflict, "You have already purchased this game")
    }

    p := &model.Purchase{UserID: userID, GameID: gameID, GameName: g.Title, PurchasedAt: l.now().UTC()}
    if err := l.purchases.Insert(ctx, p); err != nil {
        return internalError(err, "Purchase failed")
    }
    metrics.Purchases.Inc()
    l.log.WithFields(logrus.Fields{"user_id": userID, "game_id": gameID}).Info("purchase recorded")

    if l.events != nil {
        ev := queue.PurchaseRecordedEvent{
            PurchaseID:  p.ID,
            UserID:      userID,
            GameID:      gameID,
            GameTitle:   g.Title,
            Price:       g.Price,
            PurchasedAt: p.PurchasedAt.Format(time.RFC3339),
        }
        if !l.events.Publish(ev) {
            metrics.EventsDropped.Inc()
            l.log.WithFields(logrus.Fields{"purchase_id": p.ID}).Warn("purchase event dropped")
        }
    }
    return nil
}

// ListForUser returns the user's purchases of active games, optionally
// narrowed to one game.
func (l *PurchaseLedger) ListForUser(ctx context.Context, userID uint64, gameID *uint64) (Library, error) {
    if userID == 0 {
        return Library{}, newError(KindValidation, "User ID is required")
    }
    games, err := l.purchases.ListForUser(ctx, userID, gameID)
    if err != nil {
        return Library{}, internalError(err, "Failed to load purchases")
    }
    return Library{Games: games, IsPurchased: len(games) > 0}, nil
}

// ListForAdmin returns purchases across users, or of targetUserID when set.
func (l *PurchaseLedger) ListForAdmin(ctx context.Context, targetUserID *uint64) ([]model.AdminPurchase, error) {
    rows, err := l.purchases.ListForAdmin(ctx, targetUserID)
    if err != nil {
        return nil, internalError(err, "Failed to load purchases")
    }
    return rows, nil
}

// ListAllPurchasesWithUsers returns every purchase of an active game with
// the buyer's username.
func (l *PurchaseLedger) ListAllPurchasesWithUsers(ctx context.Context) ([]model.PurchaseWithUser, error) {
    rows, err := l.purchases.ListWithUsers(ctx)
    if err != nil {
        return nil, internalError(err, "Failed to load purchases")
    }
    return rows, nil
}
