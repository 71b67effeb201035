package router

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/game-storefront/internal/model"
	"github.com/iliyamo/game-storefront/internal/repository"
)

// memDB is an in-memory stand-in for the three MySQL tables, with the same
// not-found and soft-delete semantics as the repositories.
type memDB struct {
	mu        sync.Mutex
	users     []model.User
	games     map[uint64]model.Game
	purchases []model.Purchase
	nextGame  uint64
	nextBuy   uint64
}

func newMemDB() *memDB { return &memDB{games: map[uint64]model.Game{}} }

type memUsers struct{ db *memDB }
type memGames struct{ db *memDB }
type memPurchases struct{ db *memDB }

func (m memUsers) find(match func(model.User) bool) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email })
}

func (m memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == username })
}

func (m memUsers) Insert(_ context.Context, u *model.User) (uint64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u.ID = uint64(len(m.db.users) + 1)
	m.db.users = append(m.db.users, *u)
	return u.ID, nil
}

func (m memUsers) UpdateToken(_ context.Context, id uint64, token string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i := range m.db.users {
		if m.db.users[i].ID == id {
			t := token
			m.db.users[i].Token = &t
		}
	}
	return nil
}

func (m memUsers) ListAll(context.Context) ([]model.UserProfile, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]model.UserProfile, 0, len(m.db.users))
	for _, u := range m.db.users {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (m memUsers) HasRole(_ context.Context, role string) (bool, error) {
	_, err := m.find(func(u model.User) bool { return strings.TrimSpace(u.Role) == role })
	return err == nil, nil
}

func (m memUsers) FindWithPurchases(_ context.Context, id uint64) (*model.UserProfile, []model.PurchaseHistoryEntry, error) {
	u, err := m.find(func(u model.User) bool { return u.ID == id })
	if err != nil {
		return nil, nil, err
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	history := make([]model.PurchaseHistoryEntry, 0)
	for _, p := range m.db.purchases {
		g, ok := m.db.games[p.GameID]
		if p.UserID == id && ok && !g.IsDeleted {
			history = append(history, model.PurchaseHistoryEntry{GameID: g.ID, Title: g.Title, PurchasedAt: p.PurchasedAt})
		}
	}
	profile := u.Profile()
	return &profile, history, nil
}

func (m memGames) Insert(_ context.Context, g *model.Game) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.nextGame++
	g.ID = m.db.nextGame
	if g.Screenshots == nil {
		g.Screenshots = []string{}
	}
	m.db.games[g.ID] = *g
	return nil
}

func (m memGames) ListActive(context.Context) ([]*model.Game, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]*model.Game, 0)
	for _, g := range m.db.games {
		if !g.IsDeleted {
			g := g
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memGames) FindActive(_ context.Context, id uint64) (*model.Game, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	g, ok := m.db.games[id]
	if !ok || g.IsDeleted {
		return nil, repository.ErrGameNotFound
	}
	return &g, nil
}

func (m memGames) MarkDeleted(_ context.Context, id uint64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	g, ok := m.db.games[id]
	if !ok || g.IsDeleted {
		return repository.ErrGameNotFound
	}
	g.IsDeleted = true
	m.db.games[id] = g
	return nil
}

func (m memPurchases) Exists(_ context.Context, userID, gameID uint64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, p := range m.db.purchases {
		if p.UserID == userID && p.GameID == gameID {
			return true, nil
		}
	}
	return false, nil
}

func (m memPurchases) Insert(_ context.Context, p *model.Purchase) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.nextBuy++
	p.ID = m.db.nextBuy
	m.db.purchases = append(m.db.purchases, *p)
	return nil
}

func (m memPurchases) DeleteByGame(_ context.Context, gameID uint64) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	kept := m.db.purchases[:0]
	var n int64
	for _, p := range m.db.purchases {
		if p.GameID == gameID {
			n++
			continue
		}
		kept = append(kept, p)
	}
	m.db.purchases = kept
	return n, nil
}

// active yields purchases whose game is still listed.
func (m memPurchases) active(fn func(model.Purchase, model.Game)) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, p := range m.db.purchases {
		if g, ok := m.db.games[p.GameID]; ok && !g.IsDeleted {
			fn(p, g)
		}
	}
}

func (m memPurchases) ListForUser(_ context.Context, userID uint64, gameID *uint64) ([]model.OwnedGame, error) {
	out := make([]model.OwnedGame, 0)
	m.active(func(p model.Purchase, g model.Game) {
		if p.UserID != userID || (gameID != nil && p.GameID != *gameID) {
			return
		}
		img := g.ImageURL
		if img == "" {
			img = model.UnavailableImageURL
		}
		out = append(out, model.OwnedGame{GameID: g.ID, Title: g.Title, ImageURL: img, PurchasedAt: p.PurchasedAt})
	})
	return out, nil
}

func (m memPurchases) ListForAdmin(_ context.Context, userID *uint64) ([]model.AdminPurchase, error) {
	out := make([]model.AdminPurchase, 0)
	m.active(func(p model.Purchase, g model.Game) {
		if userID == nil || p.UserID == *userID {
			out = append(out, model.AdminPurchase{GameID: g.ID, GameName: g.Title, PurchasedAt: p.PurchasedAt, UserID: p.UserID})
		}
	})
	return out, nil
}

func (m memPurchases) ListWithUsers(_ context.Context) ([]model.PurchaseWithUser, error) {
	names := map[uint64]string{}
	m.db.mu.Lock()
	for _, u := range m.db.users {
		names[u.ID] = u.Username
	}
	m.db.mu.Unlock()

	out := make([]model.PurchaseWithUser, 0)
	m.active(func(p model.Purchase, g model.Game) {
		out = append(out, model.PurchaseWithUser{GameID: g.ID, Name: g.Title, Price: g.Price, Username: names[p.UserID], PurchasedAt: p.PurchasedAt})
	})
	return out, nil
}
