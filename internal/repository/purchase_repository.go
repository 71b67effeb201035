package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/game-storefront/internal/model"
)

// PurchaseRepo persists rows of the `purchased_games` table and answers the
// ownership queries.  All listings join games and drop soft-deleted ones.
type PurchaseRepo struct{ db *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Exists reports whether userID already bought gameID.
func (r *PurchaseRepo) Exists(ctx context.Context, userID, gameID uint64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM purchased_games WHERE user_id = ? AND game_id = ?",
		userID, gameID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert records a purchase and populates p.ID.
func (r *PurchaseRepo) Insert(ctx context.Context, p *model.Purchase) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO purchased_games (user_id, game_id, game_name, purchase_date) VALUES (?, ?, ?, ?)",
		p.UserID, p.GameID, p.GameName, p.PurchasedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// DeleteByGame removes every purchase of gameID and returns how many rows went.
func (r *PurchaseRepo) DeleteByGame(ctx context.Context, gameID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM purchased_games WHERE game_id = ?", gameID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListForUser returns the user's purchases of active games, optionally
// narrowed to one game.  Games without a cover get the placeholder image.
func (r *PurchaseRepo) ListForUser(ctx context.Context, userID uint64, gameID *uint64) ([]model.OwnedGame, error) {
	q := `SELECT p.game_id, g.title, COALESCE(NULLIF(g.imageUrl, ''), ?) AS imageUrl, p.purchase_date
	      FROM purchased_games p
	      JOIN games g ON p.game_id = g.id
	      WHERE p.user_id = ? AND g.isDeleted = FALSE`
	args := []any{model.UnavailableImageURL, userID}
	if gameID != nil {
		q += " AND p.game_id = ?"
		args = append(args, *gameID)
	}
	q += " ORDER BY p.purchase_date"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.OwnedGame, 0)
	for rows.Next() {
		var g model.OwnedGame
		if err := rows.Scan(&g.GameID, &g.Title, &g.ImageURL, &g.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListForAdmin returns purchases of active games across all users, or of a
// single user when userID is set.
func (r *PurchaseRepo) ListForAdmin(ctx context.Context, userID *uint64) ([]model.AdminPurchase, error) {
	q := `SELECT p.game_id, g.title AS game_name, p.purchase_date, p.user_id
	      FROM purchased_games p
	      JOIN games g ON p.game_id = g.id
	      WHERE g.isDeleted = FALSE`
	var args []any
	if userID != nil {
		q += " AND p.user_id = ?"
		args = append(args, *userID)
	}
	q += " ORDER BY p.purchase_date"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AdminPurchase, 0)
	for rows.Next() {
		var p model.AdminPurchase
		if err := rows.Scan(&p.GameID, &p.GameName, &p.PurchasedAt, &p.UserID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListWithUsers returns every purchase of an active game joined with the
// game's title and price and the buyer's username.
func (r *PurchaseRepo) ListWithUsers(ctx context.Context) ([]model.PurchaseWithUser, error) {
	const q = `SELECT g.id AS game_id, g.title AS name, g.price, u.username, pg.purchase_date
	           FROM purchased_games pg
	           JOIN games g ON pg.game_id = g.id
	           JOIN users u ON pg.user_id = u.user_id
	           WHERE g.isDeleted = FALSE
	           ORDER BY pg.purchase_date`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PurchaseWithUser, 0)
	for rows.Next() {
		var p model.PurchaseWithUser
		if err := rows.Scan(&p.GameID, &p.Name, &p.Price, &p.Username, &p.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
