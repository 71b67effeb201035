package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-storefront/internal/model"
)

const userColumns = "user_id, username, email, password, role, phone, country, gender, token, created_at"

// UserRepo is the credential store backed by the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u                            model.User
		role, phone, country, gender sql.NullString
		token                        sql.NullString
		createdAt                    sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &phone, &country, &gender, &token, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role, u.Phone, u.Country, u.Gender = role.String, phone.String, country.String, gender.String
	if token.Valid {
		t := token.String
		u.Token = &t
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	return &u, nil
}

// FindByEmail returns the first user registered with email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? ORDER BY user_id LIMIT 1", email))
}

// FindByUsername returns the first user with username.  Usernames are not
// unique, so the oldest row wins.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? ORDER BY user_id LIMIT 1", username))
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = ? LIMIT 1", id))
}

// Insert stores u and returns the generated id.  u.Password must already be hashed.
func (r *UserRepo) Insert(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password, role, phone, country, gender) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.Email, u.Password, u.Role, u.Phone, u.Country, u.Gender)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// UpdateToken overwrites the persisted session token of a user.
func (r *UserRepo) UpdateToken(ctx context.Context, id uint64, token string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET token = ? WHERE user_id = ?", token, id)
	return err
}

// ListAll returns the public profile of every user ordered by id.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, username, email, phone, country, gender FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.UserProfile, 0)
	for rows.Next() {
		var (
			p                      model.UserProfile
			phone, country, gender sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &phone, &country, &gender); err != nil {
			return nil, err
		}
		p.Phone, p.Country, p.Gender = phone.String, country.String, gender.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasRole reports whether at least one user carries role (ignoring
// surrounding whitespace).
func (r *UserRepo) HasRole(ctx context.Context, role string) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE TRIM(role) = ?", role).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindWithPurchases loads a user's profile and purchase history in one
// left-joined query.  A user without purchases yields an empty history;
// purchases of soft-deleted games are skipped.
func (r *UserRepo) FindWithPurchases(ctx context.Context, id uint64) (*model.UserProfile, []model.PurchaseHistoryEntry, error) {
	const q = `SELECT u.user_id, u.username, u.email, u.phone, u.country, u.gender,
	                  g.id, g.title, pg.purchase_date
	           FROM users u
	           LEFT JOIN purchased_games pg ON pg.user_id = u.user_id
	           LEFT JOIN games g ON g.id = pg.game_id AND g.isDeleted = FALSE
	           WHERE u.user_id = ?
	           ORDER BY pg.purchase_date`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var profile *model.UserProfile
	history := make([]model.PurchaseHistoryEntry, 0)
	for rows.Next() {
		var (
			p                      model.UserProfile
			phone, country, gender sql.NullString
			gameID                 sql.NullInt64
			title                  sql.NullString
			purchasedAt            sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &phone, &country, &gender, &gameID, &title, &purchasedAt); err != nil {
			return nil, nil, err
		}
		if profile == nil {
			p.Phone, p.Country, p.Gender = phone.String, country.String, gender.String
			profile = &p
		}
		if !gameID.Valid {
			continue
		}
		entry := model.PurchaseHistoryEntry{GameID: uint64(gameID.Int64), Title: title.String}
		if purchasedAt.Valid {
			entry.PurchasedAt = purchasedAt.Time
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, ErrUserNotFound
	}
	return profile, history, nil
}
