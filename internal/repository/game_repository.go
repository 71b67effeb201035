// Package repository contains data access logic separated from HTTP handlers.
// This file defines the game catalog queries.  Every read filters out
// soft-deleted rows; a soft delete never removes the row itself.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"encoding/json"
	"errors"

	"github.com/iliyamo/game-storefront/internal/model"
)

const gameColumns = "id, title, description, price, imageUrl, gameFileUrl, trailerUrl, screenshotsUrl, isDeleted"

// GameRepo encapsulates all database queries related to games.
type GameRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewGameRepo constructs a GameRepo with the provided DB handle.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

func scanGame(s rowScanner) (*model.Game, error) {
	var (
		g                                    model.Game
		imageURL, fileURL, trailerURL, shots sql.NullString
	)
	if err := s.Scan(&g.ID, &g.Title, &g.Description, &g.Price, &imageURL, &fileURL, &trailerURL, &shots, &g.IsDeleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	g.ImageURL, g.GameFileURL, g.TrailerURL = imageURL.String, fileURL.String, trailerURL.String
	g.Screenshots = decodeScreenshots(shots.String)
	return &g, nil
}

// decodeScreenshots turns the stored JSON text into a slice.  Empty or
// unreadable values decode to an empty list rather than failing the read.
func decodeScreenshots(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// Insert stores a new game and populates g.ID with the generated value.
func (r *GameRepo) Insert(ctx context.Context, g *model.Game) error {
	shots := g.Screenshots
	if shots == nil {
		shots = []string{}
	}
	encoded, err := json.Marshal(shots)
	if err != nil {
		return err
	}
	const q = `INSERT INTO games (title, description, price, imageUrl, gameFileUrl, trailerUrl, screenshotsUrl)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, g.Title, g.Description, g.Price, g.ImageURL, g.GameFileURL, g.TrailerURL, string(encoded))
	if err != nil {
		return err // propagate DB errors to the caller
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	g.Screenshots = shots
	return nil
}

// ListActive returns every game that has not been soft-deleted, ordered by id.
func (r *GameRepo) ListActive(ctx context.Context) ([]*model.Game, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+gameColumns+" FROM games WHERE isDeleted = FALSE ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindActive fetches a game by id.  Soft-deleted games are reported as
// ErrGameNotFound.
func (r *GameRepo) FindActive(ctx context.Context, id uint64) (*model.Game, error) {
	return scanGame(r.db.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE id = ? AND isDeleted = FALSE", id))
}

// MarkDeleted sets the soft-delete flag.  It returns ErrGameNotFound when no
// row was affected.
func (r *GameRepo) MarkDeleted(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE games SET isDeleted = TRUE WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}
