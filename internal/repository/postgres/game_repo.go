package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/holdfast/internal/model"
)

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

const gameColumns = `g.id, g.name, g.creator_id, g.status, g.winners, g.turn_duration, g.max_turns,
	g.victory_points, g.created_at, g.started_at, g.finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (model.Game, error) {
	var g model.Game
	var winners []string
	err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, pq.Array(&winners), &g.TurnDuration, &g.MaxTurns,
		&g.VictoryPoints, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	g.Winners = winners
	return g, err
}

func (r *GameRepo) queryGames(ctx context.Context, op, query string, args ...any) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Create inserts a new game in the waiting state.
func (r *GameRepo) Create(ctx context.Context, name, creatorID, turnDuration string, maxTurns, victoryPoints int) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`INSERT INTO games AS g (name, creator_id, turn_duration, max_turns, victory_points)
		 VALUES ($1, $2, $3::interval, $4, $5)
		 RETURNING `+gameColumns,
		name, creatorID, turnDuration, maxTurns, victoryPoints,
	))
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

// FindByID returns a game by ID with its players, or nil when it does not exist.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games g WHERE g.id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return &g, nil
}

// ListOpen returns games in "waiting" status.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.queryGames(ctx, "list open games",
		`SELECT `+gameColumns+` FROM games g WHERE g.status = 'waiting' ORDER BY g.created_at DESC LIMIT 50`)
}

// ListByUser returns all games a user is part of (as player or creator).
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	return r.queryGames(ctx, "list user games",
		`SELECT DISTINCT `+gameColumns+`
		 FROM games g LEFT JOIN game_players gp ON g.id = gp.game_id AND gp.user_id = $1
		 WHERE gp.user_id = $1 OR g.creator_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
}

// ListFinished returns finished games, most recent first.
func (r *GameRepo) ListFinished(ctx context.Context) ([]model.Game, error) {
	return r.queryGames(ctx, "list finished games",
		`SELECT `+gameColumns+` FROM games g WHERE g.status = 'finished' ORDER BY g.finished_at DESC LIMIT 100`)
}

// ListActive returns all active games, including their players.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	games, err := r.queryGames(ctx, "list active games",
		`SELECT `+gameColumns+` FROM games g WHERE g.status = 'active' ORDER BY g.created_at`)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

// JoinGame adds a player to a game. Joining twice is a no-op.
func (r *GameRepo) JoinGame(ctx context.Context, gameID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		gameID, userID,
	)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// ListPlayers returns all players in a game in join order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, color, joined_at FROM game_players WHERE game_id = $1 ORDER BY joined_at, user_id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		var color sql.NullString
		if err := rows.Scan(&p.GameID, &p.UserID, &color, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Color = color.String
		players = append(players, p)
	}
	return players, rows.Err()
}

// PlayerCount returns the number of seats taken in a game.
func (r *GameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_players WHERE game_id = $1`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("player count: %w", err)
	}
	return count, nil
}

// AssignColors records seat colors and moves the game to active in one transaction.
func (r *GameRepo) AssignColors(ctx context.Context, gameID string, colors map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for userID, color := range colors {
		_, err := tx.ExecContext(ctx,
			`UPDATE game_players SET color = $1 WHERE game_id = $2 AND user_id = $3`,
			color, gameID, userID,
		)
		if err != nil {
			return fmt.Errorf("assign color: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE games SET status = 'active', started_at = now() WHERE id = $1`, gameID,
	)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}

	return tx.Commit()
}

// Delete removes a game and all associated data (cascades to players, turns and intents).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
