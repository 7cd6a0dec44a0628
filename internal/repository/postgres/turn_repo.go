package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/freeeve/holdfast/internal/model"
)

// TurnRepo handles turn history and intent log database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

const turnColumns = `t.id, t.game_id, t.number, t.snapshot, t.resolved, t.report, t.deadline, t.resolved_at, t.created_at`

func scanTurn(row rowScanner) (model.Turn, error) {
	var t model.Turn
	var resolved, report sql.NullString
	err := row.Scan(&t.ID, &t.GameID, &t.Number, &t.Snapshot, &resolved, &report, &t.Deadline, &t.ResolvedAt, &t.CreatedAt)
	if resolved.Valid {
		t.Resolved = json.RawMessage(resolved.String)
	}
	if report.Valid {
		t.Report = json.RawMessage(report.String)
	}
	return t, err
}

func (r *TurnRepo) queryTurns(ctx context.Context, op, query string, args ...any) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// CreateTurn inserts the opening snapshot of a new turn.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, number int, snapshot json.RawMessage, deadline time.Time) (*model.Turn, error) {
	t, err := scanTurn(r.db.QueryRowContext(ctx,
		`INSERT INTO turns AS t (game_id, number, snapshot, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+turnColumns,
		gameID, number, snapshot, deadline,
	))
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the latest unresolved turn for a game, or nil.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	t, err := scanTurn(r.db.QueryRowContext(ctx,
		`SELECT `+turnColumns+` FROM turns t
		 WHERE t.game_id = $1 AND t.resolved_at IS NULL
		 ORDER BY t.number DESC LIMIT 1`, gameID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current turn: %w", err)
	}
	return &t, nil
}

// FindTurn returns a turn by number, or nil.
func (r *TurnRepo) FindTurn(ctx context.Context, gameID string, number int) (*model.Turn, error) {
	t, err := scanTurn(r.db.QueryRowContext(ctx,
		`SELECT `+turnColumns+` FROM turns t WHERE t.game_id = $1 AND t.number = $2`, gameID, number,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find turn: %w", err)
	}
	return &t, nil
}

// ListTurns returns all turns for a game in order.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.Turn, error) {
	return r.queryTurns(ctx, "list turns",
		`SELECT `+turnColumns+` FROM turns t WHERE t.game_id = $1 ORDER BY t.number`, gameID)
}

func resolveTurnTx(ctx context.Context, tx *sql.Tx, turnID string, snapshot, resolved, report json.RawMessage) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE turns SET snapshot = $1, resolved = $2, report = $3, resolved_at = now()
		 WHERE id = $4 AND resolved_at IS NULL`,
		snapshot, resolved, report, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolve turn %s: already resolved or missing", turnID)
	}
	return nil
}

// AdvanceTurn closes a turn, storing the snapshot it was resolved from, the
// resolved map and the report, and opens the next turn from the resolved map.
// Both writes commit together.
func (r *TurnRepo) AdvanceTurn(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, nextNumber int, deadline time.Time) (*model.Turn, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := resolveTurnTx(ctx, tx, turnID, snapshot, resolved, report); err != nil {
		return nil, err
	}
	t, err := scanTurn(tx.QueryRowContext(ctx,
		`INSERT INTO turns AS t (game_id, number, snapshot, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+turnColumns,
		gameID, nextNumber, resolved, deadline,
	))
	if err != nil {
		return nil, fmt.Errorf("create next turn: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &t, nil
}

// FinishGame closes the final turn and marks its game finished with the given
// winners in one transaction.
func (r *TurnRepo) FinishGame(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, winners []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := resolveTurnTx(ctx, tx, turnID, snapshot, resolved, report); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winners = $1, finished_at = now() WHERE id = $2`,
		pq.Array(winners), gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return tx.Commit()
}

// RecordIntent appends an accepted intent to the turn's log.
func (r *TurnRepo) RecordIntent(ctx context.Context, rec model.IntentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO intents (turn_id, user_id, kind, payload) VALUES ($1, $2, $3, $4)`,
		rec.TurnID, rec.UserID, rec.Kind, rec.Payload,
	)
	if err != nil {
		return fmt.Errorf("record intent: %w", err)
	}
	return nil
}

// IntentsByTurn returns a turn's intents in submission order.
func (r *TurnRepo) IntentsByTurn(ctx context.Context, turnID string) ([]model.IntentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, turn_id, user_id, kind, payload, created_at
		 FROM intents WHERE turn_id = $1 ORDER BY created_at, id`, turnID,
	)
	if err != nil {
		return nil, fmt.Errorf("intents by turn: %w", err)
	}
	defer rows.Close()

	var intents []model.IntentRecord
	for rows.Next() {
		var rec model.IntentRecord
		if err := rows.Scan(&rec.ID, &rec.TurnID, &rec.UserID, &rec.Kind, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		intents = append(intents, rec)
	}
	return intents, rows.Err()
}

// ListExpired returns the latest unresolved turn per active game whose deadline has passed.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.Turn, error) {
	return r.queryTurns(ctx, "list expired turns",
		`SELECT DISTINCT ON (t.game_id) `+turnColumns+`
		 FROM turns t
		 JOIN games g ON g.id = t.game_id
		 WHERE t.resolved_at IS NULL AND t.deadline < now() AND g.status = 'active'
		 ORDER BY t.game_id, t.number DESC`)
}
