package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/holdfast/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and seat data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, turnDuration string, maxTurns, victoryPoints int) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) error
	ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error)
	PlayerCount(ctx context.Context, gameID string) (int, error)
	// AssignColors records each seat's color and marks the game active.
	AssignColors(ctx context.Context, gameID string, colors map[string]string) error
	Delete(ctx context.Context, gameID string) error
}

// TurnRepository defines turn history and intent log operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, number int, snapshot json.RawMessage, deadline time.Time) (*model.Turn, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error)
	FindTurn(ctx context.Context, gameID string, number int) (*model.Turn, error)
	ListTurns(ctx context.Context, gameID string) ([]model.Turn, error)
	// AdvanceTurn atomically closes a turn with its final pre-resolution
	// snapshot, resolved map and report, and opens the next one.
	AdvanceTurn(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, nextNumber int, deadline time.Time) (*model.Turn, error)
	// FinishGame atomically closes the final turn and marks the game finished.
	FinishGame(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, winners []string) error
	RecordIntent(ctx context.Context, rec model.IntentRecord) error
	IntentsByTurn(ctx context.Context, turnID string) ([]model.IntentRecord, error)
	// ListExpired returns the open turn of every active game whose deadline has passed.
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// SnapshotCache holds the live snapshot and turn timer of active games (Redis).
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, gameID string, snapshot json.RawMessage) error
	GetSnapshot(ctx context.Context, gameID string) (json.RawMessage, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	DeleteSnapshot(ctx context.Context, gameID string) error
}
