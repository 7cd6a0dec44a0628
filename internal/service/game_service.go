package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/config"
	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/repository"
	"github.com/freeeve/holdfast/pkg/conquest"
)

// CreateGameInput carries the optional settings of a new game. Zero values
// fall back to the server defaults.
type CreateGameInput struct {
	Name          string `json:"name"`
	TurnDuration  string `json:"turn_duration,omitempty"` // Go duration, e.g. "12h"
	MaxTurns      *int   `json:"max_turns,omitempty"`
	VictoryPoints *int   `json:"victory_points,omitempty"`
}

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	cache    repository.SnapshotCache
	defaults config.GameDefaults
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.SnapshotCache, defaults config.GameDefaults) *GameService {
	return &GameService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache, defaults: defaults}
}

// CreateGame creates a new game in "waiting" status with the creator seated.
func (s *GameService) CreateGame(ctx context.Context, creatorID string, in CreateGameInput) (*model.Game, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSettings)
	}
	maxTurns := s.defaults.MaxTurns
	if in.MaxTurns != nil {
		maxTurns = *in.MaxTurns
	}
	points := s.defaults.VictoryPoints
	if in.VictoryPoints != nil {
		points = *in.VictoryPoints
	}
	if maxTurns < 0 || points < 0 {
		return nil, fmt.Errorf("%w: limits must not be negative", ErrInvalidSettings)
	}
	if maxTurns == 0 && points == 0 {
		return nil, fmt.Errorf("%w: a game needs a turn limit or a point threshold", ErrInvalidSettings)
	}
	turnDur := toPgInterval(in.TurnDuration, toPgInterval(s.defaults.TurnDuration.String(), "24 hours"))

	game, err := s.gameRepo.Create(ctx, name, creatorID, turnDur, maxTurns, points)
	if err != nil {
		return nil, err
	}
	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID); err != nil {
		return nil, err
	}
	log.Info().Str("gameId", game.ID).Str("creatorId", creatorID).Str("turnDuration", turnDur).Msg("Game created")
	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame seats a user in a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != model.StatusWaiting {
		return ErrGameNotWaiting
	}
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}
	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= conquest.MaxPlayers {
		return ErrGameFull
	}
	return s.gameRepo.JoinGame(ctx, gameID, userID)
}

// StartGame builds the starting map, assigns colors, opens turn 0 and arms
// its timer. Only the creator may start, and only with enough players.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.StatusWaiting {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) < conquest.MinPlayers {
		return nil, ErrNotEnough
	}

	// Map player ids are user ids, seated in join order.
	players := make([]conquest.ID, len(game.Players))
	colors := make(map[string]string, len(game.Players))
	for i, p := range game.Players {
		players[i] = conquest.ID(p.UserID)
		colors[p.UserID] = conquest.PlayerColor(i)
	}
	gm, err := conquest.NewScenario(gameID, players)
	if err != nil {
		return nil, fmt.Errorf("build scenario: %w", err)
	}
	snapshot, err := json.Marshal(gm)
	if err != nil {
		return nil, fmt.Errorf("marshal initial snapshot: %w", err)
	}

	if err := s.gameRepo.AssignColors(ctx, gameID, colors); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, gm.Turn, snapshot, deadline); err != nil {
		return nil, err
	}
	if err := s.cache.SetSnapshot(ctx, gameID, snapshot); err != nil {
		return nil, fmt.Errorf("set snapshot: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return nil, fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", gameID).Int("players", len(players)).Time("deadline", deadline).Msg("Game started")
	return s.gameRepo.FindByID(ctx, gameID)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns games by filter: "my" (the user's games), "finished",
// or anything else for open games.
func (s *GameService) ListGames(ctx context.Context, userID, filter string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	case "finished":
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// DeleteGame removes a game that has not started. Only the creator may delete.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	if game.Status != model.StatusWaiting {
		return ErrGameNotWaiting
	}
	return s.gameRepo.Delete(ctx, gameID)
}
