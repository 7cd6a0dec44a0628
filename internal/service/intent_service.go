package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/repository"
	"github.com/freeeve/holdfast/pkg/conquest"
)

// Intent kinds accepted from clients.
const (
	IntentMove    = "move"
	IntentUpgrade = "upgrade"
	IntentReady   = "ready"
)

// IntentInput is the client-facing intent format.
type IntentInput struct {
	Type        string   `json:"type"`                  // move, upgrade, ready
	Units       []string `json:"units,omitempty"`       // move
	Destination string   `json:"destination,omitempty"` // move; empty cancels
	Territory   string   `json:"territory,omitempty"`   // upgrade
	Upgrade     string   `json:"upgrade,omitempty"`     // upgrade; empty or "none" clears
}

// IntentResult reports the state of the turn after an accepted intent.
type IntentResult struct {
	Turn         int    `json:"turn"`
	Description  string `json:"description"`
	ReadyCount   int    `json:"ready_count"`
	TotalPlayers int    `json:"total_players"`
	AllReady     bool   `json:"all_ready"`
}

// IntentService validates player intents against the live snapshot and
// records the accepted ones.
type IntentService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	cache    repository.SnapshotCache
	locks    *GameLocks
}

// NewIntentService creates an IntentService. locks must be shared with the
// TurnService of the same process.
func NewIntentService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.SnapshotCache, locks *GameLocks) *IntentService {
	return &IntentService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache, locks: locks}
}

// SubmitIntent applies one intent from userID to the game's current turn.
func (s *IntentService) SubmitIntent(ctx context.Context, gameID, userID string, in IntentInput) (*IntentResult, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		return nil, ErrGameNotActive
	}
	if !isSeated(game, userID) {
		return nil, ErrNotInGame
	}

	intent, err := toIntent(userID, in)
	if err != nil {
		return nil, err
	}

	mu := s.locks.For(gameID)
	mu.Lock()
	defer mu.Unlock()

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrGameNotActive
	}
	gm, err := loadSnapshot(ctx, s.cache, gameID, turn)
	if err != nil {
		return nil, err
	}

	if err := checkOwnership(gm, conquest.ID(userID), intent); err != nil {
		return nil, err
	}
	if err := conquest.ApplyIntent(gm, intent); err != nil {
		if errors.Is(err, conquest.ErrUnknownID) {
			return nil, fmt.Errorf("%w: %w", ErrUnknownEntity, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}

	snapshot, err := json.Marshal(gm)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.cache.SetSnapshot(ctx, gameID, snapshot); err != nil {
		return nil, fmt.Errorf("set snapshot: %w", err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal intent: %w", err)
	}
	if err := s.turnRepo.RecordIntent(ctx, model.IntentRecord{
		TurnID:  turn.ID,
		UserID:  userID,
		Kind:    in.Type,
		Payload: payload,
	}); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to record intent")
	}

	ready, total := readyCounts(gm)
	log.Info().Str("gameId", gameID).Str("userId", userID).Int("turn", gm.Turn).
		Str("intent", intent.Describe()).Int("ready", ready).Int("total", total).
		Msg("Intent accepted")

	return &IntentResult{
		Turn:         gm.Turn,
		Description:  intent.Describe(),
		ReadyCount:   ready,
		TotalPlayers: total,
		AllReady:     ready == total,
	}, nil
}

func isSeated(game *model.Game, userID string) bool {
	for _, p := range game.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// toIntent converts client input to an engine intent. Ready intents always
// name the submitting user.
func toIntent(userID string, in IntentInput) (conquest.Intent, error) {
	switch in.Type {
	case IntentMove:
		units := make([]conquest.ID, len(in.Units))
		for i, u := range in.Units {
			units[i] = conquest.ID(u)
		}
		return conquest.MoveIntent{Units: units, Destination: conquest.ID(in.Destination)}, nil
	case IntentUpgrade:
		action, ok := conquest.ParseUpgradeAction(in.Upgrade)
		if !ok {
			return nil, fmt.Errorf("%w: unknown upgrade %q", ErrInvalidIntent, in.Upgrade)
		}
		return conquest.UpgradeIntent{Territory: conquest.ID(in.Territory), Upgrade: action}, nil
	case IntentReady:
		return conquest.ReadyIntent{Player: conquest.ID(userID)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown intent type %q", ErrInvalidIntent, in.Type)
	}
}

// checkOwnership rejects intents that touch another player's pieces. Ids
// that do not resolve are left to the engine's validation.
func checkOwnership(gm *conquest.GameMap, player conquest.ID, in conquest.Intent) error {
	switch in := in.(type) {
	case conquest.MoveIntent:
		for _, uid := range in.Units {
			if u := gm.Unit(uid); u != nil && u.Owner != player {
				return fmt.Errorf("%w: %s", ErrNotYourUnit, uid)
			}
		}
	case conquest.UpgradeIntent:
		if t := gm.Territory(in.Territory); t != nil && t.Controller != player {
			return fmt.Errorf("%w: %s", ErrNotYourTerritory, in.Territory)
		}
	}
	return nil
}
