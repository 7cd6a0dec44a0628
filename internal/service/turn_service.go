package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/repository"
	"github.com/freeeve/holdfast/internal/telemetry"
	"github.com/freeeve/holdfast/pkg/conquest"
)

// TurnView is a turn as served to clients.
type TurnView struct {
	Number     int                    `json:"number"`
	Deadline   time.Time              `json:"deadline"`
	ResolvedAt *time.Time             `json:"resolved_at,omitempty"`
	Report     json.RawMessage        `json:"report,omitempty"`
	Intents    []model.IntentRecord   `json:"intents,omitempty"`
	Standings  []conquest.PlayerStats `json:"standings,omitempty"`
}

// TurnService drives the turn loop: resolution at deadlines or when every
// player is ready, game end, and recovery after a restart.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.SnapshotCache
	broadcaster Broadcaster
	locks       *GameLocks
	tracer      trace.Tracer
}

// NewTurnService creates a TurnService.
func NewTurnService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.SnapshotCache,
	broadcaster Broadcaster,
	locks *GameLocks,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TurnService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		cache:       cache,
		broadcaster: broadcaster,
		locks:       locks,
		tracer:      telemetry.Tracer("github.com/freeeve/holdfast/internal/service"),
	}
}

// RecoverActiveGames rehydrates the cache for all active games from Postgres.
// Called on server startup to restore timers and snapshots lost during a restart.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		turn, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if turn == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		// Keep a cached snapshot of the same turn; it carries intents queued
		// before the restart.
		cached, err := s.cache.GetSnapshot(ctx, game.ID)
		if err != nil || cached == nil {
			if err := s.cache.SetSnapshot(ctx, game.ID, turn.Snapshot); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore snapshot")
				continue
			}
		}

		if time.Now().Before(turn.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, turn.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		log.Info().Str("gameId", game.ID).Int("turn", turn.Number).
			Time("deadline", turn.Deadline).Msg("Recovered game")
	}
	return nil
}

// ResolveTurn resolves the current turn if its deadline has passed.
func (s *TurnService) ResolveTurn(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, false)
}

// ResolveTurnEarly resolves the current turn regardless of its deadline,
// provided every player is still ready once the lock is held.
func (s *TurnService) ResolveTurnEarly(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, true)
}

func (s *TurnService) resolveTurnInternal(ctx context.Context, gameID string, early bool) error {
	mu := s.locks.For(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get current turn: %w", err)
	}
	if turn == nil {
		return ErrTurnNotFound
	}
	if !early && time.Now().Before(turn.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", turn.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}

	gm, err := loadSnapshot(ctx, s.cache, gameID, turn)
	if err != nil {
		return err
	}
	if early {
		if ready, total := readyCounts(gm); ready < total {
			log.Debug().Str("gameId", gameID).Int("ready", ready).Int("total", total).Msg("Not every player is ready, skipping early resolution")
			return nil
		}
	}

	ctx, span := s.tracer.Start(ctx, "turn.resolve", trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.Int("turn.number", turn.Number),
		attribute.Bool("turn.early", early),
	))
	defer span.End()

	if err := s.advance(ctx, game, turn, gm); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// resolution is a resolved turn ready to be persisted.
type resolution struct {
	turn                      *model.Turn
	next                      *conquest.GameMap
	report                    *conquest.TurnReport
	before, after, reportJSON json.RawMessage
}

// advance resolves gm and either ends the game or opens the next turn. The
// history row and its successor are written in one transaction, so a failed
// write leaves the current turn open for the next timer.
func (s *TurnService) advance(ctx context.Context, game *model.Game, turn *model.Turn, gm *conquest.GameMap) error {
	start := time.Now()
	next, report := conquest.ResolveTurn(gm)

	log.Info().Str("gameId", game.ID).Int("turn", turn.Number).
		Int("moves", len(report.Moves)).Int("combats", len(report.Combats)).
		Int("captures", len(report.Captures)).Int("loops", report.LoopCount).
		Dur("elapsed", time.Since(start)).
		Msg("Turn resolved")

	res := resolution{turn: turn, next: next, report: report}
	var err error
	if res.before, err = json.Marshal(gm); err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if res.reportJSON, err = json.Marshal(report); err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	gameOver := len(next.ActivePlayers()) <= 1 || (game.MaxTurns > 0 && next.Turn >= game.MaxTurns)
	leaders := conquest.VictoryLeaders(next, game.VictoryPoints, gameOver)
	if len(leaders) == 0 {
		readyEliminated(next)
	}

	if res.after, err = json.Marshal(next); err != nil {
		return fmt.Errorf("marshal resolved snapshot: %w", err)
	}

	if len(leaders) > 0 {
		return s.finish(ctx, game, res, leaders)
	}

	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	if _, err := s.turnRepo.AdvanceTurn(ctx, turn.ID, res.before, res.after, res.reportJSON, game.ID, next.Turn, deadline); err != nil {
		return fmt.Errorf("advance turn: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(game.ID, EventTurnResolved, map[string]any{
		"turn":   turn.Number,
		"report": report,
	})

	// An early resolution leaves the old deadline's timer behind.
	if err := s.cache.ClearTimer(ctx, game.ID); err != nil {
		return fmt.Errorf("clear timer: %w", err)
	}
	if err := s.cache.SetSnapshot(ctx, game.ID, res.after); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	if err := s.cache.SetTimer(ctx, game.ID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", game.ID).Int("turn", next.Turn).
		Time("deadline", deadline).Int("units", len(next.Units())).
		Msg("Game advanced to next turn")

	s.broadcaster.BroadcastGameEvent(game.ID, EventTurnStarted, map[string]any{
		"turn":     next.Turn,
		"deadline": deadline.Format(time.RFC3339),
	})
	return nil
}

func (s *TurnService) finish(ctx context.Context, game *model.Game, res resolution, leaders []conquest.ID) error {
	winners := make([]string, len(leaders))
	for i, id := range leaders {
		winners[i] = string(id)
	}
	if err := s.turnRepo.FinishGame(ctx, res.turn.ID, res.before, res.after, res.reportJSON, game.ID, winners); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	log.Info().Str("gameId", game.ID).Strs("winners", winners).Int("turn", res.next.Turn).Msg("Game won")

	s.broadcaster.BroadcastGameEvent(game.ID, EventTurnResolved, map[string]any{
		"turn":   res.turn.Number,
		"report": res.report,
	})
	s.broadcaster.BroadcastGameEvent(game.ID, EventGameEnded, map[string]any{
		"winners":   winners,
		"turn":      res.next.Turn,
		"standings": res.next.Standings(),
	})
	if err := s.cache.ClearTimer(ctx, game.ID); err != nil {
		return fmt.Errorf("clear timer: %w", err)
	}
	if err := s.cache.DeleteSnapshot(ctx, game.ID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	s.locks.Forget(game.ID)
	return nil
}

// CurrentSnapshot returns the live snapshot of an active game, or the final
// map of a finished one.
func (s *TurnService) CurrentSnapshot(ctx context.Context, gameID string) (*conquest.GameMap, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	switch game.Status {
	case model.StatusActive:
		turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if turn == nil {
			return nil, ErrTurnNotFound
		}
		return loadSnapshot(ctx, s.cache, gameID, turn)
	case model.StatusFinished:
		turns, err := s.turnRepo.ListTurns(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if len(turns) == 0 || turns[len(turns)-1].Resolved == nil {
			return nil, ErrTurnNotFound
		}
		return decodeSnapshot(turns[len(turns)-1].Resolved)
	default:
		return nil, ErrGameNotActive
	}
}

// ReadyCount reports how many players of an active game are done for the
// current turn.
func (s *TurnService) ReadyCount(ctx context.Context, gameID string) (ready, total int, err error) {
	gm, err := s.CurrentSnapshot(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	ready, total = readyCounts(gm)
	return ready, total, nil
}

// Standings returns the scoreboard of the current snapshot.
func (s *TurnService) Standings(ctx context.Context, gameID string) ([]conquest.PlayerStats, error) {
	gm, err := s.CurrentSnapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return gm.Standings(), nil
}

// ListTurns returns the turn history of a game without snapshots.
func (s *TurnService) ListTurns(ctx context.Context, gameID string) ([]TurnView, error) {
	turns, err := s.turnRepo.ListTurns(ctx, gameID)
	if err != nil {
		return nil, err
	}
	views := make([]TurnView, len(turns))
	for i, t := range turns {
		views[i] = TurnView{Number: t.Number, Deadline: t.Deadline, ResolvedAt: t.ResolvedAt, Report: t.Report}
	}
	return views, nil
}

// GetTurn returns one turn with its intent log and, once resolved, the
// standings it produced.
func (s *TurnService) GetTurn(ctx context.Context, gameID string, number int) (*TurnView, error) {
	turn, err := s.turnRepo.FindTurn(ctx, gameID, number)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrTurnNotFound
	}
	intents, err := s.turnRepo.IntentsByTurn(ctx, turn.ID)
	if err != nil {
		return nil, err
	}
	view := &TurnView{
		Number:     turn.Number,
		Deadline:   turn.Deadline,
		ResolvedAt: turn.ResolvedAt,
		Report:     turn.Report,
		Intents:    intents,
	}
	if turn.Resolved != nil {
		gm, err := decodeSnapshot(turn.Resolved)
		if err != nil {
			return nil, err
		}
		view.Standings = gm.Standings()
	}
	return view, nil
}
