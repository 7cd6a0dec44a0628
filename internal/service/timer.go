package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/model"
	redisrepo "github.com/freeeve/holdfast/internal/repository/redis"
)

// turnResolver is the part of TurnService the timer drives.
type turnResolver interface {
	ResolveTurn(ctx context.Context, gameID string) error
}

// expiredTurnLister is the part of TurnRepository the poller needs.
type expiredTurnLister interface {
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// TimerListener listens for Redis keyspace notifications on expired timer keys
// and triggers turn resolution when a game's timer expires. Also runs a
// polling fallback to catch expirations if keyspace notifications are unavailable.
type TimerListener struct {
	rdb      *redis.Client
	turns    turnResolver
	turnRepo expiredTurnLister
	interval time.Duration
}

// NewTimerListener creates a TimerListener.
func NewTimerListener(rdb *redis.Client, turns turnResolver, turnRepo expiredTurnLister) *TimerListener {
	return &TimerListener{rdb: rdb, turns: turns, turnRepo: turnRepo, interval: 10 * time.Second}
}

// Start begins listening for expired key events and runs a polling fallback.
// It blocks until ctx is cancelled.
func (t *TimerListener) Start(ctx context.Context) {
	go t.listenKeyspace(ctx)
	t.pollExpiredTurns(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollExpiredTurns periodically checks for turns past their deadline and resolves them.
func (t *TimerListener) pollExpiredTurns(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", t.interval).Msg("Turn deadline poller started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Turn deadline poller stopped")
			return
		case <-ticker.C:
			t.checkExpiredTurns(ctx)
		}
	}
}

// checkExpiredTurns finds open turns past their deadline and resolves them.
func (t *TimerListener) checkExpiredTurns(ctx context.Context) {
	turns, err := t.turnRepo.ListExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired turns")
		return
	}
	if len(turns) > 0 {
		log.Info().Int("count", len(turns)).Msg("Poller found expired turns")
	}
	for _, turn := range turns {
		log.Info().Str("gameId", turn.GameID).Int("turn", turn.Number).
			Time("deadline", turn.Deadline).Msg("Poller resolving expired turn")
		if err := t.turns.ResolveTurn(ctx, turn.GameID); err != nil {
			log.Error().Err(err).Str("gameId", turn.GameID).Msg("Turn resolution failed from poller")
		}
	}
}

// handleExpiry processes an expired key. Only acts on game timer keys.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	gameID, ok := redisrepo.GameIDFromTimerKey(key)
	if !ok {
		return
	}

	log.Info().Str("gameId", gameID).Msg("Timer expired, triggering turn resolution")
	if err := t.turns.ResolveTurn(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Turn resolution failed after timer expiry")
	}
}
