package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "holdfast:game:"

func snapshotKey(gameID string) string { return keyPrefix + gameID + ":snapshot" }
func timerKey(gameID string) string    { return keyPrefix + gameID + ":timer" }

// GameIDFromTimerKey extracts the game id from an expired timer key.
func GameIDFromTimerKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", false
	}
	gameID, ok := strings.CutSuffix(rest, ":timer")
	if !ok || gameID == "" || strings.Contains(gameID, ":") {
		return "", false
	}
	return gameID, true
}

// SetSnapshot stores the live snapshot JSON.
func (c *Client) SetSnapshot(ctx context.Context, gameID string, snapshot json.RawMessage) error {
	return c.rdb.Set(ctx, snapshotKey(gameID), []byte(snapshot), 0).Err()
}

// GetSnapshot retrieves the live snapshot JSON, or nil when none is cached.
func (c *Client) GetSnapshot(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// turnGracePeriod is the extra time after the displayed deadline before
// resolution triggers, giving players a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires, keyspace
// notifications trigger turn resolution.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// DeleteSnapshot removes the live snapshot of a game (on game end).
func (c *Client) DeleteSnapshot(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, snapshotKey(gameID)).Err()
}
