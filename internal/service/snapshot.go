package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/repository"
	"github.com/freeeve/holdfast/pkg/conquest"
)

// loadSnapshot returns the live snapshot of a game: the cached copy when
// present, otherwise the opening snapshot of its current turn.
func loadSnapshot(ctx context.Context, cache repository.SnapshotCache, gameID string, turn *model.Turn) (*conquest.GameMap, error) {
	data, err := cache.GetSnapshot(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached snapshot: %w", err)
	}
	if data == nil {
		data = turn.Snapshot
	}
	gm, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	if gm.Turn != turn.Number {
		// Stale cache from before a crash mid-resolution; the database wins.
		return decodeSnapshot(turn.Snapshot)
	}
	return gm, nil
}

func decodeSnapshot(data json.RawMessage) (*conquest.GameMap, error) {
	var gm conquest.GameMap
	if err := json.Unmarshal(data, &gm); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &gm, nil
}

// readyEliminated marks players that have neither units nor territories as
// ready so the turn does not wait on them.
func readyEliminated(gm *conquest.GameMap) {
	for _, p := range gm.Players() {
		if gm.IsEliminated(p.ID) {
			gm.Actions.MarkReady(p.ID)
		}
	}
}

// readyCounts returns how many map players are ready and how many there are.
func readyCounts(gm *conquest.GameMap) (ready, total int) {
	for _, p := range gm.Players() {
		total++
		if gm.Actions.IsReady(p.ID) {
			ready++
		}
	}
	return ready, total
}

// toPgInterval converts a Go duration string to a Postgres interval literal.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Second {
		return defaultVal
	}
	return fmt.Sprintf("%d seconds", int64(d/time.Second))
}

// parseDuration converts Postgres interval strings like "24:00:00", the
// "90 seconds" literals written by toPgInterval, or Go duration strings
// like "5m" to time.Duration. Anything else falls back to 24 hours.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	if n, unit, ok := strings.Cut(s, " "); ok {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			switch unit {
			case "seconds":
				return time.Duration(v) * time.Second
			case "minutes":
				return time.Duration(v) * time.Minute
			case "hours":
				return time.Duration(v) * time.Hour
			}
		}
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	return 24 * time.Hour
}
