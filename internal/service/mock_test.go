package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/holdfast/internal/model"
)

type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer

	countErr error // returned by PlayerCount
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID, turnDuration string, maxTurns, victoryPoints int) (*model.Game, error) {
	g := &model.Game{
		ID:            fmt.Sprintf("game-%d", len(m.games)+1),
		Name:          name,
		CreatorID:     creatorID,
		Status:        model.StatusWaiting,
		TurnDuration:  turnDuration,
		MaxTurns:      maxTurns,
		VictoryPoints: victoryPoints,
		CreatedAt:     time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[id]...)
	return &cp, nil
}

func (m *mockGameRepo) listByStatus(status string) []model.Game {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == status {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	return m.listByStatus(model.StatusWaiting), nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	return m.listByStatus(model.StatusFinished), nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	games := m.listByStatus(model.StatusActive)
	for i := range games {
		games[i].Players = m.players[games[i].ID]
	}
	return games, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	var result []model.Game
	for id, g := range m.games {
		if g.CreatorID == userID {
			result = append(result, *g)
			continue
		}
		for _, p := range m.players[id] {
			if p.UserID == userID {
				result = append(result, *g)
				break
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID string) error {
	for _, p := range m.players[gameID] {
		if p.UserID == userID {
			return nil
		}
	}
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	return m.players[gameID], nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) AssignColors(_ context.Context, gameID string, colors map[string]string) error {
	players := m.players[gameID]
	for i := range players {
		players[i].Color = colors[players[i].UserID]
	}
	if g, ok := m.games[gameID]; ok {
		g.Status = model.StatusActive
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockTurnRepo struct {
	turns   map[string][]*model.Turn // gameID -> turns in order
	intents map[string][]model.IntentRecord
	seq     int
	games   *mockGameRepo // receives FinishGame status changes when set

	advanceErr error // returned by AdvanceTurn before any write
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{
		turns:   make(map[string][]*model.Turn),
		intents: make(map[string][]model.IntentRecord),
	}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, gameID string, number int, snapshot json.RawMessage, deadline time.Time) (*model.Turn, error) {
	m.seq++
	t := &model.Turn{
		ID:        fmt.Sprintf("turn-%d", m.seq),
		GameID:    gameID,
		Number:    number,
		Snapshot:  snapshot,
		Deadline:  deadline,
		CreatedAt: time.Now(),
	}
	m.turns[gameID] = append(m.turns[gameID], t)
	return t, nil
}

func (m *mockTurnRepo) CurrentTurn(_ context.Context, gameID string) (*model.Turn, error) {
	turns := m.turns[gameID]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].ResolvedAt == nil {
			cp := *turns[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTurnRepo) FindTurn(_ context.Context, gameID string, number int) (*model.Turn, error) {
	for _, t := range m.turns[gameID] {
		if t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTurnRepo) ListTurns(_ context.Context, gameID string) ([]model.Turn, error) {
	var result []model.Turn
	for _, t := range m.turns[gameID] {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTurnRepo) openTurn(turnID string) (*model.Turn, error) {
	for _, turns := range m.turns {
		for _, t := range turns {
			if t.ID == turnID {
				if t.ResolvedAt != nil {
					return nil, fmt.Errorf("turn %s already resolved", turnID)
				}
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("turn %s not found", turnID)
}

func (m *mockTurnRepo) AdvanceTurn(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, nextNumber int, deadline time.Time) (*model.Turn, error) {
	if m.advanceErr != nil {
		return nil, m.advanceErr
	}
	t, err := m.openTurn(turnID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	t.Snapshot, t.Resolved, t.Report, t.ResolvedAt = snapshot, resolved, report, &now
	return m.CreateTurn(ctx, gameID, nextNumber, resolved, deadline)
}

func (m *mockTurnRepo) FinishGame(_ context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, winners []string) error {
	t, err := m.openTurn(turnID)
	if err != nil {
		return err
	}
	now := time.Now()
	t.Snapshot, t.Resolved, t.Report, t.ResolvedAt = snapshot, resolved, report, &now
	if m.games != nil {
		if g, ok := m.games.games[gameID]; ok {
			g.Status = model.StatusFinished
			g.Winners = winners
			g.FinishedAt = &now
		}
	}
	return nil
}

func (m *mockTurnRepo) RecordIntent(_ context.Context, rec model.IntentRecord) error {
	m.seq++
	rec.ID = fmt.Sprintf("intent-%d", m.seq)
	rec.CreatedAt = time.Now()
	m.intents[rec.TurnID] = append(m.intents[rec.TurnID], rec)
	return nil
}

func (m *mockTurnRepo) IntentsByTurn(_ context.Context, turnID string) ([]model.IntentRecord, error) {
	return m.intents[turnID], nil
}

func (m *mockTurnRepo) ListExpired(_ context.Context) ([]model.Turn, error) {
	var result []model.Turn
	now := time.Now()
	for _, turns := range m.turns {
		for _, t := range turns {
			if t.ResolvedAt == nil && t.Deadline.Before(now) {
				result = append(result, *t)
			}
		}
	}
	return result, nil
}

type mockCache struct {
	snapshots map[string]json.RawMessage
	timers    map[string]time.Time
	cleared   []string // game ids passed to ClearTimer
}

func newMockCache() *mockCache {
	return &mockCache{
		snapshots: make(map[string]json.RawMessage),
		timers:    make(map[string]time.Time),
	}
}

func (c *mockCache) SetSnapshot(_ context.Context, gameID string, snapshot json.RawMessage) error {
	c.snapshots[gameID] = snapshot
	return nil
}

func (c *mockCache) GetSnapshot(_ context.Context, gameID string) (json.RawMessage, error) {
	return c.snapshots[gameID], nil
}

func (c *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, gameID string) error {
	c.cleared = append(c.cleared, gameID)
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) DeleteSnapshot(_ context.Context, gameID string) error {
	delete(c.snapshots, gameID)
	return nil
}

type recordedEvent struct {
	gameID string
	typ    string
	data   any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *mockBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{gameID, eventType, data})
}

func (b *mockBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.typ)
	}
	return out
}
