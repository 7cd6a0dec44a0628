package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/holdfast/internal/model"
)

// The mocks lock because early turn resolution runs on its own goroutine.

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			cp := *u
			return &cp, nil
		}
	}
	u := &model.User{
		ID:          uuid.NewString(),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
	return nil
}

type mockGameRepo struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID, turnDuration string, maxTurns, victoryPoints int) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	cp := *g
	return &cp, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[id]...)
	return &cp, nil
}

func (m *mockGameRepo) byStatus(status string) []model.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for _, g := range m.games {
		if g.Status == status {
			result = append(result, *g)
		}
	}
	return result
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	return m.byStatus(model.StatusWaiting), nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	return m.byStatus(model.StatusFinished), nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	return m.byStatus(model.StatusActive), nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				result = append(result, *m.games[gameID])
				break
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GamePlayer(nil), m.players[gameID]...), nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) AssignColors(_ context.Context, gameID string, colors map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.players[gameID] {
		m.players[gameID][i].Color = colors[m.players[gameID][i].UserID]
	}
	now := time.Now()
	m.games[gameID].Status = model.StatusActive
	m.games[gameID].StartedAt = &now
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockTurnRepo struct {
	mu      sync.Mutex
	turns   map[string][]*model.Turn
	intents map[string][]model.IntentRecord
	seq     int
	games   *mockGameRepo
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{
		turns:   make(map[string][]*model.Turn),
		intents: make(map[string][]model.IntentRecord),
	}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, gameID string, number int, snapshot json.RawMessage, deadline time.Time) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	cp := *t
	return &cp, nil
}

func (m *mockTurnRepo) CurrentTurn(_ context.Context, gameID string) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[gameID]
	if len(turns) == 0 || turns[len(turns)-1].ResolvedAt != nil {
		return nil, nil
	}
	cp := *turns[len(turns)-1]
	return &cp, nil
}

func (m *mockTurnRepo) FindTurn(_ context.Context, gameID string, number int) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.turns[gameID] {
		if t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTurnRepo) ListTurns(_ context.Context, gameID string) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Turn
	for _, t := range m.turns[gameID] {
		result = append(result, *t)
	}
	return result, nil
}

// closeTurn marks an open turn resolved. Callers hold m.mu.
func (m *mockTurnRepo) closeTurn(turnID string, snapshot, resolved, report json.RawMessage) error {
	for _, turns := range m.turns {
		for _, t := range turns {
			if t.ID != turnID {
				continue
			}
			if t.ResolvedAt != nil {
				return fmt.Errorf("turn %s already resolved", turnID)
			}
			now := time.Now()
			t.Snapshot, t.Resolved, t.Report, t.ResolvedAt = snapshot, resolved, report, &now
			return nil
		}
	}
	return fmt.Errorf("turn %s not found", turnID)
}

func (m *mockTurnRepo) AdvanceTurn(ctx context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, nextNumber int, deadline time.Time) (*model.Turn, error) {
	m.mu.Lock()
	err := m.closeTurn(turnID, snapshot, resolved, report)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.CreateTurn(ctx, gameID, nextNumber, resolved, deadline)
}

func (m *mockTurnRepo) FinishGame(_ context.Context, turnID string, snapshot, resolved, report json.RawMessage, gameID string, winners []string) error {
	m.mu.Lock()
	err := m.closeTurn(turnID, snapshot, resolved, report)
	m.mu.Unlock()
	if err != nil || m.games == nil {
		return err
	}
	m.games.mu.Lock()
	defer m.games.mu.Unlock()
	now := time.Now()
	m.games.games[gameID].Status = model.StatusFinished
	m.games.games[gameID].Winners = winners
	m.games.games[gameID].FinishedAt = &now
	return nil
}

func (m *mockTurnRepo) RecordIntent(_ context.Context, rec model.IntentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[rec.TurnID] = append(m.intents[rec.TurnID], rec)
	return nil
}

func (m *mockTurnRepo) IntentsByTurn(_ context.Context, turnID string) ([]model.IntentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.IntentRecord(nil), m.intents[turnID]...), nil
}

func (m *mockTurnRepo) ListExpired(_ context.Context) ([]model.Turn, error) {
	return nil, nil
}

type mockCache struct {
	mu        sync.Mutex
	snapshots map[string]json.RawMessage
}

func newMockCache() *mockCache {
	return &mockCache{snapshots: make(map[string]json.RawMessage)}
}

func (c *mockCache) SetSnapshot(_ context.Context, gameID string, snapshot json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[gameID] = snapshot
	return nil
}

func (c *mockCache) GetSnapshot(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots[gameID], nil
}

func (c *mockCache) SetTimer(context.Context, string, time.Time) error { return nil }

func (c *mockCache) ClearTimer(context.Context, string) error { return nil }

func (c *mockCache) DeleteSnapshot(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, gameID)
	return nil
}
