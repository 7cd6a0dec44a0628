package model

import (
	"encoding/json"
	"time"
)

// Game statuses.
const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game is a lobby entry and the settings the turn loop runs under.
type Game struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	Status        string       `json:"status"` // waiting, active, finished
	Winners       []string     `json:"winners,omitempty"`
	TurnDuration  string       `json:"turn_duration"`  // Postgres interval text
	MaxTurns      int          `json:"max_turns"`      // 0 = unlimited
	VictoryPoints int          `json:"victory_points"` // 0 = no threshold
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Players       []GamePlayer `json:"players,omitempty"`
	ReadyCount    int          `json:"ready_count,omitempty"`
}

// GamePlayer is a user's seat in a game. The map player id is the user id;
// Color is assigned when the game starts.
type GamePlayer struct {
	GameID   string    `json:"game_id"`
	UserID   string    `json:"user_id"`
	Color    string    `json:"color,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Turn is one row of a game's history. Snapshot holds the map at the start
// of the turn (including queued intents once resolved); Resolved holds the
// map produced by resolution.
type Turn struct {
	ID         string          `json:"id"`
	GameID     string          `json:"game_id"`
	Number     int             `json:"number"`
	Snapshot   json.RawMessage `json:"snapshot"`
	Resolved   json.RawMessage `json:"resolved,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
	Deadline   time.Time       `json:"deadline"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IntentRecord is an accepted intent as submitted, kept for the turn log.
type IntentRecord struct {
	ID        string          `json:"id"`
	TurnID    string          `json:"turn_id"`
	UserID    string          `json:"user_id"`
	Kind      string          `json:"kind"` // move, upgrade, ready
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
