package service

// Event types pushed to game subscribers.
const (
	EventGameStarted  = "game_started"
	EventPlayerJoined = "player_joined"
	EventPlayerReady  = "player_ready"
	EventTurnResolved = "turn_resolved"
	EventTurnStarted  = "turn_started"
	EventGameEnded    = "game_ended"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}
