package conquest

import (
	"fmt"
	"strings"
)

// Intent is a player request against the latest snapshot. The set of
// implementations is closed: MoveIntent, UpgradeIntent and ReadyIntent.
type Intent interface {
	// Describe returns a human-readable description of the intent.
	Describe() string
	intent()
}

// MoveIntent queues a move for a group of units. An empty Destination
// cancels any pending move for those units.
type MoveIntent struct {
	Units       []ID
	Destination ID
}

// UpgradeIntent selects (or with UpgradeNone, clears) a territory action.
type UpgradeIntent struct {
	Territory ID
	Upgrade   UpgradeAction
}

// ReadyIntent signals that a player has finished the turn.
type ReadyIntent struct {
	Player ID
}

func (MoveIntent) intent()    {}
func (UpgradeIntent) intent() {}
func (ReadyIntent) intent()   {}

func (m MoveIntent) Describe() string {
	ids := make([]string, len(m.Units))
	for i, id := range m.Units {
		ids[i] = string(id)
	}
	if m.Destination == NoID {
		return fmt.Sprintf("cancel move [%s]", strings.Join(ids, " "))
	}
	return fmt.Sprintf("move [%s] -> %s", strings.Join(ids, " "), m.Destination)
}

func (u UpgradeIntent) Describe() string {
	if u.Upgrade == UpgradeNone {
		return fmt.Sprintf("clear upgrade at %s", u.Territory)
	}
	return fmt.Sprintf("%s at %s", u.Upgrade, u.Territory)
}

func (r ReadyIntent) Describe() string {
	return fmt.Sprintf("%s ready", r.Player)
}
