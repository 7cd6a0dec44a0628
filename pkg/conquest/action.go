package conquest

import "slices"

// UpgradeSelection is a pending territory action and the player who chose it.
type UpgradeSelection struct {
	Player ID            `json:"player"`
	Action UpgradeAction `json:"action"`
}

// ActionLog holds the intents waiting for the next resolution. Each subject
// has at most one entry; a new intent for the same unit or territory
// replaces the old one.
type ActionLog struct {
	Moves    map[ID]ID               `json:"moves"`    // unit -> destination territory
	Upgrades map[ID]UpgradeSelection `json:"upgrades"` // territory -> selection
	Ready    IDList                  `json:"ready"`
}

// NewActionLog returns an empty log.
func NewActionLog() ActionLog {
	return ActionLog{
		Moves:    make(map[ID]ID),
		Upgrades: make(map[ID]UpgradeSelection),
	}
}

// Destination returns the queued destination for a unit.
func (l *ActionLog) Destination(unit ID) (ID, bool) {
	d, ok := l.Moves[unit]
	return d, ok
}

// HasMove reports whether the unit has a queued move.
func (l *ActionLog) HasMove(unit ID) bool {
	_, ok := l.Moves[unit]
	return ok
}

// SetMove queues or replaces a unit's destination. NoID clears it.
func (l *ActionLog) SetMove(unit, dest ID) {
	if l.Moves == nil {
		l.Moves = make(map[ID]ID)
	}
	if dest == NoID {
		delete(l.Moves, unit)
		return
	}
	l.Moves[unit] = dest
}

// ClearMove drops a unit's move entry.
func (l *ActionLog) ClearMove(unit ID) {
	delete(l.Moves, unit)
}

// MovingUnits returns the ids of all units with a queued move, sorted.
func (l *ActionLog) MovingUnits() []ID {
	ids := make([]ID, 0, len(l.Moves))
	for id := range l.Moves {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Selection returns the pending upgrade for a territory.
func (l *ActionLog) Selection(territory ID) (UpgradeSelection, bool) {
	s, ok := l.Upgrades[territory]
	return s, ok
}

// SetSelection records or replaces a territory's upgrade. UpgradeNone clears it.
func (l *ActionLog) SetSelection(territory ID, sel UpgradeSelection) {
	if l.Upgrades == nil {
		l.Upgrades = make(map[ID]UpgradeSelection)
	}
	if sel.Action == UpgradeNone {
		delete(l.Upgrades, territory)
		return
	}
	l.Upgrades[territory] = sel
}

// SelectedTerritories returns territories with a pending upgrade, sorted.
func (l *ActionLog) SelectedTerritories() []ID {
	ids := make([]ID, 0, len(l.Upgrades))
	for id := range l.Upgrades {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MarkReady records that a player is done for the turn.
func (l *ActionLog) MarkReady(player ID) {
	l.Ready.Add(player)
}

// IsReady reports whether the player has signalled readiness.
func (l *ActionLog) IsReady(player ID) bool {
	return l.Ready.Contains(player)
}

// Clone returns a deep copy of the log.
func (l ActionLog) Clone() ActionLog {
	c := ActionLog{
		Moves:    make(map[ID]ID, len(l.Moves)),
		Upgrades: make(map[ID]UpgradeSelection, len(l.Upgrades)),
		Ready:    l.Ready.Clone(),
	}
	for k, v := range l.Moves {
		c.Moves[k] = v
	}
	for k, v := range l.Upgrades {
		c.Upgrades[k] = v
	}
	return c
}
