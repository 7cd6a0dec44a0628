package conquest

import (
	"encoding/json"
	"fmt"
)

// entityRecord is the tagged wire form of one registry entry.
type entityRecord struct {
	Kind      string     `json:"kind"`
	Player    *Player    `json:"player,omitempty"`
	Territory *Territory `json:"territory,omitempty"`
	Edge      *Edge      `json:"edge,omitempty"`
	Unit      *Unit      `json:"unit,omitempty"`
}

type snapshotJSON struct {
	ID          string              `json:"id"`
	Turn        int                 `json:"turn"`
	Entities    map[ID]entityRecord `json:"entities"`
	NextUnitSeq int                 `json:"next_unit_seq"`
	Actions     ActionLog           `json:"actions"`
}

// MarshalJSON encodes the snapshot. Only stored fields are written; every
// derived property is recomputed after decoding.
func (gm *GameMap) MarshalJSON() ([]byte, error) {
	s := snapshotJSON{
		ID:          gm.ID,
		Turn:        gm.Turn,
		Entities:    make(map[ID]entityRecord, gm.Registry.Len()),
		NextUnitSeq: gm.NextUnitSeq,
		Actions:     gm.Actions,
	}
	for _, id := range gm.Registry.IDs() {
		rec := entityRecord{}
		switch e := gm.Registry.Get(id).(type) {
		case *Player:
			rec.Player = e
		case *Territory:
			rec.Territory = e
		case *Edge:
			rec.Edge = e
		case *Unit:
			rec.Unit = e
		default:
			return nil, fmt.Errorf("entity %s: unsupported type %T", id, e)
		}
		rec.Kind = gm.Registry.Get(id).Kind().String()
		s.Entities[id] = rec
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a snapshot written by MarshalJSON.
func (gm *GameMap) UnmarshalJSON(data []byte) error {
	var s snapshotJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	reg := NewRegistry()
	for id, rec := range s.Entities {
		kind, ok := ParseKind(rec.Kind)
		if !ok {
			return fmt.Errorf("entity %s: unknown kind %q", id, rec.Kind)
		}
		var e Entity
		switch kind {
		case KindPlayer:
			if rec.Player != nil {
				e = rec.Player
			}
		case KindTerritory:
			if rec.Territory != nil {
				e = rec.Territory
			}
		case KindEdge:
			if rec.Edge != nil {
				e = rec.Edge
			}
		case KindUnit:
			if rec.Unit != nil {
				e = rec.Unit
			}
		}
		if e == nil {
			return fmt.Errorf("entity %s: missing %s record", id, kind)
		}
		if e.EntityID() != id {
			return fmt.Errorf("entity %s: record id %s does not match key", id, e.EntityID())
		}
		reg.Put(e)
	}
	if s.Actions.Moves == nil {
		s.Actions.Moves = make(map[ID]ID)
	}
	if s.Actions.Upgrades == nil {
		s.Actions.Upgrades = make(map[ID]UpgradeSelection)
	}
	*gm = GameMap{
		ID:          s.ID,
		Turn:        s.Turn,
		Registry:    reg,
		NextUnitSeq: s.NextUnitSeq,
		Actions:     s.Actions,
	}
	return nil
}

// Check verifies the cross-references of a snapshot: every unit sits in the
// list of an existing location and its owner, every edge joins two distinct
// territories, controllers and player lists agree, and food is in bounds.
// Returns the first inconsistency found.
func (gm *GameMap) Check() error {
	for _, u := range gm.Units() {
		if !gm.UnitsAt(u.Location).Contains(u.ID) {
			return fmt.Errorf("unit %s not listed at its location %s", u.ID, u.Location)
		}
		if u.Owner != NoID {
			p := gm.Player(u.Owner)
			if p == nil || !p.Units.Contains(u.ID) {
				return fmt.Errorf("unit %s not listed by owner %s", u.ID, u.Owner)
			}
		}
	}
	for _, e := range gm.Edges() {
		if e.A == e.B || gm.Territory(e.A) == nil || gm.Territory(e.B) == nil {
			return fmt.Errorf("edge %s has invalid endpoints %s-%s", e.ID, e.A, e.B)
		}
		if err := checkOccupants(gm, e.ID, e.Units); err != nil {
			return err
		}
	}
	for _, t := range gm.Territories() {
		if t.Food < 0 || t.Food > t.MaxFood() {
			return fmt.Errorf("territory %s food %d outside [0,%d]", t.ID, t.Food, t.MaxFood())
		}
		if t.Controller != NoID {
			p := gm.Player(t.Controller)
			if p == nil || !p.Territories.Contains(t.ID) {
				return fmt.Errorf("territory %s not listed by controller %s", t.ID, t.Controller)
			}
		}
		if err := checkOccupants(gm, t.ID, t.Units); err != nil {
			return err
		}
	}
	for _, p := range gm.Players() {
		if p.Gold < 0 {
			return fmt.Errorf("player %s has negative gold %d", p.ID, p.Gold)
		}
		for _, tid := range p.Territories {
			if t := gm.Territory(tid); t == nil || t.Controller != p.ID {
				return fmt.Errorf("player %s lists territory %s it does not control", p.ID, tid)
			}
		}
		for _, uid := range p.Units {
			if u := gm.Unit(uid); u == nil || u.Owner != p.ID {
				return fmt.Errorf("player %s lists unit %s it does not own", p.ID, uid)
			}
		}
	}
	return nil
}

func checkOccupants(gm *GameMap, location ID, units IDList) error {
	for _, uid := range units {
		if u := gm.Unit(uid); u == nil || u.Location != location {
			return fmt.Errorf("location %s lists unit %s that is not there", location, uid)
		}
	}
	return nil
}
