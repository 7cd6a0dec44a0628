package conquest

import (
	"encoding/json"
	"testing"
)

// lineMap builds a -- b -- c with two players and no units.
// Every territory is neutral wilderness with an empty food stock.
func lineMap(t *testing.T) *GameMap {
	t.Helper()
	gm := NewGameMap("test")
	for _, p := range []ID{"p1", "p2"} {
		if _, err := gm.AddPlayer(p, "", 0); err != nil {
			t.Fatalf("add player %s: %v", p, err)
		}
	}
	for _, id := range []ID{"a", "b", "c"} {
		if _, err := gm.AddTerritory(id, "", NoID, 0, 0); err != nil {
			t.Fatalf("add territory %s: %v", id, err)
		}
	}
	mustConnect(t, gm, "a", "b")
	mustConnect(t, gm, "b", "c")
	return gm
}

func mustConnect(t *testing.T, gm *GameMap, a, b ID) *Edge {
	t.Helper()
	e, err := gm.Connect(a, b)
	if err != nil {
		t.Fatalf("connect %s-%s: %v", a, b, err)
	}
	return e
}

func mustUnit(t *testing.T, gm *GameMap, id, owner, territory ID, status ...Status) *Unit {
	t.Helper()
	u, err := gm.AddUnit(id, owner, territory)
	if err != nil {
		t.Fatalf("add unit %s: %v", id, err)
	}
	for _, s := range status {
		u.Status = u.Status.With(s)
	}
	return u
}

func mustApply(t *testing.T, gm *GameMap, in Intent) {
	t.Helper()
	if err := ApplyIntent(gm, in); err != nil {
		t.Fatalf("apply %s: %v", in.Describe(), err)
	}
}

// putOnEdge moves a unit onto the edge toward dest and queues the move.
func putOnEdge(t *testing.T, gm *GameMap, unit, dest ID) {
	t.Helper()
	u := gm.Unit(unit)
	e := gm.FindEdge(u.Location, dest)
	if e == nil {
		t.Fatalf("no edge from %s to %s", u.Location, dest)
	}
	gm.relocate(u, e.ID)
	gm.Actions.SetMove(unit, dest)
}

func snapshotJSONBytes(t *testing.T, gm *GameMap) string {
	t.Helper()
	data, err := json.Marshal(gm)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return string(data)
}

func mustCheck(t *testing.T, gm *GameMap) {
	t.Helper()
	if err := gm.Check(); err != nil {
		t.Fatalf("snapshot inconsistent: %v", err)
	}
}
