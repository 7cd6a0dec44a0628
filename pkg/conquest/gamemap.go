package conquest

import (
	"fmt"
)

// GameMap is one turn's complete, self-consistent state. It is the sole
// root through which entities are reachable, and the unit of persistence.
type GameMap struct {
	ID          string
	Turn        int
	Registry    *Registry
	NextUnitSeq int
	Actions     ActionLog
}

// NewGameMap returns an empty snapshot at turn 0.
func NewGameMap(id string) *GameMap {
	return &GameMap{
		ID:          id,
		Registry:    NewRegistry(),
		NextUnitSeq: 1,
		Actions:     NewActionLog(),
	}
}

// Clone returns a deep copy. Mutations to the clone do not affect the
// original; the turn resolver relies on this to keep a read-only baseline.
func (gm *GameMap) Clone() *GameMap {
	return &GameMap{
		ID:          gm.ID,
		Turn:        gm.Turn,
		Registry:    gm.Registry.Clone(),
		NextUnitSeq: gm.NextUnitSeq,
		Actions:     gm.Actions.Clone(),
	}
}

// --- Typed accessors. Each returns nil for a missing id or a kind mismatch. ---

// Unit returns the unit with the given id.
func (gm *GameMap) Unit(id ID) *Unit {
	u, _ := gm.Registry.Get(id).(*Unit)
	return u
}

// Territory returns the territory with the given id.
func (gm *GameMap) Territory(id ID) *Territory {
	t, _ := gm.Registry.Get(id).(*Territory)
	return t
}

// Edge returns the edge with the given id.
func (gm *GameMap) Edge(id ID) *Edge {
	e, _ := gm.Registry.Get(id).(*Edge)
	return e
}

// Player returns the player with the given id.
func (gm *GameMap) Player(id ID) *Player {
	p, _ := gm.Registry.Get(id).(*Player)
	return p
}

// Units returns every unit sorted by id.
func (gm *GameMap) Units() []*Unit {
	var out []*Unit
	for _, e := range gm.Registry.OfKind(KindUnit) {
		out = append(out, e.(*Unit))
	}
	return out
}

// Territories returns every territory sorted by id.
func (gm *GameMap) Territories() []*Territory {
	var out []*Territory
	for _, e := range gm.Registry.OfKind(KindTerritory) {
		out = append(out, e.(*Territory))
	}
	return out
}

// Edges returns every edge sorted by id.
func (gm *GameMap) Edges() []*Edge {
	var out []*Edge
	for _, e := range gm.Registry.OfKind(KindEdge) {
		out = append(out, e.(*Edge))
	}
	return out
}

// Players returns every player sorted by id.
func (gm *GameMap) Players() []*Player {
	var out []*Player
	for _, e := range gm.Registry.OfKind(KindPlayer) {
		out = append(out, e.(*Player))
	}
	return out
}

// --- Graph queries ---

// FindEdge returns the edge joining territories a and b, or nil.
func (gm *GameMap) FindEdge(a, b ID) *Edge {
	t := gm.Territory(a)
	if t == nil {
		return nil
	}
	for _, eid := range t.Edges {
		if e := gm.Edge(eid); e != nil && e.Connects(a, b) {
			return e
		}
	}
	return nil
}

// Neighbors returns the territories one edge away from t, in edge order.
func (gm *GameMap) Neighbors(t ID) IDList {
	terr := gm.Territory(t)
	if terr == nil {
		return nil
	}
	var out IDList
	for _, eid := range terr.Edges {
		if e := gm.Edge(eid); e != nil {
			out.Add(e.Other(t))
		}
	}
	return out
}

// LocationKind reports whether a unit sits on a territory or an edge.
func (gm *GameMap) LocationKind(u *Unit) (Kind, bool) {
	e := gm.Registry.Get(u.Location)
	if e == nil {
		return 0, false
	}
	return e.Kind(), true
}

// UnitsAt returns the ordered unit list of a territory or edge.
func (gm *GameMap) UnitsAt(location ID) IDList {
	switch loc := gm.Registry.Get(location).(type) {
	case *Territory:
		return loc.Units
	case *Edge:
		return loc.Units
	}
	return nil
}

// unitsAtRef returns a pointer to the location's unit list for mutation.
func (gm *GameMap) unitsAtRef(location ID) *IDList {
	switch loc := gm.Registry.Get(location).(type) {
	case *Territory:
		return &loc.Units
	case *Edge:
		return &loc.Units
	}
	return nil
}

// OwnersAt returns the distinct owners present at a location, in the order
// they are first encountered scanning its units. NoID counts as an owner.
func (gm *GameMap) OwnersAt(location ID) IDList {
	var owners IDList
	for _, uid := range gm.UnitsAt(location) {
		if u := gm.Unit(uid); u != nil {
			owners.Add(u.Owner)
		}
	}
	return owners
}

// IsContested reports whether units of two or more owners share a location.
func (gm *GameMap) IsContested(location ID) bool {
	return len(gm.OwnersAt(location)) > 1
}

// ContestedLocations returns every territory and edge hosting a combat, sorted by id.
func (gm *GameMap) ContestedLocations() []ID {
	var out []ID
	for _, id := range gm.Registry.IDs() {
		switch gm.Registry.Get(id).Kind() {
		case KindTerritory, KindEdge:
			if gm.IsContested(id) {
				out = append(out, id)
			}
		}
	}
	return out
}

// IsEliminated reports whether a player holds no units and no territories.
func (gm *GameMap) IsEliminated(player ID) bool {
	p := gm.Player(player)
	return p == nil || (len(p.Units) == 0 && len(p.Territories) == 0)
}

// ActivePlayers returns the players that are not eliminated, sorted by id.
func (gm *GameMap) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range gm.Players() {
		if !gm.IsEliminated(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// --- Setup ---

// AddPlayer registers a player with the default income.
func (gm *GameMap) AddPlayer(id ID, color string, gold int) (*Player, error) {
	if gm.Registry.Has(id) {
		return nil, fmt.Errorf("duplicate id %s", id)
	}
	p := &Player{ID: id, Color: color, Gold: gold, GoldProduction: DefaultPlayerGoldProduction}
	gm.Registry.Put(p)
	return p, nil
}

// AddTerritory registers a territory, optionally controlled by a player.
func (gm *GameMap) AddTerritory(id ID, name string, controller ID, food int, props PropertySet) (*Territory, error) {
	if gm.Registry.Has(id) {
		return nil, fmt.Errorf("duplicate id %s", id)
	}
	if controller != NoID && gm.Player(controller) == nil {
		return nil, fmt.Errorf("unknown controller %s", controller)
	}
	t := &Territory{ID: id, Name: name, Food: clamp(food, 0, props.MaxFood()), Properties: props}
	gm.Registry.Put(t)
	if controller != NoID {
		gm.setController(t, controller)
	}
	return t, nil
}

// Connect creates the edge between two distinct territories.
func (gm *GameMap) Connect(a, b ID) (*Edge, error) {
	if a == b {
		return nil, fmt.Errorf("edge endpoints must differ: %s", a)
	}
	ta, tb := gm.Territory(a), gm.Territory(b)
	if ta == nil || tb == nil {
		return nil, fmt.Errorf("edge %s-%s: unknown territory", a, b)
	}
	if gm.FindEdge(a, b) != nil {
		return nil, fmt.Errorf("edge %s-%s already exists", a, b)
	}
	e := &Edge{ID: EdgeID(a, b), A: a, B: b}
	gm.Registry.Put(e)
	ta.Edges.Add(e.ID)
	tb.Edges.Add(e.ID)
	return e, nil
}

// AddUnit places a unit with an explicit id on a territory.
func (gm *GameMap) AddUnit(id, owner, territory ID) (*Unit, error) {
	if gm.Registry.Has(id) {
		return nil, fmt.Errorf("duplicate id %s", id)
	}
	if owner != NoID && gm.Player(owner) == nil {
		return nil, fmt.Errorf("unknown owner %s", owner)
	}
	t := gm.Territory(territory)
	if t == nil {
		return nil, fmt.Errorf("unknown territory %s", territory)
	}
	u := &Unit{ID: id, Owner: owner, Location: territory}
	gm.Registry.Put(u)
	t.Units.Add(id)
	if p := gm.Player(owner); p != nil {
		p.Units.Add(id)
	}
	return u, nil
}

// SpawnUnit places a new unit with a freshly minted id.
func (gm *GameMap) SpawnUnit(owner, territory ID) (*Unit, error) {
	return gm.AddUnit(gm.mintUnitID(), owner, territory)
}

func (gm *GameMap) mintUnitID() ID {
	for {
		id := ID(fmt.Sprintf("unit-%d", gm.NextUnitSeq))
		gm.NextUnitSeq++
		if !gm.Registry.Has(id) {
			return id
		}
	}
}

// --- Internal mutation helpers ---

// relocate moves a unit from its current location to dest.
func (gm *GameMap) relocate(u *Unit, dest ID) {
	if from := gm.unitsAtRef(u.Location); from != nil {
		from.Remove(u.ID)
	}
	if to := gm.unitsAtRef(dest); to != nil {
		to.Add(u.ID)
	}
	u.Location = dest
}

// removeUnit deletes a unit from the registry and every list referencing it.
func (gm *GameMap) removeUnit(id ID) {
	u := gm.Unit(id)
	if u == nil {
		return
	}
	if loc := gm.unitsAtRef(u.Location); loc != nil {
		loc.Remove(id)
	}
	if p := gm.Player(u.Owner); p != nil {
		p.Units.Remove(id)
	}
	gm.Actions.ClearMove(id)
	gm.Registry.Delete(id)
}

// setController transfers a territory, keeping both players' lists in sync.
func (gm *GameMap) setController(t *Territory, player ID) {
	if prev := gm.Player(t.Controller); prev != nil {
		prev.Territories.Remove(t.ID)
	}
	t.Controller = player
	if next := gm.Player(player); next != nil {
		next.Territories.Add(t.ID)
	}
}
