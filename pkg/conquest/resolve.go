package conquest

// Phase is one ordered step of turn resolution.
type Phase int

const (
	PhaseClearDefend Phase = iota
	PhaseMoveAndCombat
	PhaseAddDefend
	PhaseFood
	PhaseGold
	PhaseTerritoryControl
	PhaseTerritoryActions
)

// Phases returns the resolution phases in the order they run.
func Phases() []Phase {
	return []Phase{
		PhaseClearDefend,
		PhaseMoveAndCombat,
		PhaseAddDefend,
		PhaseFood,
		PhaseGold,
		PhaseTerritoryControl,
		PhaseTerritoryActions,
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseClearDefend:
		return "clear_defend"
	case PhaseMoveAndCombat:
		return "move_and_combat"
	case PhaseAddDefend:
		return "add_defend"
	case PhaseFood:
		return "food"
	case PhaseGold:
		return "gold"
	case PhaseTerritoryControl:
		return "territory_control"
	case PhaseTerritoryActions:
		return "territory_actions"
	default:
		return "unknown"
	}
}

// MoveStep records one hop taken by a unit.
type MoveStep struct {
	Unit ID `json:"unit"`
	From ID `json:"from"`
	To   ID `json:"to"`
}

// Capture records a change of territory control.
type Capture struct {
	Territory ID `json:"territory"`
	From      ID `json:"from,omitempty"`
	To        ID `json:"to"`
}

// UpgradeOutcome records what happened to a territory's selected action.
type UpgradeOutcome struct {
	Territory ID            `json:"territory"`
	Player    ID            `json:"player"`
	Action    UpgradeAction `json:"action"`
	Applied   bool          `json:"applied"`
	Reason    string        `json:"reason,omitempty"`
	Spawned   ID            `json:"spawned,omitempty"`
}

// Reasons an upgrade did not apply.
const (
	ReasonLostControl  = "lost_control"
	ReasonInsufficient = "insufficient_resources"
	ReasonUnavailable  = "unavailable"
	ReasonContested    = "contested"
)

// TurnReport summarises a resolution for clients and logs.
type TurnReport struct {
	Turn      int              `json:"turn"`
	Moves     []MoveStep       `json:"moves"`
	Combats   []CombatResult   `json:"combats"`
	Starving  []ID             `json:"starving"` // territories whose occupants went hungry
	Captures  []Capture        `json:"captures"`
	Upgrades  []UpgradeOutcome `json:"upgrades"`
	LoopCount int              `json:"loop_count"`
}

// ResolveTurn advances gm by one turn and returns the next snapshot. gm is
// the read-only baseline for the whole resolution and is never mutated.
func ResolveTurn(gm *GameMap) (*GameMap, *TurnReport) {
	r := &turnResolver{
		base:   gm,
		next:   gm.Clone(),
		report: &TurnReport{Turn: gm.Turn},
	}
	for _, p := range Phases() {
		r.run(p)
	}
	r.next.Turn++
	r.next.Actions.Ready = nil
	return r.next, r.report
}

type turnResolver struct {
	base   *GameMap
	next   *GameMap
	report *TurnReport
}

func (r *turnResolver) run(p Phase) {
	switch p {
	case PhaseClearDefend:
		r.clearDefend()
	case PhaseMoveAndCombat:
		r.moveAndCombat()
	case PhaseAddDefend:
		r.addDefend()
	case PhaseFood:
		r.resolveFood()
	case PhaseGold:
		r.resolveGold()
	case PhaseTerritoryControl:
		r.resolveControl()
	case PhaseTerritoryActions:
		r.resolveActions()
	}
}

// clearDefend: a unit actively moving cannot be defending.
func (r *turnResolver) clearDefend() {
	for _, uid := range r.next.Actions.MovingUnits() {
		if u := r.next.Unit(uid); u != nil {
			u.Status = u.Status.Without(Defending)
		}
	}
}

// moveAndCombat advances moves and fights until no location is contested.
// Each unit takes at most one hop per turn; a unit parked on a contested
// edge retries once that edge's combat is over.
func (r *turnResolver) moveAndCombat() {
	advanced := make(map[ID]bool)
	for {
		r.report.LoopCount++
		r.advanceMoves(advanced)
		contested := r.next.ContestedLocations()
		if len(contested) == 0 {
			return
		}
		for _, loc := range contested {
			if res := ResolveCombat(r.next, loc); res != nil {
				r.report.Combats = append(r.report.Combats, *res)
			}
		}
	}
}

// advanceMoves runs departures before arrivals so that units entering an
// edge meet the units already travelling along it, independent of id order.
func (r *turnResolver) advanceMoves(advanced map[ID]bool) {
	gm := r.next
	moving := gm.Actions.MovingUnits()

	for _, uid := range moving {
		if advanced[uid] {
			continue
		}
		u := gm.Unit(uid)
		if u == nil {
			gm.Actions.ClearMove(uid)
			continue
		}
		if gm.Territory(u.Location) == nil {
			continue
		}
		dest, _ := gm.Actions.Destination(uid)
		if dest == u.Location {
			gm.Actions.ClearMove(uid)
			continue
		}
		e := gm.FindEdge(u.Location, dest)
		if e == nil {
			gm.Actions.ClearMove(uid)
			continue
		}
		r.report.Moves = append(r.report.Moves, MoveStep{Unit: uid, From: u.Location, To: e.ID})
		gm.relocate(u, e.ID)
		advanced[uid] = true
	}

	for _, uid := range moving {
		if advanced[uid] {
			continue
		}
		u := gm.Unit(uid)
		if u == nil {
			continue
		}
		e := gm.Edge(u.Location)
		if e == nil {
			continue
		}
		dest, ok := gm.Actions.Destination(uid)
		if !ok || e.Other(dest) == NoID {
			gm.Actions.ClearMove(uid)
			continue
		}
		if gm.IsContested(e.ID) {
			continue
		}
		r.report.Moves = append(r.report.Moves, MoveStep{Unit: uid, From: e.ID, To: dest})
		gm.relocate(u, dest)
		gm.Actions.ClearMove(uid)
		advanced[uid] = true
	}
}

// addDefend: units that had no queued move at the start of the turn dig in.
func (r *turnResolver) addDefend() {
	for _, u := range r.next.Units() {
		if r.base.Unit(u.ID) == nil || r.base.Actions.HasMove(u.ID) {
			continue
		}
		u.Status = u.Status.With(Defending)
	}
}

func (r *turnResolver) resolveFood() {
	gm := r.next
	for _, t := range gm.Territories() {
		consumption := 0
		for _, uid := range t.Units {
			if u := gm.Unit(uid); u != nil {
				consumption += u.FoodConsumption()
			}
		}
		food := t.Food + t.FoodProduction() - consumption
		starving := food < 0
		for _, uid := range t.Units {
			u := gm.Unit(uid)
			if u == nil {
				continue
			}
			if starving {
				u.Status = u.Status.With(Starving)
			} else {
				u.Status = u.Status.Without(Starving)
			}
		}
		if starving {
			r.report.Starving = append(r.report.Starving, t.ID)
		}
		t.Food = clamp(food, 0, t.MaxFood())
	}
}

func (r *turnResolver) resolveGold() {
	gm := r.next
	for _, p := range gm.Players() {
		income := p.GoldProduction
		for _, tid := range p.Territories {
			if t := gm.Territory(tid); t != nil {
				income += t.GoldProduction()
			}
		}
		p.Gold += income
	}
}

// resolveControl transfers a territory only when the same single owner
// occupied it both before and after this turn's movement.
func (r *turnResolver) resolveControl() {
	gm := r.next
	for _, t := range gm.Territories() {
		if len(t.Units) == 0 {
			continue
		}
		before := r.base.OwnersAt(t.ID)
		after := gm.OwnersAt(t.ID)
		if len(before) != 1 || len(after) != 1 {
			continue
		}
		owner := after[0]
		if owner == NoID || owner != before[0] || owner == t.Controller {
			continue
		}
		p := gm.Player(owner)
		if p == nil {
			continue
		}
		if t.IsNeutral() {
			p.NeutralCaptures++
		} else {
			p.OpponentCaptures++
		}
		r.report.Captures = append(r.report.Captures, Capture{Territory: t.ID, From: t.Controller, To: owner})
		gm.setController(t, owner)
	}
}

// resolveActions applies every selected upgrade, then clears all selections.
func (r *turnResolver) resolveActions() {
	gm := r.next
	for _, tid := range gm.Actions.SelectedTerritories() {
		sel, _ := gm.Actions.Selection(tid)
		r.report.Upgrades = append(r.report.Upgrades, r.applyUpgrade(tid, sel))
	}
	gm.Actions.Upgrades = make(map[ID]UpgradeSelection)
}

func (r *turnResolver) applyUpgrade(tid ID, sel UpgradeSelection) UpgradeOutcome {
	gm := r.next
	out := UpgradeOutcome{Territory: tid, Player: sel.Player, Action: sel.Action}

	t := gm.Territory(tid)
	p := gm.Player(sel.Player)
	if t == nil || p == nil || t.Controller != sel.Player {
		out.Reason = ReasonLostControl
		return out
	}
	def, ok := Upgrade(sel.Action)
	if !ok || !t.Properties.CanSelect(sel.Action) {
		out.Reason = ReasonUnavailable
		return out
	}
	if t.Food < def.Cost.Food || p.Gold < def.Cost.Gold {
		out.Reason = ReasonInsufficient
		return out
	}

	t.Food -= def.Cost.Food
	p.Gold -= def.Cost.Gold

	if sel.Action == CreateUnit {
		for _, owner := range gm.OwnersAt(tid) {
			if owner != sel.Player {
				out.Reason = ReasonContested
				return out
			}
		}
		u, err := gm.SpawnUnit(sel.Player, tid)
		if err != nil {
			out.Reason = ReasonUnavailable
			return out
		}
		out.Spawned = u.ID
		out.Applied = true
		return out
	}

	t.Properties = t.Properties.With(def.Grants)
	out.Applied = true
	return out
}
