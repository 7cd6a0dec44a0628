package conquest

import "sort"

// CombatGroup is the set of units one owner (or no owner) has at a contested location.
type CombatGroup struct {
	Owner  ID     `json:"owner"`
	Units  IDList `json:"units"`
	Rating int    `json:"rating"`
}

// CombatResult describes the outcome of a single combat.
type CombatResult struct {
	Location ID            `json:"location"`
	Groups   []CombatGroup `json:"groups"` // strongest first
	Retained int           `json:"retained"`
	Removed  IDList        `json:"removed"`
}

// Winner returns the owner of the strongest group.
func (r *CombatResult) Winner() ID {
	if len(r.Groups) == 0 {
		return NoID
	}
	return r.Groups[0].Owner
}

// combatGroups partitions a location's units by owner in discovery order
// and sorts them by rating, strongest first. Ties keep discovery order.
func (gm *GameMap) combatGroups(location ID) []CombatGroup {
	var groups []CombatGroup
	index := make(map[ID]int)
	for _, uid := range gm.UnitsAt(location) {
		u := gm.Unit(uid)
		if u == nil {
			continue
		}
		i, ok := index[u.Owner]
		if !ok {
			i = len(groups)
			index[u.Owner] = i
			groups = append(groups, CombatGroup{Owner: u.Owner})
		}
		groups[i].Units = append(groups[i].Units, uid)
		groups[i].Rating += u.CombatRating()
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Rating > groups[b].Rating
	})
	return groups
}

// retainedCount is how many of the strongest group's units survive.
func retainedCount(groups []CombatGroup) int {
	if len(groups) == 0 {
		return 0
	}
	top := groups[0]
	if len(groups) == 1 {
		return len(top.Units)
	}
	diff := top.Rating - groups[1].Rating
	return clamp((diff+1)/2, 0, len(top.Units))
}

// ResolveCombat fights the combat at a location. The strongest group keeps
// ceil((r0-r1)/2) of its units, taken from the front of its list; every
// other unit present is destroyed. Returns nil if the location is not contested.
func ResolveCombat(gm *GameMap, location ID) *CombatResult {
	if !gm.IsContested(location) {
		return nil
	}
	groups := gm.combatGroups(location)
	res := &CombatResult{
		Location: location,
		Groups:   groups,
		Retained: retainedCount(groups),
	}

	top := groups[0]
	res.Removed = append(res.Removed, top.Units[res.Retained:]...)
	enemyLosses := 0
	for _, g := range groups[1:] {
		res.Removed = append(res.Removed, g.Units...)
		enemyLosses += len(g.Units)
	}

	for _, uid := range res.Removed {
		gm.removeUnit(uid)
	}
	if p := gm.Player(top.Owner); p != nil {
		p.UnitsDestroyed += enemyLosses
	}
	return res
}
