package conquest

import "sort"

// PlayerStats is the derived scoreboard line for one player.
type PlayerStats struct {
	Player           ID     `json:"player"`
	Color            string `json:"color,omitempty"`
	Gold             int    `json:"gold"`
	Units            int    `json:"units"`
	Territories      int    `json:"territories"`
	Properties       int    `json:"properties"`
	NeutralCaptures  int    `json:"neutral_captures"`
	OpponentCaptures int    `json:"opponent_captures"`
	UnitsDestroyed   int    `json:"units_destroyed"`
	VictoryPoints    int    `json:"victory_points"`
	Eliminated       bool   `json:"eliminated"`
}

// Stats computes a player's scoreboard line. Returns false for an unknown player.
func (gm *GameMap) Stats(player ID) (PlayerStats, bool) {
	p := gm.Player(player)
	if p == nil {
		return PlayerStats{}, false
	}
	s := PlayerStats{
		Player:           p.ID,
		Color:            p.Color,
		Gold:             p.Gold,
		Units:            len(p.Units),
		Territories:      len(p.Territories),
		NeutralCaptures:  p.NeutralCaptures,
		OpponentCaptures: p.OpponentCaptures,
		UnitsDestroyed:   p.UnitsDestroyed,
		Eliminated:       gm.IsEliminated(p.ID),
	}
	for _, tid := range p.Territories {
		if t := gm.Territory(tid); t != nil {
			s.Properties += t.Properties.Count()
		}
	}
	s.VictoryPoints = s.Gold + s.Units + s.Territories + s.Properties +
		s.NeutralCaptures + 2*s.OpponentCaptures + s.UnitsDestroyed
	return s, true
}

// VictoryPoints returns a player's score, or 0 for an unknown player.
func (gm *GameMap) VictoryPoints(player ID) int {
	s, _ := gm.Stats(player)
	return s.VictoryPoints
}

// Standings returns every player's stats, highest score first. Ties are
// ordered by player id.
func (gm *GameMap) Standings() []PlayerStats {
	var out []PlayerStats
	for _, p := range gm.Players() {
		s, _ := gm.Stats(p.ID)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VictoryPoints > out[j].VictoryPoints
	})
	return out
}

// VictoryLeaders returns the players sharing the top score once the game is
// decided: either someone reached pointThreshold, or gameOver is set (for
// example when the turn limit is hit). Otherwise it returns nil.
// A pointThreshold of zero or less disables the threshold check.
func VictoryLeaders(gm *GameMap, pointThreshold int, gameOver bool) []ID {
	standings := gm.Standings()
	if len(standings) == 0 {
		return nil
	}
	best := standings[0].VictoryPoints
	if !gameOver && (pointThreshold <= 0 || best < pointThreshold) {
		return nil
	}
	var leaders []ID
	for _, s := range standings {
		if s.VictoryPoints != best {
			break
		}
		leaders = append(leaders, s.Player)
	}
	return leaders
}
