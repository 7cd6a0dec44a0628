package conquest

// Player is a participant in the game. Territories and Units mirror
// Territory.Controller and Unit.Owner and are kept in sync by the GameMap.
type Player struct {
	ID               ID     `json:"id"`
	Color            string `json:"color,omitempty"`
	Territories      IDList `json:"territories"`
	Units            IDList `json:"units"`
	Gold             int    `json:"gold"`
	GoldProduction   int    `json:"gold_production"`
	NeutralCaptures  int    `json:"neutral_captures"`
	OpponentCaptures int    `json:"opponent_captures"`
	UnitsDestroyed   int    `json:"units_destroyed"`
}

func (p *Player) EntityID() ID { return p.ID }
func (p *Player) Kind() Kind   { return KindPlayer }

func (p *Player) clone() Entity {
	c := *p
	c.Territories = p.Territories.Clone()
	c.Units = p.Units.Clone()
	return &c
}
