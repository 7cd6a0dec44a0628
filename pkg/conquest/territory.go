package conquest

// Territory is a graph node. Its pending upgrade selection is kept in the
// Action Log, not here.
type Territory struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name,omitempty"`
	Units      IDList      `json:"units"`
	Edges      IDList      `json:"edges"`
	Controller ID          `json:"controller,omitempty"`
	Food       int         `json:"food"`
	Properties PropertySet `json:"properties"`
}

func (t *Territory) EntityID() ID { return t.ID }
func (t *Territory) Kind() Kind   { return KindTerritory }

func (t *Territory) clone() Entity {
	c := *t
	c.Units = t.Units.Clone()
	c.Edges = t.Edges.Clone()
	return &c
}

// IsNeutral reports whether no player controls the territory.
func (t *Territory) IsNeutral() bool { return t.Controller == NoID }

// Type returns the territory classification.
func (t *Territory) Type() TerritoryType { return t.Properties.Type() }

// FoodProduction returns the food grown per turn.
func (t *Territory) FoodProduction() int { return t.Properties.FoodProduction() }

// MaxFood returns the food stock cap.
func (t *Territory) MaxFood() int { return t.Properties.MaxFood() }

// GoldProduction returns the gold paid to the controller per turn.
func (t *Territory) GoldProduction() int { return t.Properties.GoldProduction() }

// AvailableUpgrades returns the actions that may currently be selected.
func (t *Territory) AvailableUpgrades() []UpgradeAction { return t.Properties.AvailableUpgrades() }
