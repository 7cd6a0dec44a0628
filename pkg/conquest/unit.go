package conquest

// Unit is a movable, ownable combat piece. Its movement order lives in the
// Action Log, keyed by unit id.
type Unit struct {
	ID       ID        `json:"id"`
	Owner    ID        `json:"owner,omitempty"`
	Location ID        `json:"location"`
	Status   StatusSet `json:"status"`
}

func (u *Unit) EntityID() ID { return u.ID }
func (u *Unit) Kind() Kind   { return KindUnit }

func (u *Unit) clone() Entity {
	c := *u
	return &c
}

// FoodConsumption is the food this unit eats per turn.
func (u *Unit) FoodConsumption() int { return UnitFoodConsumption }

// CombatRating is the unit's contribution to its group's combat rating.
func (u *Unit) CombatRating() int {
	r := 2
	if u.Status.Has(Defending) {
		r++
	}
	if u.Status.Has(Starving) {
		r--
	}
	return r
}
