package conquest

// Economy constants.
const (
	BaseFoodProduction = 1
	BaseMaxFood        = 5
	BaseGoldProduction = 0

	// UnitFoodConsumption is what each occupying unit eats per turn.
	UnitFoodConsumption = 1

	// DefaultPlayerGoldProduction is the flat per-turn income of a new player.
	DefaultPlayerGoldProduction = 1
)

// yield is the per-turn contribution of a property.
type yield struct {
	food    int
	maxFood int
	gold    int
}

var propertyYields = map[Property]yield{
	Settled: {maxFood: 2, gold: 1},
	Farm:    {food: 2, maxFood: 3},
	City:    {maxFood: 5, gold: 2},
	Fort:    {maxFood: 2},
	Castle:  {maxFood: 5, gold: 1},
}

func (ps PropertySet) total() yield {
	y := yield{food: BaseFoodProduction, maxFood: BaseMaxFood, gold: BaseGoldProduction}
	for _, p := range AllProperties() {
		if !ps.Has(p) {
			continue
		}
		py := propertyYields[p]
		y.food += py.food
		y.maxFood += py.maxFood
		y.gold += py.gold
	}
	return y
}

// FoodProduction is the food a territory with these properties grows per turn.
func (ps PropertySet) FoodProduction() int { return ps.total().food }

// MaxFood is the stock cap for a territory with these properties.
func (ps PropertySet) MaxFood() int { return ps.total().maxFood }

// GoldProduction is the gold paid to the controller per turn.
func (ps PropertySet) GoldProduction() int { return ps.total().gold }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
