package conquest

import (
	"encoding/json"
	"fmt"
)

// Property is a permanent territory improvement. Properties accumulate and
// are never removed.
type Property uint8

const (
	Settled Property = 1 << iota
	Farm
	City
	Fort
	Castle
)

// AllProperties lists every property in acquisition order.
func AllProperties() []Property {
	return []Property{Settled, Farm, City, Fort, Castle}
}

func (p Property) String() string {
	switch p {
	case Settled:
		return "settled"
	case Farm:
		return "farm"
	case City:
		return "city"
	case Fort:
		return "fort"
	case Castle:
		return "castle"
	default:
		return fmt.Sprintf("property(%d)", uint8(p))
	}
}

// PropertySet is the set of properties a territory has acquired.
type PropertySet uint8

// Has reports whether p has been acquired.
func (ps PropertySet) Has(p Property) bool { return ps&PropertySet(p) != 0 }

// With returns the set with p added.
func (ps PropertySet) With(p Property) PropertySet { return ps | PropertySet(p) }

// Count returns the number of acquired properties.
func (ps PropertySet) Count() int {
	n := 0
	for _, p := range AllProperties() {
		if ps.Has(p) {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the set as a list of property names.
func (ps PropertySet) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, p := range AllProperties() {
		if ps.Has(p) {
			names = append(names, p.String())
		}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of property names.
func (ps *PropertySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out PropertySet
	for _, name := range names {
		p, ok := parseProperty(name)
		if !ok {
			return fmt.Errorf("unknown territory property %q", name)
		}
		out = out.With(p)
	}
	*ps = out
	return nil
}

func parseProperty(s string) (Property, bool) {
	for _, p := range AllProperties() {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// TerritoryType is the classification derived from a property set.
type TerritoryType int

const (
	TypeWilderness TerritoryType = iota
	TypeSettlement
	TypeFarm
	TypeFort
	TypeCity
	TypeCastle
)

func (t TerritoryType) String() string {
	switch t {
	case TypeSettlement:
		return "settlement"
	case TypeFarm:
		return "farm"
	case TypeFort:
		return "fort"
	case TypeCity:
		return "city"
	case TypeCastle:
		return "castle"
	default:
		return "wilderness"
	}
}

// typePriority is checked in order; the most upgraded type wins.
var typePriority = []struct {
	prop Property
	typ  TerritoryType
}{
	{Castle, TypeCastle},
	{City, TypeCity},
	{Fort, TypeFort},
	{Farm, TypeFarm},
	{Settled, TypeSettlement},
}

// Type classifies a property set.
func (ps PropertySet) Type() TerritoryType {
	for _, tp := range typePriority {
		if ps.Has(tp.prop) {
			return tp.typ
		}
	}
	return TypeWilderness
}

// UpgradeAction is a purchasable territory action.
type UpgradeAction int

const (
	UpgradeNone UpgradeAction = iota
	CreateUnit
	BuildSettlement
	BuildFarm
	BuildFort
	BuildCity
	BuildCastle
)

var upgradeNames = map[UpgradeAction]string{
	UpgradeNone:     "none",
	CreateUnit:      "create_unit",
	BuildSettlement: "build_settlement",
	BuildFarm:       "build_farm",
	BuildFort:       "build_fort",
	BuildCity:       "build_city",
	BuildCastle:     "build_castle",
}

func (a UpgradeAction) String() string {
	if name, ok := upgradeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("upgrade(%d)", int(a))
}

// ParseUpgradeAction converts a wire name to an UpgradeAction.
// The empty string maps to UpgradeNone.
func ParseUpgradeAction(s string) (UpgradeAction, bool) {
	if s == "" {
		return UpgradeNone, true
	}
	for a, name := range upgradeNames {
		if name == s {
			return a, true
		}
	}
	return UpgradeNone, false
}

// MarshalJSON encodes the action by name.
func (a UpgradeAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action name.
func (a *UpgradeAction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := ParseUpgradeAction(s)
	if !ok {
		return fmt.Errorf("unknown upgrade action %q", s)
	}
	*a = v
	return nil
}

// Cost is the price of an upgrade. Food comes out of the territory's stock,
// gold out of the controlling player's treasury.
type Cost struct {
	Food int `json:"food"`
	Gold int `json:"gold"`
}

// UpgradeDef describes an upgrade: what it costs and which property it grants.
type UpgradeDef struct {
	Action UpgradeAction
	Cost   Cost
	Grants Property // zero for CreateUnit
}

var upgradeDefs = map[UpgradeAction]UpgradeDef{
	CreateUnit:      {CreateUnit, Cost{Food: 3}, 0},
	BuildSettlement: {BuildSettlement, Cost{Gold: 3}, Settled},
	BuildFarm:       {BuildFarm, Cost{Food: 1, Gold: 1}, Farm},
	BuildFort:       {BuildFort, Cost{Food: 2, Gold: 5}, Fort},
	BuildCity:       {BuildCity, Cost{Food: 2, Gold: 5}, City},
	BuildCastle:     {BuildCastle, Cost{Food: 3, Gold: 10}, Castle},
}

// Upgrade returns the definition of a, and false for UpgradeNone or unknown values.
func Upgrade(a UpgradeAction) (UpgradeDef, bool) {
	d, ok := upgradeDefs[a]
	return d, ok
}

// AvailableUpgrades returns the actions a territory with the given
// properties may select, in a stable order.
func (ps PropertySet) AvailableUpgrades() []UpgradeAction {
	var out []UpgradeAction
	if !ps.Has(Settled) {
		out = append(out, BuildSettlement)
	}
	if ps.Has(Settled) && !ps.Has(Farm) {
		out = append(out, BuildFarm)
	}
	if ps.Has(Settled) && !ps.Has(Fort) {
		out = append(out, BuildFort)
	}
	if ps.Has(Farm) && !ps.Has(City) {
		out = append(out, BuildCity)
	}
	if ps.Has(Fort) {
		out = append(out, CreateUnit)
	}
	if ps.Has(City) && ps.Has(Fort) && !ps.Has(Castle) {
		out = append(out, BuildCastle)
	}
	return out
}

// CanSelect reports whether a is currently available. UpgradeNone is always allowed.
func (ps PropertySet) CanSelect(a UpgradeAction) bool {
	if a == UpgradeNone {
		return true
	}
	for _, avail := range ps.AvailableUpgrades() {
		if avail == a {
			return true
		}
	}
	return false
}
