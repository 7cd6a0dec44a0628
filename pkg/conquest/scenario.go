package conquest

import (
	"fmt"
)

// Scenario limits.
const (
	MinPlayers = 2
	MaxPlayers = 8

	StartingGold      = 5
	StartingUnits     = 2
	GarrisonUnits     = 2
	StartingHomeFood  = 4
	StartingWildFood  = 2
	StartingHeartFood = 6
)

var playerColors = []string{"red", "blue", "green", "yellow", "purple", "orange", "teal", "white"}

// PlayerColor returns the default color for the i-th seat.
func PlayerColor(i int) string {
	return playerColors[i%len(playerColors)]
}

// NewScenario builds the standard starting map for the given players.
//
// Every player owns a fortified home territory with two units. Homes sit on
// a ring separated by two wilderness territories each, and the inner
// wilderness of every segment connects to a neutral heartland held by an
// independent garrison.
func NewScenario(id string, players []ID) (*GameMap, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, fmt.Errorf("scenario needs %d-%d players, got %d", MinPlayers, MaxPlayers, len(players))
	}
	gm := NewGameMap(id)

	for i, pid := range players {
		if pid == NoID {
			return nil, fmt.Errorf("player %d has an empty id", i)
		}
		if _, err := gm.AddPlayer(pid, PlayerColor(i), StartingGold); err != nil {
			return nil, err
		}
	}

	heart, err := gm.AddTerritory("heartland", "Heartland", NoID, StartingHeartFood, PropertySet(0).With(Settled).With(Farm))
	if err != nil {
		return nil, err
	}

	var ring []ID
	for i, pid := range players {
		home := ID(fmt.Sprintf("home-%d", i+1))
		if _, err := gm.AddTerritory(home, fmt.Sprintf("%s keep", pid), pid, StartingHomeFood, PropertySet(0).With(Settled).With(Fort)); err != nil {
			return nil, err
		}
		for n := 0; n < StartingUnits; n++ {
			if _, err := gm.SpawnUnit(pid, home); err != nil {
				return nil, err
			}
		}
		ring = append(ring, home)
		for w := 1; w <= 2; w++ {
			wild := ID(fmt.Sprintf("wild-%d-%d", i+1, w))
			if _, err := gm.AddTerritory(wild, "", NoID, StartingWildFood, 0); err != nil {
				return nil, err
			}
			ring = append(ring, wild)
			if w == 2 {
				if _, err := gm.Connect(wild, heart.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	for i := range ring {
		if _, err := gm.Connect(ring[i], ring[(i+1)%len(ring)]); err != nil {
			return nil, err
		}
	}

	for n := 0; n < GarrisonUnits; n++ {
		if _, err := gm.SpawnUnit(NoID, heart.ID); err != nil {
			return nil, err
		}
	}
	return gm, nil
}
