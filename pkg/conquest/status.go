package conquest

import (
	"encoding/json"
	"fmt"
)

// Status is a bit flag carried by a unit between turns.
type Status uint8

const (
	Defending Status = 1 << iota // held position last turn
	Starving                     // its territory ran out of food
)

var statusNames = []struct {
	s    Status
	name string
}{
	{Defending, "defending"},
	{Starving, "starving"},
}

func (s Status) String() string {
	for _, n := range statusNames {
		if s == n.s {
			return n.name
		}
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// StatusSet is a set of Status flags.
type StatusSet uint8

// Has reports whether s is set.
func (ss StatusSet) Has(s Status) bool { return ss&StatusSet(s) != 0 }

// With returns the set with s added.
func (ss StatusSet) With(s Status) StatusSet { return ss | StatusSet(s) }

// Without returns the set with s removed.
func (ss StatusSet) Without(s Status) StatusSet { return ss &^ StatusSet(s) }

// MarshalJSON encodes the set as a list of names.
func (ss StatusSet) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, n := range statusNames {
		if ss.Has(n.s) {
			names = append(names, n.name)
		}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of status names.
func (ss *StatusSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out StatusSet
	for _, name := range names {
		found := false
		for _, n := range statusNames {
			if n.name == name {
				out = out.With(n.s)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown unit status %q", name)
		}
	}
	*ss = out
	return nil
}
