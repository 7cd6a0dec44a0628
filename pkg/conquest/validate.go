package conquest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID is returned when an intent references an id that is not
	// in the registry, or that names an entity of the wrong kind.
	ErrUnknownID = errors.New("unknown id")
	// ErrInvalidIntent is returned when an intent is well-formed but illegal
	// against the current snapshot.
	ErrInvalidIntent = errors.New("invalid intent")
)

// ValidationError describes why an intent was rejected.
type ValidationError struct {
	Intent  Intent
	Err     error // ErrUnknownID or ErrInvalidIntent
	Message string
}

func (e *ValidationError) Error() string {
	if e.Intent == nil {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Err, e.Intent.Describe(), e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func unknownID(in Intent, kind Kind, id ID) error {
	return &ValidationError{in, ErrUnknownID, fmt.Sprintf("no %s %q", kind, id)}
}

func invalid(in Intent, format string, args ...any) error {
	return &ValidationError{in, ErrInvalidIntent, fmt.Sprintf(format, args...)}
}

// ValidateIntent checks whether an intent is legal against gm without
// mutating it. Returns nil if valid, or a *ValidationError.
func ValidateIntent(gm *GameMap, in Intent) error {
	switch in := in.(type) {
	case MoveIntent:
		return validateMove(gm, in)
	case UpgradeIntent:
		return validateUpgrade(gm, in)
	case ReadyIntent:
		return validateReady(gm, in)
	case nil:
		return &ValidationError{nil, ErrInvalidIntent, "nil intent"}
	default:
		return invalid(in, "unsupported intent type %T", in)
	}
}

// ApplyIntent validates an intent and, only if it is legal, records it in
// the snapshot's Action Log. A rejected intent leaves gm untouched.
func ApplyIntent(gm *GameMap, in Intent) error {
	if err := ValidateIntent(gm, in); err != nil {
		return err
	}
	switch in := in.(type) {
	case MoveIntent:
		for _, uid := range in.Units {
			gm.Actions.SetMove(uid, in.Destination)
		}
	case UpgradeIntent:
		t := gm.Territory(in.Territory)
		gm.Actions.SetSelection(in.Territory, UpgradeSelection{Player: t.Controller, Action: in.Upgrade})
	case ReadyIntent:
		gm.Actions.MarkReady(in.Player)
	}
	return nil
}

func validateMove(gm *GameMap, in MoveIntent) error {
	if len(in.Units) == 0 {
		return invalid(in, "no units selected")
	}

	var common IDList
	for i, uid := range in.Units {
		u := gm.Unit(uid)
		if u == nil {
			return unknownID(in, KindUnit, uid)
		}
		if gm.Territory(u.Location) == nil {
			return invalid(in, "unit %s is in transit on %s", uid, u.Location)
		}
		neighbors := gm.Neighbors(u.Location)
		if i == 0 {
			common = neighbors
		} else {
			common = common.Intersect(neighbors)
		}
	}

	if in.Destination == NoID {
		return nil
	}
	if gm.Territory(in.Destination) == nil {
		return unknownID(in, KindTerritory, in.Destination)
	}
	if !common.Contains(in.Destination) {
		return invalid(in, "%s is not adjacent to every selected unit", in.Destination)
	}
	return nil
}

func validateUpgrade(gm *GameMap, in UpgradeIntent) error {
	t := gm.Territory(in.Territory)
	if t == nil {
		return unknownID(in, KindTerritory, in.Territory)
	}
	if !t.Properties.CanSelect(in.Upgrade) {
		return invalid(in, "%s is not available at %s", in.Upgrade, in.Territory)
	}
	return nil
}

func validateReady(gm *GameMap, in ReadyIntent) error {
	if gm.Player(in.Player) == nil {
		return unknownID(in, KindPlayer, in.Player)
	}
	return nil
}
