// Package nav implements the history-entry state codec and the navigation
// interceptor. The codec stamps scroll positions into history entry states
// without disturbing the fields the host application stores there; the
// interceptor wraps the two state-mutating navigation primitives so every
// outgoing entry carries the position in effect when it was left.
package nav

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/hazyhaar/scrollkeeper/geom"
)

// Reserved state keys. Everything else in a State belongs to the host.
const (
	KeyScrollX = "scrollX"
	KeyScrollY = "scrollY"
)

// State is the opaque mapping associated with a history entry. A nil State
// is a valid empty state.
type State map[string]any

// Clone returns a shallow copy. Stamping never mutates the caller's map.
func (s State) Clone() State {
	out := make(State, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Stamp merges pos into a copy of state, overwriting any prior scroll keys.
// All other fields pass through untouched.
func Stamp(state State, pos geom.Position) State {
	out := state.Clone()
	out[KeyScrollX] = pos.X
	out[KeyScrollY] = pos.Y
	return out
}

// CarryOver merges the scroll keys already present in prior into a copy of
// state. Used before the app has mounted, when live scroll geometry is
// meaningless (always zero): an early route-resolution overwrite must not
// clobber a position that an in-flight restoration has not yet applied.
// If prior carries no readable position, state passes through as a copy.
func CarryOver(state, prior State) State {
	out := state.Clone()
	if pos, ok := ReadPosition(prior); ok {
		out[KeyScrollX] = pos.X
		out[KeyScrollY] = pos.Y
	}
	return out
}

// ReadPosition extracts the stamped position from a state. It is present
// only when both scroll keys hold finite numeric values; anything else
// means "no restorable position" and the caller decides the fallback.
func ReadPosition(state State) (geom.Position, bool) {
	x, okX := asFinite(state[KeyScrollX])
	y, okY := asFinite(state[KeyScrollY])
	if !okX || !okY {
		return geom.Position{}, false
	}
	return geom.Position{X: x, Y: y}, true
}

// asFinite coerces the numeric shapes a state value can arrive in. States
// round-tripped through CDP come back as decoded JSON, so float64 and
// json.Number both occur alongside native ints.
func asFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
