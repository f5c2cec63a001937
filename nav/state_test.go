package nav

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/hazyhaar/scrollkeeper/geom"
)

func TestStamp_OverwritesScrollKeys(t *testing.T) {
	state := State{"scrollX": 5.0, "scrollY": 7.0, "route": "/a"}

	got := Stamp(state, geom.Position{X: 120, Y: 340})

	pos, ok := ReadPosition(got)
	if !ok {
		t.Fatal("stamped state has no readable position")
	}
	if pos.X != 120 || pos.Y != 340 {
		t.Errorf("position: got (%v, %v), want (120, 340)", pos.X, pos.Y)
	}
}

func TestStamp_PreservesOtherFields(t *testing.T) {
	state := State{
		"route":  "/articles/42",
		"key":    "abc123",
		"nested": map[string]any{"a": 1},
	}

	got := Stamp(state, geom.Position{X: 10, Y: 20})

	if got["route"] != "/articles/42" || got["key"] != "abc123" {
		t.Errorf("host fields not preserved: %v", got)
	}
	if _, ok := got["nested"]; !ok {
		t.Error("nested field dropped")
	}
	// Original untouched.
	if _, ok := state[KeyScrollX]; ok {
		t.Error("Stamp mutated the input state")
	}
}

func TestStamp_Idempotent(t *testing.T) {
	pos := geom.Position{X: 33, Y: 44}
	state := State{"route": "/b"}

	first := Stamp(state, pos)
	second := Stamp(first, pos)

	p1, _ := ReadPosition(first)
	p2, _ := ReadPosition(second)
	if p1 != p2 {
		t.Errorf("repeated stamp changed position: %v vs %v", p1, p2)
	}
}

func TestCarryOver_KeepsStoredPosition(t *testing.T) {
	prior := State{"scrollX": 120.0, "scrollY": 340.0, "route": "/old"}
	fresh := State{"route": "/new"}

	got := CarryOver(fresh, prior)

	pos, ok := ReadPosition(got)
	if !ok {
		t.Fatal("carried-over state has no readable position")
	}
	if pos.X != 120 || pos.Y != 340 {
		t.Errorf("position: got (%v, %v), want (120, 340)", pos.X, pos.Y)
	}
	if got["route"] != "/new" {
		t.Errorf("fresh state fields not preserved: %v", got)
	}
}

func TestCarryOver_NoStoredPosition(t *testing.T) {
	got := CarryOver(State{"route": "/new"}, State{"route": "/old"})

	if _, ok := ReadPosition(got); ok {
		t.Error("position invented from nowhere")
	}
	if got["route"] != "/new" {
		t.Errorf("fields not preserved: %v", got)
	}
}

func TestReadPosition_NumericShapes(t *testing.T) {
	cases := []struct {
		name  string
		state State
		want  geom.Position
		ok    bool
	}{
		{"floats", State{"scrollX": 1.5, "scrollY": 2.5}, geom.Position{X: 1.5, Y: 2.5}, true},
		{"ints", State{"scrollX": 10, "scrollY": 20}, geom.Position{X: 10, Y: 20}, true},
		{"json numbers", State{"scrollX": json.Number("3"), "scrollY": json.Number("4")}, geom.Position{X: 3, Y: 4}, true},
		{"missing y", State{"scrollX": 1.0}, geom.Position{}, false},
		{"string values", State{"scrollX": "10", "scrollY": "20"}, geom.Position{}, false},
		{"nan", State{"scrollX": math.NaN(), "scrollY": 0.0}, geom.Position{}, false},
		{"nil state", nil, geom.Position{}, false},
		{"empty state", State{}, geom.Position{}, false},
	}

	for _, tc := range cases {
		got, ok := ReadPosition(tc.state)
		if ok != tc.ok {
			t.Errorf("%s: ok = %v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
