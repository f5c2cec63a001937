package geom

import (
	"math"
	"testing"
)

func metricsWithHeight(content, viewport, scrollbar float64) Metrics {
	return Metrics{
		BodyScroll:     Extent{Width: 1280, Height: content},
		BodyOffset:     Extent{Width: 1280, Height: content},
		RootClient:     Extent{Width: 1265, Height: viewport},
		RootScroll:     Extent{Width: 1280, Height: content},
		RootOffset:     Extent{Width: 1280, Height: content},
		Viewport:       Extent{Width: 1280, Height: viewport},
		ScrollbarWidth: scrollbar,
	}
}

func TestMaxReachable_TakesMaxAcrossSources(t *testing.T) {
	m := Metrics{
		BodyScroll: Extent{Width: 100, Height: 2400},
		BodyOffset: Extent{Width: 100, Height: 900},
		RootClient: Extent{Width: 100, Height: 700},
		RootScroll: Extent{Width: 100, Height: 2000},
		RootOffset: Extent{Width: 100, Height: 900},
		Viewport:   Extent{Width: 100, Height: 700},
	}

	got := m.MaxReachable()
	if got.Height != 2400-700 {
		t.Errorf("reachable height: got %v, want %v", got.Height, 2400-700)
	}
}

func TestMaxReachable_ScrollbarCompensation(t *testing.T) {
	// Content plus scrollbar exactly fills the viewport: the document must
	// count as fully reachable, not short by one scrollbar width.
	m := metricsWithHeight(700, 700, 15)

	got := m.MaxReachable()
	if got.Height != 15 {
		t.Errorf("reachable height: got %v, want 15", got.Height)
	}
	if !m.Reaches(Position{X: 0, Y: 15}) {
		t.Error("position at scrollbar-compensated extent should be reachable")
	}
}

func TestReaches(t *testing.T) {
	m := metricsWithHeight(2000, 700, 15)

	cases := []struct {
		name string
		pos  Position
		want bool
	}{
		{"origin", Position{}, true},
		{"within", Position{X: 0, Y: 1000}, true},
		{"at limit", Position{X: 0, Y: 2000 - 700 + 15}, true},
		{"beyond vertical", Position{X: 0, Y: 5000}, false},
		{"beyond horizontal", Position{X: 4000, Y: 0}, false},
	}
	for _, tc := range cases {
		if got := m.Reaches(tc.pos); got != tc.want {
			t.Errorf("%s: Reaches(%v) = %v, want %v", tc.name, tc.pos, got, tc.want)
		}
	}
}

func TestPosition_Finite(t *testing.T) {
	if !(Position{X: 10, Y: 20}).Finite() {
		t.Error("finite position reported non-finite")
	}
	if (Position{X: math.NaN(), Y: 0}).Finite() {
		t.Error("NaN X reported finite")
	}
	if (Position{X: 0, Y: math.Inf(1)}).Finite() {
		t.Error("Inf Y reported finite")
	}
}
