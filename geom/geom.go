// Package geom defines the scroll geometry contract shared between the
// scrollkeeper core and its viewport adapters. These are the public API
// types: any adapter (go-rod, webview, test fake) produces a Metrics
// snapshot and the core decides reachability from it.
package geom

import "math"

// Position is a scroll offset pair in CSS pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Origin is the top-left scroll position.
var Origin = Position{}

// Extent is a width/height pair in CSS pixels.
type Extent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metrics is a raw snapshot of live page geometry, read from the DOM in one
// round trip. Field names follow the DOM properties they are read from.
type Metrics struct {
	BodyScroll Extent `json:"body_scroll"` // body.scrollWidth/Height
	BodyOffset Extent `json:"body_offset"` // body.offsetWidth/Height
	RootClient Extent `json:"root_client"` // documentElement.clientWidth/Height
	RootScroll Extent `json:"root_scroll"` // documentElement.scrollWidth/Height
	RootOffset Extent `json:"root_offset"` // documentElement.offsetWidth/Height

	// Viewport is the visible extent (window.innerWidth/Height, which
	// includes the scrollbar gutter).
	Viewport Extent `json:"viewport"`

	// ScrollbarWidth is the default scrollbar thickness, measured once per
	// page via a transient probe element and cached by the adapter.
	ScrollbarWidth float64 `json:"scrollbar_width"`
}

// MaxReachable computes the largest scroll offset achievable on each axis:
// the maximum content extent across body and root element, minus the visible
// viewport extent, plus the scrollbar thickness. The scrollbar occupies
// layout space but is not content, so a document whose content plus
// scrollbar exactly fills the viewport is fully reachable. The thickness is
// applied uniformly to both axes, matching the upstream formula.
func (m Metrics) MaxReachable() Extent {
	w := max5(m.BodyScroll.Width, m.BodyOffset.Width,
		m.RootClient.Width, m.RootScroll.Width, m.RootOffset.Width)
	h := max5(m.BodyScroll.Height, m.BodyOffset.Height,
		m.RootClient.Height, m.RootScroll.Height, m.RootOffset.Height)

	return Extent{
		Width:  w - m.Viewport.Width + m.ScrollbarWidth,
		Height: h - m.Viewport.Height + m.ScrollbarWidth,
	}
}

// Reaches reports whether the document is currently large enough on both
// axes for the viewport to land on p.
func (m Metrics) Reaches(p Position) bool {
	r := m.MaxReachable()
	return r.Width >= p.X && r.Height >= p.Y
}

func max5(a, b, c, d, e float64) float64 {
	m := a
	for _, v := range [...]float64{b, c, d, e} {
		if v > m {
			m = v
		}
	}
	return m
}
