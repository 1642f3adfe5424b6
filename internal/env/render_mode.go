package env

import "fmt"

// RenderMode selects what Render produces.
type RenderMode string

const (
	// RenderNone disables rendering; Render warns and returns nothing
	RenderNone RenderMode = ""
	// RenderANSI writes a text rendering to the env's output stream
	RenderANSI RenderMode = "ansi"
	// RenderRGBArray returns pixel frames
	RenderRGBArray RenderMode = "rgb_array"
	// RenderHuman presents frames through a display backend
	RenderHuman RenderMode = "human"
)

// AllRenderModes lists the closed set of modes, without RenderNone.
var AllRenderModes = []RenderMode{RenderANSI, RenderRGBArray, RenderHuman}

func (m RenderMode) String() string {
	if m == RenderNone {
		return "none"
	}
	return string(m)
}

// Valid reports whether m belongs to the closed set of modes.
func (m RenderMode) Valid() bool {
	switch m {
	case RenderNone, RenderANSI, RenderRGBArray, RenderHuman:
		return true
	}
	return false
}

// ParseRenderMode converts configuration text into a RenderMode. "none"
// is accepted as an alias for the empty mode.
func ParseRenderMode(s string) (RenderMode, error) {
	if s == "none" {
		return RenderNone, nil
	}
	m := RenderMode(s)
	if !m.Valid() {
		return RenderNone, fmt.Errorf("render mode %q: %w", s, ErrInvalidRenderMode)
	}
	return m, nil
}

// MustSupportRenderMode panics with a contract violation unless mode is
// declared by meta.
func MustSupportRenderMode(meta Metadata, mode RenderMode) {
	if !mode.Valid() || !meta.Supports(mode) {
		Violate("new", ErrInvalidRenderMode, "render mode %q not in %v", string(mode), meta.RenderModes)
	}
}
