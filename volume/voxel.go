package volume

import "math"

// Color is a linear RGB color with channels in [0,1].
type Color struct {
	R, G, B float64
}

// Magenta marks kept voxels that were never evaluated.
var Magenta = Color{R: 1, G: 0, B: 1}

// RGB8 quantizes the color to 8 bits per channel, truncating the same way
// the PLY writer does.
func (c Color) RGB8() [3]uint8 {
	return [3]uint8{quantize(c.R), quantize(c.G), quantize(c.B)}
}

// ColorFromRGB8 converts an 8-bit sample to a normalized color.
func ColorFromRGB8(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func quantize(v float64) uint8 {
	v *= 255
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// State enumerates the three voxel states.
type State uint8

const (
	// Untouched voxels have never been evaluated. They count as present.
	Untouched State = iota
	// Carved voxels are removed and stay transparent for good.
	Carved
	// Colored voxels are kept with a representative color.
	Colored
)

func (s State) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Carved:
		return "carved"
	case Colored:
		return "colored"
	}
	return "unknown"
}

// Voxel is a tagged variant over {Carved, Untouched, Colored(color)}.
// The zero value is Untouched.
type Voxel struct {
	state State
	color Color
}

// NewColored returns a kept voxel with the given color.
func NewColored(c Color) Voxel { return Voxel{state: Colored, color: c} }

// NewCarved returns a removed voxel.
func NewCarved() Voxel { return Voxel{state: Carved} }

func (v Voxel) State() State    { return v.state }
func (v Voxel) IsCarved() bool  { return v.state == Carved }
func (v Voxel) IsPresent() bool { return v.state != Carved }

// Color returns the voxel color and whether the voxel is Colored.
func (v Voxel) Color() (Color, bool) {
	return v.color, v.state == Colored
}

// DisplayColor is the color used by exporters: the stored color for
// Colored voxels, Magenta for Untouched ones.
func (v Voxel) DisplayColor() Color {
	if v.state == Colored {
		return v.color
	}
	return Magenta
}

// Carve removes the voxel. It reports whether the state changed.
func (v *Voxel) Carve() bool {
	if v.state == Carved {
		return false
	}
	*v = Voxel{state: Carved}
	return true
}

// SetColor marks the voxel Colored. Carved voxels never come back, so the
// call is ignored for them and false is returned.
func (v *Voxel) SetColor(c Color) bool {
	if v.state == Carved {
		return false
	}
	*v = Voxel{state: Colored, color: c}
	return true
}

// Apply moves v to next, honoring the carved-is-final rule. It reports
// whether the transition took effect.
func (v *Voxel) Apply(next Voxel) bool {
	switch next.state {
	case Carved:
		return v.Carve()
	case Colored:
		return v.SetColor(next.color)
	}
	return false
}
